// Package types - import items
package types

import "github.com/shopspring/decimal"

// Product describes a physical good being imported
type Product struct {
	// SKU uniquely identifies the product
	SKU string `json:"sku"`

	// Name is the human-readable product name
	Name string `json:"name,omitempty"`

	// HsCode classifies the product for customs/duty purposes
	HsCode string `json:"hsCode"`

	// WeightKg is the per-unit weight in kilograms
	WeightKg decimal.Decimal `json:"weightKg"`

	// VolumeM3 is the per-unit volume in cubic meters
	VolumeM3 decimal.Decimal `json:"volumeM3"`
}

// ImportItem is one line of an import: a product, a purchase price in the
// source currency, and a unit count. Immutable input to a run.
type ImportItem struct {
	// ID uniquely identifies this item line
	ID string `json:"id"`

	// Product is the materialized product record
	Product Product `json:"product"`

	// PurchasePricePkr is the per-unit purchase price in PKR
	PurchasePricePkr decimal.Decimal `json:"purchasePricePkr"`

	// Units is the number of units on this line
	Units int64 `json:"units"`
}
