// Package ratefile parses HCL run files: the run configuration, the
// items to price, and optionally an inline rate set that replaces the
// database for self-contained runs.
package ratefile

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"landed-cost/core/rates"
	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

// Document is a parsed run file
type Document struct {
	// Config is the run configuration from the run block
	Config types.RunConfig

	// Items are the import items to price, in file order
	Items []types.ImportItem

	// Rates holds the inline rate records; nil when the file carries none
	// and the caller should price against the database instead
	Rates *rates.MemoryStore
}

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "run"},
		{Type: "product", LabelNames: []string{"sku"}},
		{Type: "item"},
		{Type: "fx_rate", LabelNames: []string{"id"}},
		{Type: "duty_rate", LabelNames: []string{"id"}},
		{Type: "vat_rate", LabelNames: []string{"id"}},
		{Type: "fee", LabelNames: []string{"id"}},
	},
}

// Load parses the run file at path
func Load(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("read run file: %v", err))
	}
	return Parse(src, path)
}

// Parse parses run file source. The filename only labels diagnostics.
func Parse(src []byte, filename string) (*Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("parse run file: %s", diags.Error()))
	}

	content, _, diags := file.Body.PartialContent(rootSchema)
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("read run file: %s", diags.Error()))
	}

	doc := &Document{}
	products := make(map[string]types.Product)
	inline := rates.NewMemoryStore()
	hasRates := false
	haveRun := false

	for _, block := range content.Blocks {
		switch block.Type {
		case "run":
			if haveRun {
				return nil, errors.Config("run file must contain exactly one run block")
			}
			haveRun = true
			cfg, err := parseRun(block)
			if err != nil {
				return nil, err
			}
			doc.Config = *cfg

		case "product":
			p, err := parseProduct(block)
			if err != nil {
				return nil, err
			}
			if _, dup := products[p.SKU]; dup {
				return nil, errors.Configf("duplicate product %q", p.SKU)
			}
			products[p.SKU] = *p

		case "fx_rate":
			r, err := parseFxRate(block)
			if err != nil {
				return nil, err
			}
			inline.AddFxRate(*r)
			hasRates = true

		case "duty_rate":
			r, err := parseDutyRate(block)
			if err != nil {
				return nil, err
			}
			inline.AddDutyRate(*r)
			hasRates = true

		case "vat_rate":
			r, err := parseVatRate(block)
			if err != nil {
				return nil, err
			}
			inline.AddVatRate(*r)
			hasRates = true

		case "fee":
			f, err := parseFeeRecord(block)
			if err != nil {
				return nil, err
			}
			inline.AddFee(*f)
			hasRates = true
		}
	}

	if !haveRun {
		return nil, errors.Config("run file missing run block")
	}

	// Items resolve against products in a second pass so declaration
	// order does not matter.
	itemSeq := 0
	for _, block := range content.Blocks {
		if block.Type != "item" {
			continue
		}
		itemSeq++
		item, err := parseItem(block, products, itemSeq)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, *item)
	}

	if hasRates {
		doc.Rates = inline
	}
	return doc, nil
}

func parseRun(block *hcl.Block) (*types.RunConfig, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "destination", Required: true},
			{Name: "incoterm"},
			{Name: "fx_date", Required: true},
			{Name: "margin_mode", Required: true},
			{Name: "margin_value", Required: true},
			{Name: "vat_base"},
		},
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "freight"},
			{Type: "insurance"},
			{Type: "rounding"},
			{Type: "fee_override", LabelNames: []string{"country"}},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("run block: %s", diags.Error()))
	}

	cfg := &types.RunConfig{}

	dest, err := attrString(content.Attributes, "destination")
	if err != nil {
		return nil, err
	}
	cfg.Destination = types.Country(dest)

	if cfg.Incoterm, err = optionalString(content.Attributes, "incoterm", "CIF"); err != nil {
		return nil, err
	}
	if cfg.FxDate, err = attrString(content.Attributes, "fx_date"); err != nil {
		return nil, err
	}
	mode, err := attrString(content.Attributes, "margin_mode")
	if err != nil {
		return nil, err
	}
	cfg.MarginMode = types.MarginMode(mode)
	if cfg.MarginValue, err = attrDecimal(content.Attributes, "margin_value"); err != nil {
		return nil, err
	}
	base, err := optionalString(content.Attributes, "vat_base", "")
	if err != nil {
		return nil, err
	}
	cfg.VatBase = types.VatBase(base)

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "freight":
			tag, value, err := parseModelBlock(inner)
			if err != nil {
				return nil, err
			}
			cfg.FreightModel = types.FreightModel{Type: types.FreightType(tag), Value: value}
		case "insurance":
			tag, value, err := parseModelBlock(inner)
			if err != nil {
				return nil, err
			}
			cfg.InsuranceModel = types.InsuranceModel{Type: types.InsuranceType(tag), Value: value}
		case "rounding":
			policy, err := parseRounding(inner)
			if err != nil {
				return nil, err
			}
			cfg.Rounding = policy
		case "fee_override":
			country := types.Country(inner.Labels[0])
			override, err := parseFeeOverride(inner, country)
			if err != nil {
				return nil, err
			}
			if cfg.FeeOverrides == nil {
				cfg.FeeOverrides = make(map[types.Country][]types.Fee)
			}
			cfg.FeeOverrides[country] = override
		}
	}

	return cfg, nil
}

func parseModelBlock(block *hcl.Block) (string, decimal.Decimal, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "type", Required: true},
			{Name: "value", Required: true},
		},
	})
	if diags.HasErrors() {
		return "", decimal.Decimal{}, errors.Config(fmt.Sprintf("%s block: %s", block.Type, diags.Error()))
	}
	tag, err := attrString(content.Attributes, "type")
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	value, err := attrDecimal(content.Attributes, "value")
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	return tag, value, nil
}

func parseRounding(block *hcl.Block) (*types.RoundingPolicy, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "mode", Required: true},
			{Name: "value"},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("rounding block: %s", diags.Error()))
	}
	mode, err := attrString(content.Attributes, "mode")
	if err != nil {
		return nil, err
	}
	policy := &types.RoundingPolicy{Mode: types.RoundingMode(mode)}
	if _, ok := content.Attributes["value"]; ok {
		if policy.Value, err = attrDecimal(content.Attributes, "value"); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

func parseFeeOverride(block *hcl.Block, country types.Country) ([]types.Fee, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "fee"},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("fee_override block: %s", diags.Error()))
	}

	// An empty override is meaningful: it suppresses the country's fees.
	out := []types.Fee{}
	for i, inner := range content.Blocks {
		fc, diags := inner.Body.Content(&hcl.BodySchema{
			Attributes: []hcl.AttributeSchema{
				{Name: "name", Required: true},
				{Name: "method", Required: true},
				{Name: "value", Required: true},
			},
		})
		if diags.HasErrors() {
			return nil, errors.Config(fmt.Sprintf("fee block: %s", diags.Error()))
		}
		name, err := attrString(fc.Attributes, "name")
		if err != nil {
			return nil, err
		}
		method, err := attrString(fc.Attributes, "method")
		if err != nil {
			return nil, err
		}
		value, err := attrDecimal(fc.Attributes, "value")
		if err != nil {
			return nil, err
		}
		out = append(out, types.Fee{
			ID:      fmt.Sprintf("override-%s-%d", country, i+1),
			Country: country,
			Name:    name,
			Method:  types.FeeMethod(method),
			Value:   value,
		})
	}
	return out, nil
}

func parseProduct(block *hcl.Block) (*types.Product, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "name"},
			{Name: "hs_code", Required: true},
			{Name: "weight_kg", Required: true},
			{Name: "volume_m3"},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("product block: %s", diags.Error()))
	}

	p := &types.Product{SKU: block.Labels[0]}
	var err error
	if p.Name, err = optionalString(content.Attributes, "name", ""); err != nil {
		return nil, err
	}
	if p.HsCode, err = attrString(content.Attributes, "hs_code"); err != nil {
		return nil, err
	}
	if p.WeightKg, err = attrDecimal(content.Attributes, "weight_kg"); err != nil {
		return nil, err
	}
	if _, ok := content.Attributes["volume_m3"]; ok {
		if p.VolumeM3, err = attrDecimal(content.Attributes, "volume_m3"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func parseItem(block *hcl.Block, products map[string]types.Product, seq int) (*types.ImportItem, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "id"},
			{Name: "sku", Required: true},
			{Name: "purchase_price_pkr", Required: true},
			{Name: "units", Required: true},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("item block: %s", diags.Error()))
	}

	sku, err := attrString(content.Attributes, "sku")
	if err != nil {
		return nil, err
	}
	product, ok := products[sku]
	if !ok {
		return nil, errors.Configf("item references unknown product %q", sku)
	}

	item := &types.ImportItem{Product: product}
	if item.ID, err = optionalString(content.Attributes, "id", fmt.Sprintf("item-%d", seq)); err != nil {
		return nil, err
	}
	if item.PurchasePricePkr, err = attrDecimal(content.Attributes, "purchase_price_pkr"); err != nil {
		return nil, err
	}
	units, err := attrDecimal(content.Attributes, "units")
	if err != nil {
		return nil, err
	}
	if !units.IsInteger() {
		return nil, errors.Configf("item %s: units must be a whole number", item.ID)
	}
	item.Units = units.IntPart()
	return item, nil
}

func parseFxRate(block *hcl.Block) (*types.FxRate, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "as_of_date", Required: true},
			{Name: "pkr_to_gbp", Required: true},
			{Name: "pkr_to_usd", Required: true},
			{Name: "pkr_to_eur", Required: true},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("fx_rate block: %s", diags.Error()))
	}

	r := &types.FxRate{ID: block.Labels[0]}
	asOf, err := attrString(content.Attributes, "as_of_date")
	if err != nil {
		return nil, err
	}
	if r.AsOfDate, err = types.ParseDate(asOf); err != nil {
		return nil, errors.Configf("as_of_date: %v", err)
	}
	if r.PkrToGbp, err = attrDecimal(content.Attributes, "pkr_to_gbp"); err != nil {
		return nil, err
	}
	if r.PkrToUsd, err = attrDecimal(content.Attributes, "pkr_to_usd"); err != nil {
		return nil, err
	}
	if r.PkrToEur, err = attrDecimal(content.Attributes, "pkr_to_eur"); err != nil {
		return nil, err
	}
	return r, nil
}

func parseDutyRate(block *hcl.Block) (*types.DutyRate, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "country", Required: true},
			{Name: "hs_code", Required: true},
			{Name: "rate_percent", Required: true},
			{Name: "effective_from", Required: true},
			{Name: "effective_to"},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("duty_rate block: %s", diags.Error()))
	}

	r := &types.DutyRate{ID: block.Labels[0]}
	country, err := attrString(content.Attributes, "country")
	if err != nil {
		return nil, err
	}
	r.Country = types.Country(country)
	if r.HsCode, err = attrString(content.Attributes, "hs_code"); err != nil {
		return nil, err
	}
	if r.RatePercent, err = attrDecimal(content.Attributes, "rate_percent"); err != nil {
		return nil, err
	}
	if r.EffectiveFrom, r.EffectiveTo, err = parseWindow(content.Attributes); err != nil {
		return nil, err
	}
	return r, nil
}

func parseVatRate(block *hcl.Block) (*types.VatRate, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "country", Required: true},
			{Name: "base", Required: true},
			{Name: "rate_percent", Required: true},
			{Name: "effective_from", Required: true},
			{Name: "effective_to"},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("vat_rate block: %s", diags.Error()))
	}

	r := &types.VatRate{ID: block.Labels[0]}
	country, err := attrString(content.Attributes, "country")
	if err != nil {
		return nil, err
	}
	r.Country = types.Country(country)
	base, err := attrString(content.Attributes, "base")
	if err != nil {
		return nil, err
	}
	r.Base = types.VatBase(base)
	if r.RatePercent, err = attrDecimal(content.Attributes, "rate_percent"); err != nil {
		return nil, err
	}
	if r.EffectiveFrom, r.EffectiveTo, err = parseWindow(content.Attributes); err != nil {
		return nil, err
	}
	return r, nil
}

func parseFeeRecord(block *hcl.Block) (*types.Fee, error) {
	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "country", Required: true},
			{Name: "name", Required: true},
			{Name: "method", Required: true},
			{Name: "value", Required: true},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Config(fmt.Sprintf("fee block: %s", diags.Error()))
	}

	f := &types.Fee{ID: block.Labels[0]}
	country, err := attrString(content.Attributes, "country")
	if err != nil {
		return nil, err
	}
	f.Country = types.Country(country)
	if f.Name, err = attrString(content.Attributes, "name"); err != nil {
		return nil, err
	}
	method, err := attrString(content.Attributes, "method")
	if err != nil {
		return nil, err
	}
	f.Method = types.FeeMethod(method)
	if f.Value, err = attrDecimal(content.Attributes, "value"); err != nil {
		return nil, err
	}
	return f, nil
}
