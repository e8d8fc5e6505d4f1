package ratefile

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

// Attribute values are evaluated without a context: run files are plain
// data, not templates, so references and functions are rejected.
func attrValue(attrs hcl.Attributes, name string) (cty.Value, error) {
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, errors.Configf("missing attribute %q", name)
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Configf("attribute %q: %s", name, diags.Error())
	}
	if !val.IsKnown() || val.IsNull() {
		return cty.NilVal, errors.Configf("attribute %q has no value", name)
	}
	return val, nil
}

func attrString(attrs hcl.Attributes, name string) (string, error) {
	val, err := attrValue(attrs, name)
	if err != nil {
		return "", err
	}
	if val.Type() != cty.String {
		return "", errors.Configf("attribute %q must be a string, got %s", name, val.Type().FriendlyName())
	}
	return val.AsString(), nil
}

func optionalString(attrs hcl.Attributes, name, fallback string) (string, error) {
	if _, ok := attrs[name]; !ok {
		return fallback, nil
	}
	return attrString(attrs, name)
}

// attrDecimal converts an HCL number to a decimal through its exact
// text form; going through float64 would corrupt rate values.
func attrDecimal(attrs hcl.Attributes, name string) (decimal.Decimal, error) {
	val, err := attrValue(attrs, name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if val.Type() != cty.Number {
		return decimal.Decimal{}, errors.Configf("attribute %q must be a number, got %s", name, val.Type().FriendlyName())
	}
	text := val.AsBigFloat().Text('f', -1)
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, errors.Configf("attribute %q: %v", name, err)
	}
	return d, nil
}

func parseWindow(attrs hcl.Attributes) (time.Time, *time.Time, error) {
	fromRaw, err := attrString(attrs, "effective_from")
	if err != nil {
		return time.Time{}, nil, err
	}
	from, err := types.ParseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, errors.Config(fmt.Sprintf("effective_from: %v", err))
	}

	if _, ok := attrs["effective_to"]; !ok {
		return from, nil, nil
	}
	toRaw, err := attrString(attrs, "effective_to")
	if err != nil {
		return time.Time{}, nil, err
	}
	to, err := types.ParseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, errors.Config(fmt.Sprintf("effective_to: %v", err))
	}
	return from, &to, nil
}
