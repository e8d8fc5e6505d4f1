package ratefile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const sampleRunFile = `
run {
  destination  = "UK"
  incoterm     = "CIF"
  fx_date      = "2025-01-01"
  margin_mode  = "MARGIN"
  margin_value = 0.35

  freight {
    type  = "PER_KG"
    value = 3.6
  }

  insurance {
    type  = "PCT_OF_VALUE"
    value = 0.003
  }

  rounding {
    mode  = "ENDINGS"
    value = 0.99
  }
}

product "FNV-1001" {
  name      = "Leather Wallet - Premium"
  hs_code   = "420231"
  weight_kg = 0.30
  volume_m3 = 0.0015
}

item {
  sku                = "FNV-1001"
  purchase_price_pkr = 1100
  units              = 100
}

fx_rate "fx-2025-01" {
  as_of_date = "2025-01-01"
  pkr_to_gbp = 0.0028
  pkr_to_usd = 0.0036
  pkr_to_eur = 0.0033
}

duty_rate "duty-uk-420231" {
  country        = "UK"
  hs_code        = "420231"
  rate_percent   = 0.035
  effective_from = "2024-01-01"
}

vat_rate "vat-uk" {
  country        = "UK"
  base           = "CIF_PLUS_DUTY"
  rate_percent   = 0.20
  effective_from = "2024-01-01"
}

fee "fee-uk-clearance" {
  country = "UK"
  name    = "Customs Clearance"
  method  = "FIXED"
  value   = 15
}
`

func TestParseFullRunFile(t *testing.T) {
	doc, err := Parse([]byte(sampleRunFile), "run.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := doc.Config
	if cfg.Destination != types.CountryUK || cfg.Incoterm != "CIF" || cfg.FxDate != "2025-01-01" {
		t.Errorf("run header mismatch: %+v", cfg)
	}
	if cfg.MarginMode != types.ModeMargin || !cfg.MarginValue.Equal(dec("0.35")) {
		t.Errorf("margin mismatch: %s %s", cfg.MarginMode, cfg.MarginValue)
	}
	if cfg.FreightModel.Type != types.FreightPerKg || !cfg.FreightModel.Value.Equal(dec("3.6")) {
		t.Errorf("freight mismatch: %+v", cfg.FreightModel)
	}
	if cfg.InsuranceModel.Type != types.InsurancePctOfValue || !cfg.InsuranceModel.Value.Equal(dec("0.003")) {
		t.Errorf("insurance mismatch: %+v", cfg.InsuranceModel)
	}
	if cfg.Rounding == nil || cfg.Rounding.Mode != types.RoundEndings || !cfg.Rounding.Value.Equal(dec("0.99")) {
		t.Errorf("rounding mismatch: %+v", cfg.Rounding)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("parsed config must validate: %v", err)
	}

	if len(doc.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(doc.Items))
	}
	item := doc.Items[0]
	if item.ID != "item-1" || item.Product.SKU != "FNV-1001" || item.Product.HsCode != "420231" {
		t.Errorf("item mismatch: %+v", item)
	}
	if !item.PurchasePricePkr.Equal(dec("1100")) || item.Units != 100 {
		t.Errorf("item amounts mismatch: %+v", item)
	}
	if !item.Product.WeightKg.Equal(dec("0.30")) {
		t.Errorf("weight must keep its exact text form, got %s", item.Product.WeightKg)
	}
}

func TestParseInlineRates(t *testing.T) {
	doc, err := Parse([]byte(sampleRunFile), "run.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Rates == nil {
		t.Fatal("expected inline rates")
	}

	ctx := context.Background()
	fx, err := doc.Rates.FxRates(ctx)
	if err != nil {
		t.Fatalf("fx rates: %v", err)
	}
	if len(fx) != 1 || fx[0].ID != "fx-2025-01" || !fx[0].PkrToGbp.Equal(dec("0.0028")) {
		t.Errorf("fx mismatch: %+v", fx)
	}

	duty, err := doc.Rates.DutyRates(ctx, types.CountryUK, "420231")
	if err != nil {
		t.Fatalf("duty rates: %v", err)
	}
	if len(duty) != 1 || !duty[0].RatePercent.Equal(dec("0.035")) || duty[0].EffectiveTo != nil {
		t.Errorf("duty mismatch: %+v", duty)
	}

	vat, err := doc.Rates.VatRates(ctx, types.CountryUK, types.VatBaseCIFPlusDuty)
	if err != nil {
		t.Fatalf("vat rates: %v", err)
	}
	if len(vat) != 1 || vat[0].ID != "vat-uk" {
		t.Errorf("vat mismatch: %+v", vat)
	}

	fees, err := doc.Rates.Fees(ctx, types.CountryUK)
	if err != nil {
		t.Fatalf("fees: %v", err)
	}
	if len(fees) != 1 || fees[0].Method != types.FeeFixed || !fees[0].Value.Equal(dec("15")) {
		t.Errorf("fee mismatch: %+v", fees)
	}
}

func TestParseWithoutInlineRates(t *testing.T) {
	src := `
run {
  destination  = "US"
  fx_date      = "latest"
  margin_mode  = "MARKUP"
  margin_value = 0.5

  freight {
    type  = "FIXED"
    value = 2
  }
  insurance {
    type  = "FIXED"
    value = 0.5
  }
}

product "P-1" {
  hs_code   = "420310"
  weight_kg = 1.2
}

item {
  sku                = "P-1"
  purchase_price_pkr = 5000
  units              = 10
}
`
	doc, err := Parse([]byte(src), "run.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Rates != nil {
		t.Error("a file without rate blocks must leave Rates nil")
	}
	if doc.Config.Incoterm != "CIF" {
		t.Errorf("incoterm must default to CIF, got %q", doc.Config.Incoterm)
	}
	if doc.Config.FxDate != types.FxDateLatest {
		t.Errorf("fx_date mismatch: %q", doc.Config.FxDate)
	}
}

func TestParseFeeOverride(t *testing.T) {
	src := `
run {
  destination  = "UK"
  fx_date      = "latest"
  margin_mode  = "MARGIN"
  margin_value = 0.2

  freight {
    type  = "FIXED"
    value = 1
  }
  insurance {
    type  = "FIXED"
    value = 0
  }

  fee_override "UK" {
    fee {
      name   = "Flat Clearance"
      method = "FIXED"
      value  = 10
    }
  }

  fee_override "EU" {
  }
}

product "P-1" {
  hs_code   = "420231"
  weight_kg = 0.3
}

item {
  sku                = "P-1"
  purchase_price_pkr = 1000
  units              = 1
}
`
	doc, err := Parse([]byte(src), "run.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uk := doc.Config.FeeOverrides[types.CountryUK]
	if len(uk) != 1 || uk[0].Name != "Flat Clearance" || !uk[0].Value.Equal(dec("10")) {
		t.Errorf("UK override mismatch: %+v", uk)
	}

	eu, ok := doc.Config.FeeOverrides[types.CountryEU]
	if !ok || len(eu) != 0 {
		t.Errorf("empty EU override must be present and empty: %+v ok=%v", eu, ok)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing run block": `
product "P-1" {
  hs_code   = "1"
  weight_kg = 1
}`,
		"unknown product reference": `
run {
  destination  = "UK"
  fx_date      = "latest"
  margin_mode  = "MARGIN"
  margin_value = 0.2
  freight {
    type  = "FIXED"
    value = 0
  }
  insurance {
    type  = "FIXED"
    value = 0
  }
}
item {
  sku                = "NOPE"
  purchase_price_pkr = 1
  units              = 1
}`,
		"fractional units": `
run {
  destination  = "UK"
  fx_date      = "latest"
  margin_mode  = "MARGIN"
  margin_value = 0.2
  freight {
    type  = "FIXED"
    value = 0
  }
  insurance {
    type  = "FIXED"
    value = 0
  }
}
product "P-1" {
  hs_code   = "1"
  weight_kg = 1
}
item {
  sku                = "P-1"
  purchase_price_pkr = 1
  units              = 1.5
}`,
		"malformed syntax": `run { destination = `,
	}

	for name, src := range cases {
		if _, err := Parse([]byte(src), "run.hcl"); !errors.IsType(err, errors.TypeConfig) {
			t.Errorf("%s: expected CONFIG_ERROR, got %v", name, err)
		}
	}
}
