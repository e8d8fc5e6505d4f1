// Package fx fetches PKR conversion factors from the exchangerate-api.com
// feed and keeps the stored FX records fresh.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

// DefaultBaseURL is the exchangerate-api.com v6 endpoint
const DefaultBaseURL = "https://v6.exchangerate-api.com/v6"

const requestTimeout = 10 * time.Second

// Client calls the exchangerate-api.com feed
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a feed client. An empty baseURL selects the public
// endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type latestResponse struct {
	Result             string                     `json:"result"`
	ErrorType          string                     `json:"error-type"`
	TimeLastUpdateUnix int64                      `json:"time_last_update_unix"`
	ConversionRates    map[string]decimal.Decimal `json:"conversion_rates"`
}

// Latest fetches the current PKR conversion factors. The returned record
// carries no ID; the store assigns one on insert.
func (c *Client) Latest(ctx context.Context) (*types.FxRate, error) {
	url := fmt.Sprintf("%s/%s/latest/PKR", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Network("build fx feed request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Network("call fx feed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Network(fmt.Sprintf("fx feed returned %s", resp.Status), nil)
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Network("decode fx feed response", err)
	}
	if payload.Result != "success" {
		return nil, errors.Network(fmt.Sprintf("fx feed error: %s", payload.ErrorType), nil)
	}

	rec := &types.FxRate{
		AsOfDate: time.Unix(payload.TimeLastUpdateUnix, 0).UTC().Truncate(24 * time.Hour),
	}
	for currency, dst := range map[string]*decimal.Decimal{
		"GBP": &rec.PkrToGbp,
		"USD": &rec.PkrToUsd,
		"EUR": &rec.PkrToEur,
	} {
		factor, ok := payload.ConversionRates[currency]
		if !ok {
			return nil, errors.Network(fmt.Sprintf("fx feed missing %s rate", currency), nil)
		}
		*dst = factor
	}
	return rec, nil
}
