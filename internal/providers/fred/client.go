// Package fred implements the rate provider gateway against a FRED-style
// observations API (series + observations endpoints, api_key query auth).
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// missingValue is the provider's placeholder for days without a published rate.
const missingValue = "."

// Client talks to the provider's HTTP API. All failures come back as
// classified apperrors.ProviderError values.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a provider client. baseURL points at the API root, e.g.
// https://api.stlouisfed.org/fred.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ ports.RateProvider = (*Client)(nil)

// ValidateSeriesExists reports whether the provider knows the series id.
func (c *Client) ValidateSeriesExists(ctx context.Context, providerSeriesID string) (bool, error) {
	const op = "validate_series"

	query := url.Values{}
	query.Set("series_id", providerSeriesID)
	query.Set("api_key", c.apiKey)
	query.Set("file_type", "json")

	resp, err := c.get(ctx, op, "/series", query)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// The API answers 400 for unknown series ids.
		return false, nil
	default:
		return false, apperrors.NewProviderHTTPError(op, resp.StatusCode)
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchObservations returns published (date, rate) pairs for a series, from
// since onward when given. Placeholder values for unpublished days are dropped.
func (c *Client) FetchObservations(ctx context.Context, providerSeriesID string, since *time.Time) (map[time.Time]decimal.Decimal, error) {
	const op = "fetch_observations"

	query := url.Values{}
	query.Set("series_id", providerSeriesID)
	query.Set("api_key", c.apiKey)
	query.Set("file_type", "json")
	if since != nil {
		query.Set("observation_start", since.Format(dateLayout))
	}

	resp, err := c.get(ctx, op, "/series/observations", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewProviderHTTPError(op, resp.StatusCode)
	}

	var payload observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewProviderError(apperrors.ProviderKindDecode, op, err)
	}

	observations := make(map[time.Time]decimal.Decimal, len(payload.Observations))
	for _, obs := range payload.Observations {
		if obs.Value == missingValue {
			continue
		}
		date, err := time.ParseInLocation(dateLayout, obs.Date, time.UTC)
		if err != nil {
			return nil, apperrors.NewProviderError(apperrors.ProviderKindDecode, op,
				fmt.Errorf("bad observation date %q: %w", obs.Date, err))
		}
		value, err := decimal.NewFromString(obs.Value)
		if err != nil {
			return nil, apperrors.NewProviderError(apperrors.ProviderKindDecode, op,
				fmt.Errorf("bad observation value %q on %s: %w", obs.Value, obs.Date, err))
		}
		observations[date] = value
	}
	return observations, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewProviderError(apperrors.ProviderKindTransport, op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError(apperrors.ProviderKindTransport, op, err)
	}
	return resp, nil
}
