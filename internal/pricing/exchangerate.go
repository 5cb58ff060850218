package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "shekelfolio/internal/errors"
)

const exchangeRateBaseURL = "https://open.er-api.com"

// exchangeRateResponse is the open.er-api.com response; only the ILS rate
// is consumed.
type exchangeRateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// ExchangeRateAPI fetches the current USD→ILS conversion rate from
// open.er-api.com. The rate is a single global value: callers apply it
// uniformly to every historical day. That is a known approximation — there
// is deliberately no historical FX series.
type ExchangeRateAPI struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewExchangeRateAPI creates a new USD→ILS rate provider.
func NewExchangeRateAPI(httpClient *http.Client, baseURL string) *ExchangeRateAPI {
	if baseURL == "" {
		baseURL = exchangeRateBaseURL
	}
	return &ExchangeRateAPI{httpClient: httpClient, baseURL: baseURL}
}

// Rate fetches the current units-of-ILS-per-USD rate.
func (p *ExchangeRateAPI) Rate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v6/latest/USD", nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("building rate request: %w", err))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("rate request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("rate request: unexpected status %d", resp.StatusCode))
	}

	var rates exchangeRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("decoding rate response: %w", err))
	}

	rate, ok := rates.Rates["ILS"]
	if !ok {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("ILS rate not found in response"))
	}
	if rate <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("invalid ILS rate: %f", rate))
	}

	return rate, nil
}
