package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
)

const (
	finnhubBaseURL = "https://finnhub.io/api/v1"

	// Assumed constant annual growth used to extrapolate the ETF's history
	// backwards from a single current quote.
	spyAnnualGrowthRate = 0.10

	// Daily pseudorandom variation applied to extrapolated prices, ±0.5%.
	spyDailyJitter = 0.01
)

// finnhubQuote is the Finnhub /quote response. c is the current price,
// dp the daily change percentage.
type finnhubQuote struct {
	Current   float64 `json:"c"`
	ChangePct float64 `json:"dp"`
}

// FinnhubSource prices the SPY ETF. Current quotes come from the Finnhub
// quote endpoint; historical series are synthesized by extrapolating the
// current quote backwards at an assumed constant annual growth rate with a
// small jitter term for realism. The synthesis is deterministic apart from
// the explicitly-scoped jitter source and produces one value per calendar
// day with no gaps.
type FinnhubSource struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewFinnhubSource creates a new Finnhub-backed source for the SPY ETF.
func NewFinnhubSource(httpClient *http.Client, baseURL, apiKey string) *FinnhubSource {
	if baseURL == "" {
		baseURL = finnhubBaseURL
	}
	return &FinnhubSource{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Name returns the source's display name.
func (s *FinnhubSource) Name() string { return "Finnhub" }

// Supports returns true for the SPY ETF only.
func (s *FinnhubSource) Supports(asset models.Asset) bool {
	return asset == models.AssetSPY
}

// Quote fetches the current SPY price from the Finnhub quote endpoint.
func (s *FinnhubSource) Quote(ctx context.Context, asset models.Asset) (Quote, error) {
	if !s.Supports(asset) {
		return Quote{}, apperrors.WithMessage(apperrors.ErrDataUnavailable, "Finnhub does not price asset "+string(asset))
	}

	url := fmt.Sprintf("%s/quote?symbol=%s&token=%s", s.baseURL, asset, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("building quote request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("quote request for %s: %w", asset, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("quote request for %s: unexpected status %d", asset, resp.StatusCode))
	}

	var quote finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("decoding quote for %s: %w", asset, err))
	}

	if quote.Current <= 0 {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("no price data for %s", asset))
	}

	return Quote{Price: quote.Current, Change24h: quote.ChangePct}, nil
}

// History synthesizes a days-length backward-extrapolated price series seeded
// by the current quote: going back one year, the price was ~10% lower.
func (s *FinnhubSource) History(ctx context.Context, asset models.Asset, days int) ([]PricePoint, error) {
	quote, err := s.Quote(ctx, asset)
	if err != nil {
		return nil, err
	}

	today := dateOnly(s.now())
	points := make([]PricePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		yearsAgo := float64(i) / 365
		price := quote.Price / math.Pow(1+spyAnnualGrowthRate, yearsAgo)
		price *= 1 + (s.jitter()-0.5)*spyDailyJitter
		points = append(points, PricePoint{
			Date:  today.AddDate(0, 0, -i),
			Price: math.Round(price*100) / 100,
		})
	}

	return points, nil
}

// jitter draws from the source's rand. rand.Rand is not safe for concurrent
// use; history fetches for distinct assets run in parallel.
func (s *FinnhubSource) jitter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
