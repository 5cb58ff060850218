package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
)

const binanceBaseURL = "https://api.binance.com"

// binanceSymbols maps crypto assets to Binance trading pairs.
var binanceSymbols = map[models.Asset]string{
	models.AssetBTC: "BTCUSDT",
	models.AssetETH: "ETHUSDT",
}

// BinanceSource fetches crypto prices from Binance: daily close candles for
// history, the 24hr ticker for current quotes. Prices are in USD(T).
type BinanceSource struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewBinanceSource creates a new Binance price source.
func NewBinanceSource(httpClient *http.Client, baseURL string) *BinanceSource {
	if baseURL == "" {
		baseURL = binanceBaseURL
	}
	return &BinanceSource{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the source's display name.
func (s *BinanceSource) Name() string { return "Binance" }

// Supports returns true for crypto assets with a known trading pair.
func (s *BinanceSource) Supports(asset models.Asset) bool {
	_, ok := binanceSymbols[asset]
	return ok
}

// History fetches days daily close prices from the Binance klines endpoint.
// A venue response covering less than the full window (e.g. a listing newer
// than the window) is an error, never padded.
func (s *BinanceSource) History(ctx context.Context, asset models.Asset, days int) ([]PricePoint, error) {
	symbol, ok := binanceSymbols[asset]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "no Binance pair for asset "+string(asset))
	}

	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&limit=%d", s.baseURL, symbol, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("building klines request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("klines request for %s: %w", symbol, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("klines request for %s: unexpected status %d", symbol, resp.StatusCode))
	}

	// Kline rows are heterogeneous arrays:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("decoding klines for %s: %w", symbol, err))
	}

	if len(rows) < days {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable,
			fmt.Errorf("%s has %d daily candles, need %d", symbol, len(rows), days))
	}

	points := make([]PricePoint, 0, days)
	for _, row := range rows {
		if len(row) < 5 {
			return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("malformed kline row for %s", symbol))
		}
		openTime, ok := row[0].(float64)
		if !ok {
			return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("malformed kline timestamp for %s", symbol))
		}
		closeStr, ok := row[4].(string)
		if !ok {
			return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("malformed kline close for %s", symbol))
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("parsing kline close for %s: %w", symbol, err))
		}
		points = append(points, PricePoint{
			Date:  dateOnly(time.UnixMilli(int64(openTime))),
			Price: price,
		})
	}

	return points, nil
}

// binanceTicker is the 24hr ticker response.
type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Quote fetches the current price and 24h change from the Binance 24hr ticker.
func (s *BinanceSource) Quote(ctx context.Context, asset models.Asset) (Quote, error) {
	symbol, ok := binanceSymbols[asset]
	if !ok {
		return Quote{}, apperrors.WithMessage(apperrors.ErrDataUnavailable, "no Binance pair for asset "+string(asset))
	}

	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", s.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("building ticker request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("ticker request for %s: %w", symbol, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("ticker request for %s: unexpected status %d", symbol, resp.StatusCode))
	}

	var ticker binanceTicker
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("decoding ticker for %s: %w", symbol, err))
	}

	if ticker.LastPrice == "" {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("no price data for %s", symbol))
	}

	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrDataUnavailable, fmt.Errorf("parsing ticker price for %s: %w", symbol, err))
	}

	// Binance omits or zeroes the change field for thin markets; treat a
	// parse failure as zero change rather than a failed quote.
	change, err := strconv.ParseFloat(ticker.PriceChangePercent, 64)
	if err != nil {
		change = 0
	}

	return Quote{Price: price, Change24h: change}, nil
}
