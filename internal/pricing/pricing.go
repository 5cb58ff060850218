// Package pricing implements the external price and FX collaborators: daily
// price history per asset, current quotes, and the USD→ILS conversion rate.
package pricing

import (
	"context"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
)

// PricePoint is a single daily price for an asset. Prices for market assets
// are denominated in USD; fixed-ILS assets are denominated in ILS.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Quote is a current price for an asset in its native denomination,
// plus the 24h change percentage where the venue reports one.
type Quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
}

// Source fetches prices for the subset of assets it supports.
type Source interface {
	// Name returns the source's display name (e.g. "Binance", "Finnhub").
	Name() string

	// Supports returns true if this source can price the given asset.
	Supports(asset models.Asset) bool

	// History returns exactly days daily price points, date-ascending, one
	// per calendar day ending today. A source that cannot cover the full
	// window fails with ErrDataUnavailable rather than padding with guesses.
	History(ctx context.Context, asset models.Asset, days int) ([]PricePoint, error)

	// Quote returns the current price for the asset.
	Quote(ctx context.Context, asset models.Asset) (Quote, error)
}

// HistoryProvider is the price-history contract consumed by the valuation engine.
type HistoryProvider interface {
	History(ctx context.Context, asset models.Asset, days int) ([]PricePoint, error)
}

// QuoteProvider is the current-quote contract consumed by the portfolio service.
type QuoteProvider interface {
	Quote(ctx context.Context, asset models.Asset) (Quote, error)
}

// RateProvider returns the current units-of-ILS-per-USD conversion rate.
type RateProvider interface {
	Rate(ctx context.Context) (float64, error)
}

// Router dispatches each asset to the first source that supports it.
type Router struct {
	sources []Source
}

// NewRouter creates a Router over the given sources. Order matters: the first
// source that supports an asset wins.
func NewRouter(sources ...Source) *Router {
	return &Router{sources: sources}
}

// History fetches a daily price series for the asset from its source.
func (r *Router) History(ctx context.Context, asset models.Asset, days int) ([]PricePoint, error) {
	src, err := r.sourceFor(asset)
	if err != nil {
		return nil, err
	}
	return src.History(ctx, asset, days)
}

// Quote fetches the current price for the asset from its source.
func (r *Router) Quote(ctx context.Context, asset models.Asset) (Quote, error) {
	src, err := r.sourceFor(asset)
	if err != nil {
		return Quote{}, err
	}
	return src.Quote(ctx, asset)
}

func (r *Router) sourceFor(asset models.Asset) (Source, error) {
	for _, src := range r.sources {
		if src.Supports(asset) {
			return src, nil
		}
	}
	return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "no price source for asset "+string(asset))
}

// dateOnly truncates a time to its UTC calendar day.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
