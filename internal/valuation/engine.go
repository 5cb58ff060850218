// Package valuation reconstructs a portfolio's historical ILS value by
// replaying the transaction log against per-asset daily price series and a
// single USD→ILS rate.
package valuation

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
	"shekelfolio/internal/pricing"
)

const (
	// A brand-new portfolio still shows at least 30 days of history; old
	// portfolios are capped at 365 days to bound API cost and chart density.
	minWindowDays = 30
	maxWindowDays = 365
)

// ValuePoint is one day of reconstructed portfolio value. Date is a
// humanized short label ("Jan 5"); TotalILS is rounded to whole shekels.
type ValuePoint struct {
	Date     string `json:"date"`
	TotalILS int64  `json:"total_ils"`
}

// Holding is the net quantity of one asset at a point in time.
type Holding struct {
	Asset    models.Asset `json:"asset"`
	Quantity float64      `json:"quantity"`
}

// Engine computes historical portfolio value series. Its collaborators are
// injected at construction so it can be exercised against fake providers.
type Engine struct {
	history pricing.HistoryProvider
	rates   pricing.RateProvider
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine's clock.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a valuation engine over the given providers.
func NewEngine(history pricing.HistoryProvider, rates pricing.RateProvider, opts ...Option) *Engine {
	e := &Engine{history: history, rates: rates, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Series reconstructs the portfolio's daily ILS value over the valuation
// window. The input transaction list may be unordered; the engine sorts
// internally. An empty list yields an empty series with no provider calls.
//
// Any provider failure fails the whole computation — there is no partial
// result. The error wraps the first underlying failure as ErrValuationFailed.
func (e *Engine) Series(ctx context.Context, txs []models.Transaction) ([]ValuePoint, error) {
	if len(txs) == 0 {
		return []ValuePoint{}, nil
	}

	today := dayOf(e.now())

	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectiveDate(sorted[i], today).Before(effectiveDate(sorted[j], today))
	})

	days := windowDays(effectiveDate(sorted[0], today), today)
	assets := distinctAssets(sorted)

	// Fan out one history fetch per distinct asset plus the FX fetch; they
	// have no ordering dependency. Merge only after all complete.
	series := make([][]pricing.PricePoint, len(assets))
	fetchErrs := make([]error, len(assets))
	var rate float64
	var rateErr error

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset models.Asset) {
			defer wg.Done()
			series[i], fetchErrs[i] = e.history.History(ctx, asset, days)
		}(i, asset)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate, rateErr = e.rates.Rate(ctx)
	}()
	wg.Wait()

	for _, err := range fetchErrs {
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrValuationFailed, err)
		}
	}
	if rateErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrValuationFailed, rateErr)
	}

	// Exact-date lookup tables per asset. Lookups that miss contribute zero
	// for that date; there is no interpolation.
	prices := make(map[models.Asset]map[time.Time]float64, len(assets))
	for i, asset := range assets {
		byDate := make(map[time.Time]float64, len(series[i]))
		for _, pp := range series[i] {
			byDate[dayOf(pp.Date)] = pp.Price
		}
		prices[asset] = byDate
	}

	// The reported date axis is the first asset's series; all series are
	// expected to share the same calendar window.
	axis := series[0]

	points := make([]ValuePoint, 0, len(axis))
	for _, pp := range axis {
		d := dayOf(pp.Date)
		holdings := snapshotAt(sorted, d, today)

		// Two running totals, merged once per date. Rounding happens only
		// at the final per-date total, never per asset.
		var ilsTotal, usdTotal float64
		for _, asset := range assets {
			qty := holdings[asset]
			if qty <= 0 {
				// Inconsistent logs can drive a snapshot negative; such
				// holdings are excluded, never subtracted as negative value.
				continue
			}
			price, ok := prices[asset][d]
			if !ok {
				continue
			}
			if asset.FixedILS() {
				ilsTotal += qty * price
			} else {
				usdTotal += qty * price
			}
		}

		points = append(points, ValuePoint{
			Date:     d.Format("Jan 2"),
			TotalILS: int64(math.Round(ilsTotal + usdTotal*rate)),
		})
	}

	return points, nil
}

// SnapshotAt folds every transaction dated on or before d into per-asset net
// quantities. Quantities may be negative if the log is inconsistent; callers
// valuing a snapshot must treat non-positive quantities as zero holdings.
func SnapshotAt(txs []models.Transaction, d, today time.Time) map[models.Asset]float64 {
	return snapshotAt(txs, dayOf(d), dayOf(today))
}

// CurrentHoldings returns today's strictly-positive holdings in canonical
// asset order.
func CurrentHoldings(txs []models.Transaction, now time.Time) []Holding {
	today := dayOf(now)
	snapshot := snapshotAt(txs, today, today)

	holdings := make([]Holding, 0, len(snapshot))
	for _, asset := range models.Assets() {
		if qty := snapshot[asset]; qty > 0 {
			holdings = append(holdings, Holding{Asset: asset, Quantity: qty})
		}
	}
	return holdings
}

func snapshotAt(txs []models.Transaction, d, today time.Time) map[models.Asset]float64 {
	holdings := make(map[models.Asset]float64)
	for _, tx := range txs {
		if effectiveDate(tx, today).After(d) {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeBuy:
			holdings[tx.Asset] += tx.Quantity
		case models.TransactionTypeSell:
			holdings[tx.Asset] -= tx.Quantity
		}
	}
	return holdings
}

// effectiveDate resolves a transaction's date for valuation: the zero-value
// sentinel means "today", not an ancient date.
func effectiveDate(tx models.Transaction, today time.Time) time.Time {
	if tx.Date.IsZero() {
		return today
	}
	return dayOf(tx.Date)
}

// windowDays sizes the valuation window: enough days to cover the earliest
// transaction, clamped to [minWindowDays, maxWindowDays].
func windowDays(earliest, today time.Time) int {
	days := int(today.Sub(earliest).Hours()/24) + 1
	if days < minWindowDays {
		return minWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

// distinctAssets returns the assets appearing in txs in order of first
// appearance, giving a deterministic owner for the reference date axis.
func distinctAssets(txs []models.Transaction) []models.Asset {
	seen := make(map[models.Asset]bool)
	var assets []models.Asset
	for _, tx := range txs {
		if !seen[tx.Asset] {
			seen[tx.Asset] = true
			assets = append(assets, tx.Asset)
		}
	}
	return assets
}

// dayOf truncates a time to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
