package services

import (
	"context"
	"math"
	"sync"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
	"shekelfolio/internal/pricing"
	"shekelfolio/internal/valuation"
)

// portfolioService derives portfolio views from the transaction log:
// current holdings priced with live quotes, and the historical value series
// computed by the valuation engine.
type portfolioService struct {
	transactions TransactionServicer
	engine       *valuation.Engine
	quotes       pricing.QuoteProvider
	rates        pricing.RateProvider
	now          func() time.Time
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(
	transactions TransactionServicer,
	engine *valuation.Engine,
	quotes pricing.QuoteProvider,
	rates pricing.RateProvider,
) PortfolioServicer {
	return &portfolioService{
		transactions: transactions,
		engine:       engine,
		quotes:       quotes,
		rates:        rates,
		now:          time.Now,
	}
}

// Holdings returns the user's current positions with live pricing. Quote
// fetches for distinct assets fan out in parallel; any failure fails the
// whole read — a partially priced portfolio is worse than a retry.
func (s *portfolioService) Holdings(ctx context.Context, userID string) ([]AssetHolding, error) {
	txs, err := s.transactions.ListAllTransactions(userID)
	if err != nil {
		return nil, err
	}

	held := valuation.CurrentHoldings(txs, s.now())
	if len(held) == 0 {
		return []AssetHolding{}, nil
	}

	needsRate := false
	for _, h := range held {
		if !h.Asset.FixedILS() {
			needsRate = true
			break
		}
	}

	quotes := make([]pricing.Quote, len(held))
	quoteErrs := make([]error, len(held))
	var rate float64
	var rateErr error

	var wg sync.WaitGroup
	for i, h := range held {
		wg.Add(1)
		go func(i int, asset models.Asset) {
			defer wg.Done()
			quotes[i], quoteErrs[i] = s.quotes.Quote(ctx, asset)
		}(i, h.Asset)
	}
	if needsRate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, rateErr = s.rates.Rate(ctx)
		}()
	}
	wg.Wait()

	for _, err := range quoteErrs {
		if err != nil {
			return nil, err
		}
	}
	if rateErr != nil {
		return nil, rateErr
	}

	avgCosts := averageBuyCosts(txs)

	holdings := make([]AssetHolding, 0, len(held))
	for i, h := range held {
		quote := quotes[i]

		var priceILS, valueILS float64
		if h.Asset.FixedILS() {
			priceILS = quote.Price
			valueILS = h.Quantity * quote.Price
		} else {
			priceILS = math.Round(quote.Price * rate)
			valueILS = h.Quantity * quote.Price * rate
		}

		holdings = append(holdings, AssetHolding{
			Asset:           h.Asset,
			DisplayName:     models.AssetDisplayNames[h.Asset],
			Quantity:        h.Quantity,
			AvgCostILS:      avgCosts[h.Asset],
			CurrentPriceILS: priceILS,
			ValueILS:        int64(math.Round(valueILS)),
			Change24h:       quote.Change24h,
		})
	}

	return holdings, nil
}

// History returns the historical value series for the user's portfolio.
func (s *portfolioService) History(ctx context.Context, userID string) ([]valuation.ValuePoint, error) {
	txs, err := s.transactions.ListAllTransactions(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValuationFailed, err)
	}
	return s.engine.Series(ctx, txs)
}

// averageBuyCosts computes each asset's volume-weighted average cost in ILS
// per unit, over buy transactions only.
func averageBuyCosts(txs []models.Transaction) map[models.Asset]float64 {
	totalILS := make(map[models.Asset]float64)
	totalQty := make(map[models.Asset]float64)
	for _, tx := range txs {
		if tx.Type != models.TransactionTypeBuy {
			continue
		}
		totalILS[tx.Asset] += tx.TotalILS
		totalQty[tx.Asset] += tx.Quantity
	}

	avg := make(map[models.Asset]float64, len(totalQty))
	for asset, qty := range totalQty {
		if qty > 0 {
			avg[asset] = math.Round(totalILS[asset]/qty*100) / 100
		}
	}
	return avg
}
