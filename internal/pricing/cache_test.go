package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"shekelfolio/internal/models"
	"shekelfolio/internal/testutil"
)

type countingQuotes struct {
	calls int
	quote Quote
	err   error
}

func (c *countingQuotes) Quote(_ context.Context, _ models.Asset) (Quote, error) {
	c.calls++
	if c.err != nil {
		return Quote{}, c.err
	}
	return c.quote, nil
}

func TestQuoteCache_ServesFreshFromCache(t *testing.T) {
	inner := &countingQuotes{quote: Quote{Price: 100, Change24h: 1.5}}
	cache := NewQuoteCache(inner, time.Minute)

	for i := 0; i < 3; i++ {
		quote, err := cache.Quote(context.Background(), models.AssetBTC)
		testutil.AssertNoError(t, err)
		if quote.Price != 100 {
			t.Fatalf("expected price 100, got %f", quote.Price)
		}
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", inner.calls)
	}
}

func TestQuoteCache_RefetchesAfterTTL(t *testing.T) {
	inner := &countingQuotes{quote: Quote{Price: 100}}
	cache := NewQuoteCache(inner, time.Minute)

	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	_, _ = cache.Quote(context.Background(), models.AssetBTC)
	current = current.Add(2 * time.Minute)
	_, _ = cache.Quote(context.Background(), models.AssetBTC)

	if inner.calls != 2 {
		t.Errorf("expected refetch after TTL expiry, got %d calls", inner.calls)
	}
}

func TestQuoteCache_PerAssetEntries(t *testing.T) {
	inner := &countingQuotes{quote: Quote{Price: 100}}
	cache := NewQuoteCache(inner, time.Minute)

	_, _ = cache.Quote(context.Background(), models.AssetBTC)
	_, _ = cache.Quote(context.Background(), models.AssetETH)
	_, _ = cache.Quote(context.Background(), models.AssetBTC)

	if inner.calls != 2 {
		t.Errorf("expected 2 upstream fetches for 2 assets, got %d", inner.calls)
	}
}

func TestQuoteCache_ErrorsNotCached(t *testing.T) {
	inner := &countingQuotes{err: errors.New("venue down")}
	cache := NewQuoteCache(inner, time.Minute)

	_, err := cache.Quote(context.Background(), models.AssetBTC)
	if err == nil {
		t.Fatal("expected error")
	}

	inner.err = nil
	inner.quote = Quote{Price: 42}
	quote, err := cache.Quote(context.Background(), models.AssetBTC)
	testutil.AssertNoError(t, err)
	if quote.Price != 42 {
		t.Errorf("expected recovery after upstream error, got price %f", quote.Price)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 upstream fetches, got %d", inner.calls)
	}
}
