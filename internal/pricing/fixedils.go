package pricing

import (
	"context"
	"time"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
)

// FixedILSSource prices the fixed-ILS asset class: every unit is worth
// exactly 1 ILS on every day. Series are synthesized locally, no network
// call is ever made, and the FX rate is never involved.
type FixedILSSource struct {
	now func() time.Time
}

// NewFixedILSSource creates a source for fixed-ILS assets.
func NewFixedILSSource() *FixedILSSource {
	return &FixedILSSource{now: time.Now}
}

// Name returns the source's display name.
func (s *FixedILSSource) Name() string { return "Fixed ILS" }

// Supports returns true for fixed-ILS assets.
func (s *FixedILSSource) Supports(asset models.Asset) bool {
	return asset.FixedILS()
}

// History synthesizes days consecutive points ending today, each priced 1 ILS.
func (s *FixedILSSource) History(_ context.Context, asset models.Asset, days int) ([]PricePoint, error) {
	if !s.Supports(asset) {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "asset "+string(asset)+" is not fixed-ILS")
	}

	today := dateOnly(s.now())
	points := make([]PricePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		points = append(points, PricePoint{Date: today.AddDate(0, 0, -i), Price: 1})
	}
	return points, nil
}

// Quote returns the fixed unit price with zero change.
func (s *FixedILSSource) Quote(_ context.Context, asset models.Asset) (Quote, error) {
	if !s.Supports(asset) {
		return Quote{}, apperrors.WithMessage(apperrors.ErrDataUnavailable, "asset "+string(asset)+" is not fixed-ILS")
	}
	return Quote{Price: 1, Change24h: 0}, nil
}
