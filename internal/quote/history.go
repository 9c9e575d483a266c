package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

var EmptySeriesError = errors.New("empty price series")

type ChartProvider interface {
	Chart(ctx context.Context, symbol string, interval model.ChartInterval, from, to time.Time) ([]model.PricePoint, error)
}

// _candidates maps a requested interval to the ordered intervals actually
// tried. Only the fine-grained default gets a coarse daily fallback;
// any other interval is tried exactly once.
var _candidates = map[model.ChartInterval][]model.ChartInterval{
	model.FiveMinutes: {model.FiveMinutes, model.OneDay},
}

// History retrieves a sampled price series over the trailing periodDays.
type History struct {
	provider ChartProvider
	logger   logger.Logger

	now func() time.Time
}

func NewHistory(provider ChartProvider, logger logger.Logger) *History {
	return &History{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *History) Get(ctx context.Context, symbol string, interval model.ChartInterval, periodDays int) ([]model.PricePoint, error) {
	if periodDays <= 0 {
		return nil, fmt.Errorf("%w: period must be positive", model.ValidationError)
	}
	sym := normalize(symbol)

	to := h.now()
	from := to.Add(-time.Duration(periodDays) * 24 * time.Hour)

	intervals, ok := _candidates[interval]
	if !ok {
		intervals = []model.ChartInterval{interval}
	}

	var lastErr error
	for i, iv := range intervals {
		points, err := h.provider.Chart(ctx, sym, iv, from, to)
		if err == nil && len(points) > 0 {
			return points, nil
		}

		lastErr = err
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: %s at interval %s", EmptySeriesError, sym, iv)
		}
		if i < len(intervals)-1 {
			h.logger.Warnf("%s: chart fetch failed for %s, falling back to %s", lastErr, sym, intervals[i+1])
		}
	}

	return nil, lastErr
}
