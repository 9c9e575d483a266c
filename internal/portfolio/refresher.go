package portfolio

import (
	"context"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/logger"
)

// Refresher sweeps every distinct held symbol and writes the latest
// quoted price back onto the holdings. A failing symbol is logged and
// skipped, never aborting the sweep; the quote cache's TTL bounds how
// often the provider actually gets hit.
type Refresher struct {
	store  Store
	quotes QuoteGetter
	logger logger.Logger
}

func NewRefresher(store Store, quotes QuoteGetter, logger logger.Logger) *Refresher {
	return &Refresher{
		store:  store,
		quotes: quotes,
		logger: logger,
	}
}

func (r *Refresher) RefreshAll(ctx context.Context) error {
	symbols, err := r.store.HeldSymbols(ctx)
	if err != nil {
		return err
	}

	var updated int
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		q, err := r.quotes.Get(ctx, symbol)
		if err != nil {
			r.logger.Warnf("%s: skipping price refresh for %s", err, symbol)
			continue
		}
		if q.Price <= 0 {
			r.logger.Warnf("skipping price refresh for %s: non-positive price %f", symbol, q.Price)
			continue
		}

		if err := r.store.UpdateCurrentPrice(ctx, symbol, q.Price); err != nil {
			r.logger.Warnf("%s: can't write back price for %s", err, symbol)
			continue
		}
		updated++
	}

	r.logger.Infof("price refresh done: %d/%d symbols updated", updated, len(symbols))
	return nil
}

func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if err := r.RefreshAll(ctx); err != nil {
				r.logger.Errorf("%s: error refreshing prices", err)
			}
		}
	}
}
