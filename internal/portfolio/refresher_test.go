package portfolio

import (
	"context"
	"testing"

	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

func seedHoldings(t *testing.T, store *MemoryStore, prices map[string]float64) string {
	t.Helper()
	p, err := store.CreatePortfolio(context.Background(), "acct-1", 100000)
	if err != nil {
		t.Fatalf("can't create portfolio: %s", err)
	}

	e := NewExecutor(store, &fakeQuotes{prices: prices}, logger.Nop{})
	for symbol := range prices {
		if _, err := e.Execute(context.Background(), TradeRequest{AccountID: "acct-1", Symbol: symbol, Shares: 1, Side: model.Buy}); err != nil {
			t.Fatalf("can't seed holding %s: %s", symbol, err)
		}
	}
	return p.ID
}

func TestRefreshAllWritesBackPrices(t *testing.T) {
	store := NewMemoryStore()
	portfolioID := seedHoldings(t, store, map[string]float64{"AAPL": 100, "MSFT": 200})

	r := NewRefresher(store, &fakeQuotes{prices: map[string]float64{"AAPL": 111, "MSFT": 222}}, logger.Nop{})
	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	holdings, _ := store.Holdings(context.Background(), portfolioID)
	for _, h := range holdings {
		switch h.Symbol {
		case "AAPL":
			if h.CurrentPrice != 111 {
				t.Fatalf("expected AAPL at 111, got %f", h.CurrentPrice)
			}
		case "MSFT":
			if h.CurrentPrice != 222 {
				t.Fatalf("expected MSFT at 222, got %f", h.CurrentPrice)
			}
		}
	}
}

func TestRefreshAllSkipsFailingSymbol(t *testing.T) {
	store := NewMemoryStore()
	portfolioID := seedHoldings(t, store, map[string]float64{"AAPL": 100, "MSFT": 200})

	// Only MSFT has a quote; AAPL fails and must not abort the sweep.
	r := NewRefresher(store, &fakeQuotes{prices: map[string]float64{"MSFT": 222}}, logger.Nop{})
	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("per-symbol failure must not fail the sweep: %s", err)
	}

	holdings, _ := store.Holdings(context.Background(), portfolioID)
	for _, h := range holdings {
		switch h.Symbol {
		case "AAPL":
			if h.CurrentPrice != 100 {
				t.Fatalf("failed symbol must keep its old price, got %f", h.CurrentPrice)
			}
		case "MSFT":
			if h.CurrentPrice != 222 {
				t.Fatalf("expected MSFT at 222, got %f", h.CurrentPrice)
			}
		}
	}
}

func TestRefreshAllHonorsCancellation(t *testing.T) {
	store := NewMemoryStore()
	seedHoldings(t, store, map[string]float64{"AAPL": 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRefresher(store, &fakeQuotes{prices: map[string]float64{"AAPL": 111}}, logger.Nop{})
	if err := r.RefreshAll(ctx); err == nil {
		t.Fatal("expected context error from canceled sweep")
	}
}
