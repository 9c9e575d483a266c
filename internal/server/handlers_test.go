package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"github.com/ryanrahman1/edutrade-backend/internal/portfolio"
	"github.com/ryanrahman1/edutrade-backend/internal/quote"
)

type stubQuotes struct {
	price float64
}

func (s stubQuotes) Get(context.Context, string) (model.Quote, error) {
	return model.Quote{Price: s.price}, nil
}

func newTestRouter(t *testing.T) (*http.ServeMux, *portfolio.MemoryStore) {
	t.Helper()
	store := portfolio.NewMemoryStore()
	if _, err := store.CreatePortfolio(context.Background(), "acct-1", 1000); err != nil {
		t.Fatalf("can't create portfolio: %s", err)
	}

	quotes := stubQuotes{price: 100}
	h := NewHandler(
		portfolio.NewExecutor(store, quotes, logger.Nop{}),
		portfolio.NewValuator(store),
		portfolio.NewRefresher(store, quotes, logger.Nop{}),
		store,
		nil,
		nil,
		1000,
		logger.Nop{},
	)
	return h.Router(), store
}

func TestTradeEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	body := `{"account_id":"acct-1","symbol":"aapl","shares":2,"side":"buy"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transaction model.Transaction `json:"transaction"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("can't decode response: %s", err)
	}
	if resp.Transaction.Side != model.Buy || resp.Transaction.TotalAmount != 200 {
		t.Fatalf("unexpected transaction: %+v", resp.Transaction)
	}

	p, _ := store.PortfolioByAccount(context.Background(), "acct-1")
	if p.CashBalance != 800 {
		t.Fatalf("expected cash 800, got %f", p.CashBalance)
	}
}

func TestTradeEndpointRejectsBadSide(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"account_id":"acct-1","symbol":"AAPL","shares":1,"side":"hold"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTradeEndpointConflictOnInsufficientFunds(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"account_id":"acct-1","symbol":"AAPL","shares":100,"side":"buy"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?account=acct-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?account=nobody", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ValidationError, http.StatusBadRequest},
		{model.InvalidSideError, http.StatusBadRequest},
		{model.InvalidPriceError, http.StatusBadRequest},
		{model.PortfolioNotFoundError, http.StatusNotFound},
		{model.InsufficientFundsError, http.StatusConflict},
		{model.InsufficientSharesError, http.StatusConflict},
		{model.ProviderTimeoutError, http.StatusGatewayTimeout},
		{model.ProviderUnavailableError, http.StatusBadGateway},
		{quote.EmptySeriesError, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusFor(fmt.Errorf("%w: wrapped", c.err)); got != c.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
