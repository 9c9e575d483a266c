package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"github.com/ryanrahman1/edutrade-backend/internal/portfolio"
	"github.com/ryanrahman1/edutrade-backend/internal/quote"
)

// Handler exposes the trading core over HTTP. Routing stays thin: parse,
// call the service, map the error kind to a status code.
type Handler struct {
	executor  *portfolio.Executor
	valuator  *portfolio.Valuator
	refresher *portfolio.Refresher
	store     portfolio.Store
	cache     *quote.Cache
	history   *quote.History

	startingCash float64
	logger       logger.Logger
}

func NewHandler(
	executor *portfolio.Executor,
	valuator *portfolio.Valuator,
	refresher *portfolio.Refresher,
	store portfolio.Store,
	cache *quote.Cache,
	history *quote.History,
	startingCash float64,
	logger logger.Logger,
) *Handler {
	return &Handler{
		executor:     executor,
		valuator:     valuator,
		refresher:    refresher,
		store:        store,
		cache:        cache,
		history:      history,
		startingCash: startingCash,
		logger:       logger,
	}
}

func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/trade", h.trade)
	mux.HandleFunc("GET /api/quote/{symbol}", h.quote)
	mux.HandleFunc("GET /api/quotes", h.quotes)
	mux.HandleFunc("GET /api/historical/{symbol}", h.historical)

	mux.HandleFunc("POST /api/portfolio", h.createPortfolio)
	mux.HandleFunc("DELETE /api/portfolio/{id}", h.deletePortfolio)
	mux.HandleFunc("GET /api/portfolio", h.portfolio)
	mux.HandleFunc("GET /api/holdings", h.holdings)
	mux.HandleFunc("GET /api/transactions", h.transactions)
	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("POST /api/update", h.update)

	return mux
}

type tradeRequest struct {
	AccountID string  `json:"account_id"`
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	Side      string  `json:"side"`
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decode(r.Body, &req); err != nil {
		h.writeError(w, err)
		return
	}

	side, err := model.ParseTradeSide(req.Side)
	if err != nil {
		h.writeError(w, err)
		return
	}

	txn, err := h.executor.Execute(r.Context(), portfolio.TradeRequest{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Shares:    req.Shares,
		Side:      side,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"transaction": txn})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.cache.Get(r.Context(), r.PathValue("symbol"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

func (h *Handler) quotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	symbols := strings.Split(raw, ",")
	if raw == "" || len(symbols) == 0 {
		h.writeError(w, fmt.Errorf("%w: no symbols provided", model.ValidationError))
		return
	}

	quotes, err := h.cache.GetMany(r.Context(), symbols)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quotes)
}

func (h *Handler) historical(w http.ResponseWriter, r *http.Request) {
	interval := model.ChartInterval(r.URL.Query().Get("interval"))
	if interval == "" {
		interval = model.FiveMinutes
	}

	periodDays := 1
	if raw := r.URL.Query().Get("periodDays"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: bad periodDays", model.ValidationError))
			return
		}
		periodDays = v
	}

	points, err := h.history.Get(r.Context(), r.PathValue("symbol"), interval, periodDays)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

type createPortfolioRequest struct {
	AccountID string `json:"account_id"`
}

func (h *Handler) createPortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := decode(r.Body, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.AccountID == "" {
		h.writeError(w, fmt.Errorf("%w: missing account_id", model.ValidationError))
		return
	}

	p, err := h.store.CreatePortfolio(r.Context(), req.AccountID, h.startingCash)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"portfolio": p})
}

func (h *Handler) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePortfolio(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "portfolio deleted"})
}

func (h *Handler) portfolio(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		h.writeError(w, fmt.Errorf("%w: missing account", model.ValidationError))
		return
	}

	view, err := h.valuator.RevalueByAccount(r.Context(), account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"portfolio": view.Portfolio})
}

func (h *Handler) holdings(w http.ResponseWriter, r *http.Request) {
	portfolioID := r.URL.Query().Get("portfolioId")
	if portfolioID == "" {
		h.writeError(w, fmt.Errorf("%w: missing portfolioId", model.ValidationError))
		return
	}

	holdings, err := h.store.Holdings(r.Context(), portfolioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"holdings": holdings})
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	portfolioID := r.URL.Query().Get("portfolioId")
	if portfolioID == "" {
		h.writeError(w, fmt.Errorf("%w: missing portfolioId", model.ValidationError))
		return
	}

	transactions, err := h.store.Transactions(r.Context(), portfolioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		h.writeError(w, fmt.Errorf("%w: missing account", model.ValidationError))
		return
	}

	view, err := h.valuator.RevalueByAccount(r.Context(), account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshAll(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "holding prices updated"})
}

func decode(r io.Reader, v any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: can't read body", model.ValidationError)
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed json", model.ValidationError)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Errorf("%s: can't marshal response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		h.logger.Errorf("%s: can't write response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

// StatusFor maps the core error taxonomy to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ValidationError),
		errors.Is(err, model.InvalidSideError),
		errors.Is(err, model.InvalidPriceError):
		return http.StatusBadRequest
	case errors.Is(err, model.PortfolioNotFoundError),
		errors.Is(err, model.HoldingNotFoundError):
		return http.StatusNotFound
	case errors.Is(err, model.InsufficientFundsError),
		errors.Is(err, model.InsufficientSharesError):
		return http.StatusConflict
	case errors.Is(err, model.ProviderTimeoutError):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ProviderUnavailableError),
		errors.Is(err, model.PriceUnavailableError),
		errors.Is(err, quote.EmptySeriesError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
