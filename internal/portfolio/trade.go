package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"github.com/ryanrahman1/edutrade-backend/internal/tools"
)

type QuoteGetter interface {
	Get(ctx context.Context, symbol string) (model.Quote, error)
}

type TradeRequest struct {
	AccountID string
	Symbol    string
	Shares    float64
	Side      model.TradeSide
}

// Executor validates a trade, prices it through the quote cache and
// applies it to the store as one atomic commit.
type Executor struct {
	store  Store
	quotes QuoteGetter
	logger logger.Logger

	now func() time.Time
}

func NewExecutor(store Store, quotes QuoteGetter, logger logger.Logger) *Executor {
	return &Executor{
		store:  store,
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
}

func (e *Executor) Execute(ctx context.Context, req TradeRequest) (model.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return model.Transaction{}, fmt.Errorf("%w: empty symbol", model.ValidationError)
	}
	if req.Shares <= 0 {
		return model.Transaction{}, fmt.Errorf("%w: shares must be positive", model.ValidationError)
	}
	if req.Side != model.Buy && req.Side != model.Sell {
		return model.Transaction{}, fmt.Errorf("%w: %q", model.InvalidSideError, req.Side)
	}

	p, err := e.store.PortfolioByAccount(ctx, req.AccountID)
	if err != nil {
		return model.Transaction{}, err
	}

	q, err := e.quotes.Get(ctx, symbol)
	if err != nil {
		return model.Transaction{}, err
	}
	if q.Price <= 0 {
		return model.Transaction{}, fmt.Errorf("%w: %s priced at %f", model.InvalidPriceError, symbol, q.Price)
	}

	total := tools.TotalCost(q.Price, req.Shares)

	// Early funds check for a cheap rejection. The store re-checks under
	// its own serialization, which is the one that counts.
	if req.Side == model.Buy && p.CashBalance < total {
		return model.Transaction{}, fmt.Errorf("%w: need %.2f, have %.2f", model.InsufficientFundsError, total, p.CashBalance)
	}

	txn, err := e.store.ApplyTrade(ctx, TradeMutation{
		TransactionID: uuid.NewString(),
		PortfolioID:   p.ID,
		Symbol:        symbol,
		Side:          req.Side,
		Shares:        req.Shares,
		Price:         q.Price,
		Total:         total,
		ExecutedAt:    e.now().UTC(),
	})
	if err != nil {
		return model.Transaction{}, err
	}

	e.logger.Infof("executed %s %s: %f shares at %f (total %f)", txn.Side, txn.Symbol, txn.Shares, txn.PricePerShare, txn.TotalAmount)
	return txn, nil
}
