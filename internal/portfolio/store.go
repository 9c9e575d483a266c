package portfolio

import (
	"context"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

// TradeMutation is one trade's full effect on the store: cash delta,
// holding upsert or decrement, and the appended transaction row. A Store
// commits it as a single atomic unit or not at all.
type TradeMutation struct {
	TransactionID string
	PortfolioID   string
	Symbol        string
	Side          model.TradeSide
	Shares        float64
	Price         float64
	Total         float64
	ExecutedAt    time.Time
}

func (m TradeMutation) transaction() model.Transaction {
	return model.Transaction{
		ID:            m.TransactionID,
		PortfolioID:   m.PortfolioID,
		Symbol:        m.Symbol,
		Side:          m.Side,
		Shares:        m.Shares,
		PricePerShare: m.Price,
		TotalAmount:   m.Total,
		ExecutedAt:    m.ExecutedAt,
	}
}

type Store interface {
	CreatePortfolio(ctx context.Context, accountID string, startingCash float64) (model.Portfolio, error)
	// DeletePortfolio cascades: transactions and holdings go first.
	DeletePortfolio(ctx context.Context, portfolioID string) error
	PortfolioByAccount(ctx context.Context, accountID string) (model.Portfolio, error)
	PortfolioByID(ctx context.Context, portfolioID string) (model.Portfolio, error)

	Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error)
	// Transactions returns the append-only trade log, newest first.
	Transactions(ctx context.Context, portfolioID string) ([]model.Transaction, error)

	// HeldSymbols is the distinct set of symbols across all holdings.
	HeldSymbols(ctx context.Context) ([]string, error)
	UpdateCurrentPrice(ctx context.Context, symbol string, price float64) error
	UpdateTotalValue(ctx context.Context, portfolioID string, total float64) error

	// ApplyTrade commits the mutation atomically, enforcing the funds and
	// shares preconditions against current state so concurrent trades on
	// one portfolio can never both pass a check they jointly violate.
	ApplyTrade(ctx context.Context, m TradeMutation) (model.Transaction, error)
}
