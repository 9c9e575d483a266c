package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

// DBStore keeps portfolios, holdings and transactions in Postgres. Trade
// preconditions are enforced with conditional updates inside one database
// transaction, so a concurrent trade that would overdraw cash or shares
// loses the race instead of clobbering the winner.
type DBStore struct {
	db *sqlx.DB
}

func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

const (
	_insertPortfolio = `INSERT INTO portfolios (id, account_id, cash_balance, total_value, created_at)
							VALUES ($1, $2, $3, $3, $4)`
	_queryPortfolioByAccount = "SELECT id, account_id, cash_balance, total_value, created_at FROM portfolios WHERE account_id = $1"
	_queryPortfolioByID      = "SELECT id, account_id, cash_balance, total_value, created_at FROM portfolios WHERE id = $1"

	_deleteTransactions = "DELETE FROM transactions WHERE portfolio_id = $1"
	_deleteHoldings     = "DELETE FROM holdings WHERE portfolio_id = $1"
	_deletePortfolio    = "DELETE FROM portfolios WHERE id = $1"
)

func (s *DBStore) CreatePortfolio(ctx context.Context, accountID string, startingCash float64) (model.Portfolio, error) {
	p := model.Portfolio{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CashBalance: startingCash,
		TotalValue:  startingCash,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx, _insertPortfolio, p.ID, p.AccountID, p.CashBalance, p.CreatedAt); err != nil {
		return model.Portfolio{}, fmt.Errorf("%w: can't insert portfolio", err)
	}
	return p, nil
}

func (s *DBStore) DeletePortfolio(ctx context.Context, portfolioID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: can't begin delete: %s", model.StoreError, err)
	}
	defer tx.Rollback()

	for _, query := range []string{_deleteTransactions, _deleteHoldings, _deletePortfolio} {
		if _, err := tx.ExecContext(ctx, query, portfolioID); err != nil {
			return fmt.Errorf("%w: can't delete portfolio data", err)
		}
	}

	return tx.Commit()
}

func (s *DBStore) PortfolioByAccount(ctx context.Context, accountID string) (model.Portfolio, error) {
	var p model.Portfolio
	if err := s.db.GetContext(ctx, &p, _queryPortfolioByAccount, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, fmt.Errorf("%w: account %s", model.PortfolioNotFoundError, accountID)
		}
		return model.Portfolio{}, fmt.Errorf("%w: can't query portfolio", err)
	}
	return p, nil
}

func (s *DBStore) PortfolioByID(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	var p model.Portfolio
	if err := s.db.GetContext(ctx, &p, _queryPortfolioByID, portfolioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, fmt.Errorf("%w: id %s", model.PortfolioNotFoundError, portfolioID)
		}
		return model.Portfolio{}, fmt.Errorf("%w: can't query portfolio", err)
	}
	return p, nil
}

const (
	_queryHoldings = `SELECT portfolio_id, symbol, shares, average_cost, current_price
							FROM holdings WHERE portfolio_id = $1 ORDER BY symbol`
	_queryTransactions = `SELECT id, portfolio_id, symbol, side, shares, price_per_share, total_amount, executed_at
							FROM transactions WHERE portfolio_id = $1 ORDER BY executed_at DESC`
	_queryHeldSymbols = "SELECT DISTINCT symbol FROM holdings ORDER BY symbol"

	_updateCurrentPrice = "UPDATE holdings SET current_price = $1 WHERE symbol = $2"
	_updateTotalValue   = "UPDATE portfolios SET total_value = $1 WHERE id = $2"
)

func (s *DBStore) Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	var holdings []model.Holding
	if err := s.db.SelectContext(ctx, &holdings, _queryHoldings, portfolioID); err != nil {
		return nil, fmt.Errorf("%w: can't query holdings", err)
	}
	return holdings, nil
}

func (s *DBStore) Transactions(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	if err := s.db.SelectContext(ctx, &transactions, _queryTransactions, portfolioID); err != nil {
		return nil, fmt.Errorf("%w: can't query transactions", err)
	}
	return transactions, nil
}

func (s *DBStore) HeldSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := s.db.SelectContext(ctx, &symbols, _queryHeldSymbols); err != nil {
		return nil, fmt.Errorf("%w: can't query held symbols", err)
	}
	return symbols, nil
}

func (s *DBStore) UpdateCurrentPrice(ctx context.Context, symbol string, price float64) error {
	if _, err := s.db.ExecContext(ctx, _updateCurrentPrice, price, symbol); err != nil {
		return fmt.Errorf("%w: can't update current price", err)
	}
	return nil
}

func (s *DBStore) UpdateTotalValue(ctx context.Context, portfolioID string, total float64) error {
	if _, err := s.db.ExecContext(ctx, _updateTotalValue, total, portfolioID); err != nil {
		return fmt.Errorf("%w: can't update total value", err)
	}
	return nil
}

const (
	// Conditional debit: zero rows means the funds check failed under the
	// balance actually committed, whatever the caller read earlier.
	_debitCash  = "UPDATE portfolios SET cash_balance = cash_balance - $1 WHERE id = $2 AND cash_balance >= $1"
	_creditCash = "UPDATE portfolios SET cash_balance = cash_balance + $1 WHERE id = $2"

	// All holdings.* on the right-hand side refer to the pre-update row,
	// so the weighted average uses the old position and the new fill.
	_upsertHolding = `INSERT INTO holdings (
								portfolio_id,
								symbol,
								shares,
								average_cost,
								current_price
							) VALUES ($1,$2,$3,$4,$4)
							ON CONFLICT (portfolio_id, symbol)
							DO UPDATE SET
								average_cost = (holdings.shares*holdings.average_cost + EXCLUDED.shares*EXCLUDED.average_cost)
												/ (holdings.shares + EXCLUDED.shares),
								shares = holdings.shares + EXCLUDED.shares,
								current_price = EXCLUDED.current_price;`

	_decrementHolding = `UPDATE holdings SET shares = shares - $1, current_price = $2
							WHERE portfolio_id = $3 AND symbol = $4 AND shares >= $1`
	_deleteClosedHolding = "DELETE FROM holdings WHERE portfolio_id = $1 AND symbol = $2 AND shares <= 0"

	_insertTransaction = `INSERT INTO transactions (
								id,
								portfolio_id,
								symbol,
								side,
								shares,
								price_per_share,
								total_amount,
								executed_at
							) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
)

func (s *DBStore) ApplyTrade(ctx context.Context, m TradeMutation) (model.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: can't begin trade: %s", model.StoreError, err)
	}
	defer tx.Rollback()

	switch m.Side {
	case model.Buy:
		res, err := tx.ExecContext(ctx, _debitCash, m.Total, m.PortfolioID)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: can't debit cash", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Transaction{}, fmt.Errorf("%w: need %.2f", model.InsufficientFundsError, m.Total)
		}
		if _, err := tx.ExecContext(ctx, _upsertHolding, m.PortfolioID, m.Symbol, m.Shares, m.Price); err != nil {
			return model.Transaction{}, fmt.Errorf("%w: can't upsert holding", err)
		}
	case model.Sell:
		res, err := tx.ExecContext(ctx, _decrementHolding, m.Shares, m.Price, m.PortfolioID, m.Symbol)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: can't decrement holding", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Transaction{}, fmt.Errorf("%w: %s", model.InsufficientSharesError, m.Symbol)
		}
		if _, err := tx.ExecContext(ctx, _deleteClosedHolding, m.PortfolioID, m.Symbol); err != nil {
			return model.Transaction{}, fmt.Errorf("%w: can't delete closed holding", err)
		}
		if _, err := tx.ExecContext(ctx, _creditCash, m.Total, m.PortfolioID); err != nil {
			return model.Transaction{}, fmt.Errorf("%w: can't credit cash", err)
		}
	default:
		return model.Transaction{}, fmt.Errorf("%w: %q", model.InvalidSideError, m.Side)
	}

	txn := m.transaction()
	if _, err := tx.ExecContext(ctx, _insertTransaction,
		txn.ID,
		txn.PortfolioID,
		txn.Symbol,
		txn.Side,
		txn.Shares,
		txn.PricePerShare,
		txn.TotalAmount,
		txn.ExecutedAt,
	); err != nil {
		return model.Transaction{}, fmt.Errorf("%w: can't insert transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Transaction{}, fmt.Errorf("%w: can't commit trade: %s", model.StoreError, err)
	}

	return txn, nil
}
