package portfolio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"github.com/ryanrahman1/edutrade-backend/internal/tools"
)

type holdingKey struct {
	portfolioID string
	symbol      string
}

// MemoryStore mirrors DBStore semantics in process memory. One mutex
// serializes every mutation, which also makes trade application atomic.
type MemoryStore struct {
	mu           sync.Mutex
	portfolios   map[string]model.Portfolio
	holdings     map[holdingKey]model.Holding
	transactions map[string][]model.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		portfolios:   map[string]model.Portfolio{},
		holdings:     map[holdingKey]model.Holding{},
		transactions: map[string][]model.Transaction{},
	}
}

func (s *MemoryStore) CreatePortfolio(_ context.Context, accountID string, startingCash float64) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Portfolio{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CashBalance: startingCash,
		TotalValue:  startingCash,
		CreatedAt:   time.Now().UTC(),
	}
	s.portfolios[p.ID] = p
	return p, nil
}

func (s *MemoryStore) DeletePortfolio(_ context.Context, portfolioID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transactions, portfolioID)
	for key := range s.holdings {
		if key.portfolioID == portfolioID {
			delete(s.holdings, key)
		}
	}
	delete(s.portfolios, portfolioID)
	return nil
}

func (s *MemoryStore) PortfolioByAccount(_ context.Context, accountID string) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.portfolios {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return model.Portfolio{}, fmt.Errorf("%w: account %s", model.PortfolioNotFoundError, accountID)
}

func (s *MemoryStore) PortfolioByID(_ context.Context, portfolioID string) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioID]
	if !ok {
		return model.Portfolio{}, fmt.Errorf("%w: id %s", model.PortfolioNotFoundError, portfolioID)
	}
	return p, nil
}

func (s *MemoryStore) Holdings(_ context.Context, portfolioID string) ([]model.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := make([]model.Holding, 0)
	for key, h := range s.holdings {
		if key.portfolioID == portfolioID {
			holdings = append(holdings, h)
		}
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

func (s *MemoryStore) Transactions(_ context.Context, portfolioID string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.transactions[portfolioID]
	transactions := make([]model.Transaction, len(log))
	// Appended oldest first, served newest first.
	for i, txn := range log {
		transactions[len(log)-1-i] = txn
	}
	return transactions, nil
}

func (s *MemoryStore) HeldSymbols(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	symbols := make([]string, 0)
	for key := range s.holdings {
		if _, ok := seen[key.symbol]; ok {
			continue
		}
		seen[key.symbol] = struct{}{}
		symbols = append(symbols, key.symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *MemoryStore) UpdateCurrentPrice(_ context.Context, symbol string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, h := range s.holdings {
		if key.symbol == symbol {
			h.CurrentPrice = price
			s.holdings[key] = h
		}
	}
	return nil
}

func (s *MemoryStore) UpdateTotalValue(_ context.Context, portfolioID string, total float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioID]
	if !ok {
		return fmt.Errorf("%w: id %s", model.PortfolioNotFoundError, portfolioID)
	}
	p.TotalValue = total
	s.portfolios[portfolioID] = p
	return nil
}

func (s *MemoryStore) ApplyTrade(_ context.Context, m TradeMutation) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[m.PortfolioID]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: id %s", model.PortfolioNotFoundError, m.PortfolioID)
	}

	key := holdingKey{portfolioID: m.PortfolioID, symbol: m.Symbol}

	switch m.Side {
	case model.Buy:
		if p.CashBalance < m.Total {
			return model.Transaction{}, fmt.Errorf("%w: need %.2f", model.InsufficientFundsError, m.Total)
		}
		p.CashBalance = tools.RoundMoney(p.CashBalance - m.Total)

		if h, ok := s.holdings[key]; ok {
			s.holdings[key] = h.ApplyBuy(m.Shares, m.Price)
		} else {
			s.holdings[key] = model.Holding{
				PortfolioID:  m.PortfolioID,
				Symbol:       m.Symbol,
				Shares:       m.Shares,
				AverageCost:  m.Price,
				CurrentPrice: m.Price,
			}
		}
	case model.Sell:
		h, ok := s.holdings[key]
		if !ok || h.Shares < m.Shares {
			return model.Transaction{}, fmt.Errorf("%w: %s", model.InsufficientSharesError, m.Symbol)
		}
		h = h.ApplySell(m.Shares, m.Price)
		if h.Shares <= 0 {
			delete(s.holdings, key)
		} else {
			s.holdings[key] = h
		}
		p.CashBalance = tools.RoundMoney(p.CashBalance + m.Total)
	default:
		return model.Transaction{}, fmt.Errorf("%w: %q", model.InvalidSideError, m.Side)
	}

	s.portfolios[m.PortfolioID] = p

	txn := m.transaction()
	s.transactions[m.PortfolioID] = append(s.transactions[m.PortfolioID], txn)
	return txn, nil
}
