package portfolio

import (
	"context"

	"github.com/ryanrahman1/edutrade-backend/internal/model"
	"github.com/ryanrahman1/edutrade-backend/internal/tools"
)

// DashboardView is the composed read model: the revalued portfolio, its
// positions and the full trade log.
type DashboardView struct {
	Portfolio    model.Portfolio     `json:"portfolio"`
	Holdings     []model.Holding     `json:"holdings"`
	Transactions []model.Transaction `json:"transactions"`
}

// Valuator recomputes total value from cash plus the store's cached
// current prices. It never consults live market data; the refresher keeps
// those prices approximately fresh.
type Valuator struct {
	store Store
}

func NewValuator(store Store) *Valuator {
	return &Valuator{store: store}
}

func (v *Valuator) Revalue(ctx context.Context, portfolioID string) (DashboardView, error) {
	p, err := v.store.PortfolioByID(ctx, portfolioID)
	if err != nil {
		return DashboardView{}, err
	}
	return v.revalue(ctx, p)
}

func (v *Valuator) RevalueByAccount(ctx context.Context, accountID string) (DashboardView, error) {
	p, err := v.store.PortfolioByAccount(ctx, accountID)
	if err != nil {
		return DashboardView{}, err
	}
	return v.revalue(ctx, p)
}

func (v *Valuator) revalue(ctx context.Context, p model.Portfolio) (DashboardView, error) {
	holdings, err := v.store.Holdings(ctx, p.ID)
	if err != nil {
		return DashboardView{}, err
	}
	transactions, err := v.store.Transactions(ctx, p.ID)
	if err != nil {
		return DashboardView{}, err
	}

	total := p.CashBalance
	for _, h := range holdings {
		total += h.MarketValue()
	}
	total = tools.RoundMoney(total)

	if err := v.store.UpdateTotalValue(ctx, p.ID, total); err != nil {
		return DashboardView{}, err
	}
	p.TotalValue = total

	return DashboardView{
		Portfolio:    p,
		Holdings:     holdings,
		Transactions: transactions,
	}, nil
}
