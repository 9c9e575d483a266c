package model

import (
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/tools"
)

type Portfolio struct {
	ID          string    `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	CashBalance float64   `db:"cash_balance" json:"cash_balance"`
	TotalValue  float64   `db:"total_value" json:"total_value"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Holding struct {
	PortfolioID  string  `db:"portfolio_id" json:"-"`
	Symbol       string  `db:"symbol" json:"symbol"`
	Shares       float64 `db:"shares" json:"shares"`
	AverageCost  float64 `db:"average_cost" json:"average_cost"`
	CurrentPrice float64 `db:"current_price" json:"current_price"`
}

// MarketValue prices the position with the store's cached current_price,
// not a live quote.
func (h Holding) MarketValue() float64 {
	return h.Shares * h.CurrentPrice
}

// ApplyBuy folds a fill into the position: shares add up and the average
// cost is volume-weighted over the old position and the fill.
func (h Holding) ApplyBuy(shares, price float64) Holding {
	h.AverageCost = tools.WeightedAverage(h.Shares, h.AverageCost, shares, price)
	h.Shares += shares
	h.CurrentPrice = price
	return h
}

// ApplySell decrements shares, leaving average cost untouched.
func (h Holding) ApplySell(shares, price float64) Holding {
	h.Shares -= shares
	h.CurrentPrice = price
	return h
}

type Transaction struct {
	ID            string    `db:"id" json:"id"`
	PortfolioID   string    `db:"portfolio_id" json:"-"`
	Symbol        string    `db:"symbol" json:"symbol"`
	Side          TradeSide `db:"side" json:"side"`
	Shares        float64   `db:"shares" json:"shares"`
	PricePerShare float64   `db:"price_per_share" json:"price_per_share"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"`
	ExecutedAt    time.Time `db:"executed_at" json:"executed_at"`
}
