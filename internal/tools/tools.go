package tools

import "github.com/shopspring/decimal"

const _moneyPlaces = 2

// RoundMoney rounds to cents through decimal arithmetic so cash deltas
// stay exact across repeated trades.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(_moneyPlaces).Float64()
	return f
}

// TotalCost is price * shares rounded to cents.
func TotalCost(price, shares float64) float64 {
	f, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(shares)).
		Round(_moneyPlaces).
		Float64()
	return f
}

// WeightedAverage is the volume-weighted cost basis over an existing
// position and a new fill.
func WeightedAverage(oldShares, oldAvg, shares, price float64) float64 {
	oldSharesDec := decimal.NewFromFloat(oldShares)
	sharesDec := decimal.NewFromFloat(shares)

	total := oldSharesDec.Add(sharesDec)
	if total.IsZero() {
		return 0
	}

	f, _ := oldSharesDec.Mul(decimal.NewFromFloat(oldAvg)).
		Add(sharesDec.Mul(decimal.NewFromFloat(price))).
		Div(total).
		Float64()
	return f
}
