package model

import (
	"fmt"
	"strings"
)

type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

// ParseTradeSide validates the wire value once at the boundary; everything
// downstream switches on the enum.
func ParseTradeSide(s string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: unknown trade side %q", InvalidSideError, s)
	}
}
