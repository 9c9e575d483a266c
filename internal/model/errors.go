package model

import "errors"

var (
	ValidationError   = errors.New("invalid input")
	InvalidSideError  = errors.New("invalid trade side")
	InvalidPriceError = errors.New("invalid price")

	PortfolioNotFoundError = errors.New("portfolio not found")
	HoldingNotFoundError   = errors.New("holding not found")

	InsufficientFundsError  = errors.New("insufficient funds")
	InsufficientSharesError = errors.New("insufficient shares")

	ProviderUnavailableError = errors.New("quote provider unavailable")
	ProviderTimeoutError     = errors.New("quote provider timeout")
	PriceUnavailableError    = errors.New("price unavailable")

	StoreError = errors.New("store failure")
)
