package models

import "errors"

// Sentinel errors surfaced by the ledger and market services. Handlers map
// these to HTTP statuses with errors.Is.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientHolding = errors.New("insufficient holding")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrQuoteUnavailable    = errors.New("no price available for symbol")
	ErrUpstreamFailure     = errors.New("upstream request failed")
)
