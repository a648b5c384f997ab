package service

import (
	"errors"
)

// Expected race outcomes (ErrAlreadyResolved, ErrDuplicateProof,
// ErrInsufficientBalance) are absorbed or surfaced as user prompts by
// callers; ErrInconsistentState is fatal to its operation and never moves
// money.
var (
	ErrDuplicateProof      = errors.New("proof image already submitted")
	ErrAlreadyResolved     = errors.New("item already resolved")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountBelowMinimum  = errors.New("amount below minimum withdrawal")
	ErrUnknownMethod       = errors.New("unknown payment method")
	ErrNoActiveVideo       = errors.New("no active video")
	ErrInconsistentState   = errors.New("inconsistent state")
)
