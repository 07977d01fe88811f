package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotPayable     = errors.New("order is not awaiting payment")
	ErrOrderConflict       = errors.New("order was updated concurrently")
	ErrTransactionMismatch = errors.New("transaction does not belong to order")
)
