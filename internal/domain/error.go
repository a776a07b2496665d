package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Fulfillment-specific errors
	ErrUnresolvableEvent   = errors.New("event identity cannot be resolved")
	ErrUnknownProvider     = errors.New("unknown payment provider")
	ErrVerificationFailed  = errors.New("webhook signature verification failed")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrProductNotPurchable = errors.New("product cannot be purchased")
)
