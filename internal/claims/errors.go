package claims

import "errors"

// Each error is terminal for the request that produced it. None are retried.
var (
	ErrMissingClaimID       = errors.New("claim id is required")
	ErrInvalidIdentifier    = errors.New("invalid claim id format")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrMissingInvoiceFile   = errors.New("invoice file is required")
	ErrAlreadyPaid          = errors.New("payment already processed for this claim")
	ErrNotAuthorized        = errors.New("no authorized status found")
	ErrInvoiceNotFound      = errors.New("no invoice attached to claim")

	// ErrPersistence means the write outcome is unknown. Callers should
	// re-fetch the claim before trying again.
	ErrPersistence = errors.New("failed to persist claim")
)
