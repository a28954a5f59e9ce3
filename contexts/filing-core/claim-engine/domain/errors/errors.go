package errors

import "errors"

var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrInvalidClaimInput    = errors.New("invalid claim input")
	ErrClaimNotFileable     = errors.New("claim is not in a fileable state")
	ErrDuplicateActiveClaim = errors.New("active claim already exists for order")
	ErrFilingDisabled       = errors.New("autonomous filing is disabled")
	ErrTenantQuotaExhausted = errors.New("tenant hourly filing quota exhausted")
	ErrSellerQuotaExhausted = errors.New("seller daily filing quota exhausted")
	ErrPassAlreadyRunning   = errors.New("pass already running")
	ErrFilingClientFailed   = errors.New("filing client call failed")
)
