package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrInvalidPlan      = errors.New("unknown plan")
	ErrGateway          = errors.New("payment gateway request failed")
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
)
