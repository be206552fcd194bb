package errors

import "fmt"

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrSinkSaturated  = fmt.Errorf("connection send buffer saturated")
	ErrInvalidToken   = fmt.Errorf("invalid or expired token")
	ErrMissingToken   = fmt.Errorf("authorization token is missing")
	ErrInvalidPayload = fmt.Errorf("invalid notification payload")
)
