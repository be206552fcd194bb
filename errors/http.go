package errors

import (
	stderrors "errors"
	"net/http"
)

// MapToHTTPStatus translates domain errors into HTTP status codes for
// the internal dispatch API. Unknown errors become a 500; dispatch
// itself never fails the request, so anything mapped here happened
// before the durable commit contract applies.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrInvalidToken), stderrors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
