// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// ErrBadRequest marks request decoding and binding failures.
var ErrBadRequest = errors.New("bad request")

// RespondError maps ledger errors to RFC7807 responses. Validation failures
// are 400, missing resources 404, and state machine or uniqueness conflicts
// 409. Anything unmapped is an opaque 500 so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnbalanced),
		errors.Is(err, shared.ErrTooFewLines),
		errors.Is(err, shared.ErrUnknownAccount),
		errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrEntryNotFound),
		errors.Is(err, shared.ErrPeriodNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateAccountNumber),
		errors.Is(err, shared.ErrPeriodOverlap):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrAlreadyPosted),
		errors.Is(err, shared.ErrNotPosted),
		errors.Is(err, shared.ErrAlreadyReversed),
		errors.Is(err, shared.ErrEntryImmutable),
		errors.Is(err, shared.ErrSystemAccountImmutable),
		errors.Is(err, shared.ErrAccountHasActivity),
		errors.Is(err, shared.ErrPeriodClosed),
		errors.Is(err, shared.ErrPeriodAlreadyClosed):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
