package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

func TestRespondErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrUnbalanced, http.StatusBadRequest},
		{shared.ErrTooFewLines, http.StatusBadRequest},
		{shared.ErrUnknownAccount, http.StatusBadRequest},
		{&shared.UnbalancedError{}, http.StatusBadRequest},
		{shared.ErrAccountNotFound, http.StatusNotFound},
		{shared.ErrEntryNotFound, http.StatusNotFound},
		{shared.ErrPeriodNotFound, http.StatusNotFound},
		{shared.ErrDuplicateAccountNumber, http.StatusConflict},
		{shared.ErrPeriodOverlap, http.StatusConflict},
		{shared.ErrAlreadyPosted, http.StatusConflict},
		{shared.ErrNotPosted, http.StatusConflict},
		{shared.ErrAlreadyReversed, http.StatusConflict},
		{shared.ErrEntryImmutable, http.StatusConflict},
		{shared.ErrSystemAccountImmutable, http.StatusConflict},
		{shared.ErrAccountHasActivity, http.StatusConflict},
		{shared.ErrPeriodClosed, http.StatusConflict},
		{shared.ErrPeriodAlreadyClosed, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", shared.ErrPeriodClosed), http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "error %v", tc.err)
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("pq: connection refused on 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Empty(t, problem.Detail)
}

func TestParseDateQuery(t *testing.T) {
	got, err := ParseDateQuery("2026-03-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 23, got.Hour(), "end of day so the date's postings are included")

	got, err = ParseDateQuery("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDateQuery("15/03/2026")
	require.Error(t, err)
}

func TestActorID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Zero(t, ActorID(req))

	req.Header.Set("X-Actor-ID", "42")
	assert.Equal(t, int64(42), ActorID(req))

	req.Header.Set("X-Actor-ID", "not-a-number")
	assert.Zero(t, ActorID(req))
}

func TestProblemShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusConflict, "Conflict", "period already closed")

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Conflict", problem.Title)
	assert.Equal(t, http.StatusConflict, problem.Status)
	assert.Equal(t, "period already closed", problem.Detail)
}
