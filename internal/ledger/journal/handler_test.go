package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type stubIdempotency struct {
	seen    map[string]bool
	deleted []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{seen: make(map[string]bool)}
}

func (s *stubIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	s.seen[key] = true
	return nil
}

func (s *stubIdempotency) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.seen, key)
	return nil
}

func newTestRouter(repo *mockRepository, idem IdempotencyPort) chi.Router {
	svc, _, _, _ := newTestService(repo)
	handler := NewHandler(slog.Default(), svc, idem)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const cashSaleBody = `{
	"date": "2026-03-10",
	"description": "Cash sale",
	"lines": [
		{"account_id": 1, "debit": "100.00"},
		{"account_id": 2, "credit": "100.00"}
	]
}`

func TestHandleCreateEntry(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	rec := postJSON(t, router, "/journal-entries", cashSaleBody, map[string]string{"X-Actor-ID": "9"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		EntryNumber string `json:"entry_number"`
		Status      string `json:"status"`
		TotalDebit  string `json:"total_debit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "JE000001", resp.EntryNumber)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "100", resp.TotalDebit)
}

func TestHandleCreateUnbalanced(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	body := `{"date":"2026-03-10","lines":[{"account_id":1,"debit":"50.00"},{"account_id":2,"credit":"40.00"}]}`
	rec := postJSON(t, router, "/journal-entries", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "balance")
}

func TestHandleCreateTooFewLines(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	body := `{"date":"2026-03-10","lines":[{"account_id":1,"debit":"50.00"}]}`
	rec := postJSON(t, router, "/journal-entries", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateBadDate(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	body := strings.Replace(cashSaleBody, "2026-03-10", "10/03/2026", 1)
	rec := postJSON(t, router, "/journal-entries", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
}

func TestHandleCreateIdempotency(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	idem := newStubIdempotency()
	router := newTestRouter(repo, idem)

	headers := map[string]string{"Idempotency-Key": "req-1"}
	rec := postJSON(t, router, "/journal-entries", cashSaleBody, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/journal-entries", cashSaleBody, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, repo.entries, 1, "duplicate request creates nothing")
}

func TestHandleCreateIdempotencyFreedOnFailure(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	idem := newStubIdempotency()
	router := newTestRouter(repo, idem)

	bad := `{"date":"2026-03-10","lines":[{"account_id":99,"debit":"10.00"},{"account_id":2,"credit":"10.00"}]}`
	headers := map[string]string{"Idempotency-Key": "req-2"}
	rec := postJSON(t, router, "/journal-entries", bad, headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, idem.deleted, "req-2", "key released so the caller can retry")
}

func TestHandleValidateEndpoint(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	rec := postJSON(t, router, "/journal-entries/validate", cashSaleBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)
	assert.Empty(t, repo.entries, "validate never persists")
}

func TestHandlePostAndReverseFlow(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	rec := postJSON(t, router, "/journal-entries", cashSaleBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/journal-entries/1/post", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"posted"`)

	rec = postJSON(t, router, "/journal-entries/1/post", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "second post is rejected")

	rec = postJSON(t, router, "/journal-entries/1/reverse", `{"memo":"duplicate billing"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"description":"duplicate billing"`)

	rec = postJSON(t, router, "/journal-entries/1/reverse", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "second reversal is rejected")
}

func TestHandleDeleteDraftThenPosted(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	rec := postJSON(t, router, "/journal-entries", cashSaleBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/journal-entries/1", nil)
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)
	assert.Equal(t, http.StatusNoContent, del.Code)

	rec = postJSON(t, router, "/journal-entries", cashSaleBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postJSON(t, router, "/journal-entries/2/post", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/journal-entries/2", nil)
	del = httptest.NewRecorder()
	router.ServeHTTP(del, req)
	assert.Equal(t, http.StatusConflict, del.Code, "posted entries are immutable")
}

func TestHandleGetMissingEntry(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/journal-entries/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListFiltersByStatus(t *testing.T) {
	repo := newMockRepository()
	seedCashRevenue(repo)
	router := newTestRouter(repo, nil)

	for range [3]struct{}{} {
		rec := postJSON(t, router, "/journal-entries", cashSaleBody, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := postJSON(t, router, "/journal-entries/1/post", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/journal-entries?status=posted", nil)
	list := httptest.NewRecorder()
	router.ServeHTTP(list, req)
	require.Equal(t, http.StatusOK, list.Code)

	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)

	req = httptest.NewRequest(http.MethodGet, "/journal-entries?status=bogus", nil)
	bad := httptest.NewRecorder()
	router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandleCreateRejectsMalformedJSON(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/journal-entries", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
