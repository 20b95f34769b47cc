package journal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// IdempotencyPort deduplicates journal creation requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler wires HTTP endpoints for journal entries.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyPort
	validator   *validator.Validate
}

// NewHandler constructs the journal handler. idempotency may be nil, which
// disables Idempotency-Key handling.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyPort) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency, validator: validator.New()}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journal-entries", h.handleList)
	r.Post("/journal-entries", h.handleCreate)
	r.Post("/journal-entries/validate", h.handleValidate)
	r.Get("/journal-entries/{id}", h.handleGet)
	r.Delete("/journal-entries/{id}", h.handleDelete)
	r.Post("/journal-entries/{id}/post", h.handlePost)
	r.Post("/journal-entries/{id}/reverse", h.handleReverse)
}

type lineRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" validate:"max=500"`
}

type createEntryRequest struct {
	Date        string        `json:"date" validate:"required"`
	Description string        `json:"description" validate:"max=500"`
	Reference   string        `json:"reference" validate:"max=100"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	Memo string `json:"memo" validate:"max=500"`
}

type lineResponse struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type entryResponse struct {
	ID           int64           `json:"id"`
	EntryNumber  string          `json:"entry_number"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	Status       Status          `json:"status"`
	TotalDebit   decimal.Decimal `json:"total_debit"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	PostedAt     *time.Time      `json:"posted_at,omitempty"`
	ReversedAt   *time.Time      `json:"reversed_at,omitempty"`
	ReversalOfID *int64          `json:"reversal_of_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Lines        []lineResponse  `json:"lines,omitempty"`
}

func toEntryResponse(e JournalEntry) entryResponse {
	out := entryResponse{
		ID:           e.ID,
		EntryNumber:  e.EntryNumber(),
		Date:         e.Date,
		Description:  e.Description,
		Reference:    e.Reference,
		Status:       e.Status,
		TotalDebit:   e.TotalDebit,
		TotalCredit:  e.TotalCredit,
		PostedAt:     e.PostedAt,
		ReversedAt:   e.ReversedAt,
		ReversalOfID: e.ReversalOfID,
		CreatedAt:    e.CreatedAt,
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}

func (h *Handler) bindDraft(w http.ResponseWriter, r *http.Request) (DraftInput, bool) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return DraftInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return DraftInput{}, false
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return DraftInput{}, false
	}
	in := DraftInput{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return in, true
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bindDraft(w, r)
	if !ok {
		return
	}
	if err := h.service.Validate(r.Context(), in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	debit, credit := in.Totals()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"valid":        true,
		"total_debit":  debit,
		"total_credit": credit,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bindDraft(w, r)
	if !ok {
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "journal"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	entry, err := h.service.Create(r.Context(), in, httpx.ActorID(r))
	if err != nil {
		if key != "" && h.idempotency != nil {
			// Free the key so the caller can retry after fixing the request.
			_ = h.idempotency.Delete(r.Context(), key)
		}
		h.logger.Error("create journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)
	filter := ListFilter{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
		Limit:  pagination.PerPage,
		Offset: pagination.Offset(),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status")
		return
	}
	start, err := httpx.ParseDateQuery(q.Get("start_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := httpx.ParseDateQuery(q.Get("end_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}
	filter.StartDate = start
	filter.EndDate = end
	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Post(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("post journal entry", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req reverseRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
	}
	reversal, err := h.service.Reverse(r.Context(), id, httpx.ActorID(r), req.Memo)
	if err != nil {
		h.logger.Error("reverse journal entry", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(reversal))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	if err := h.service.Delete(r.Context(), id, httpx.ActorID(r)); err != nil {
		h.logger.Error("delete journal entry", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
