package periods

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for fiscal periods.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the periods handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers fiscal period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fiscal-periods", h.handleList)
	r.Post("/fiscal-periods", h.handleCreate)
	r.Post("/fiscal-periods/{id}/close", h.handleClose)
}

type createPeriodRequest struct {
	Code      string `json:"code" validate:"required,max=20"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

type periodResponse struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    Status     `json:"status"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toPeriodResponse(p Period) periodResponse {
	return periodResponse{
		ID:        p.ID,
		Code:      p.Code,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    p.Status,
		ClosedAt:  p.ClosedAt,
		CreatedAt: p.CreatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}
	period, err := h.service.Create(r.Context(), CreateInput{
		Code:      req.Code,
		StartDate: start,
		EndDate:   end,
	}, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("create fiscal period", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPeriodResponse(period))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list fiscal periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPeriodResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	period, err := h.service.Close(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("close fiscal period", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}
