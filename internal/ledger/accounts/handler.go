package accounts

import (
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

// Handler wires HTTP endpoints for the account registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the registry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.handleList)
	r.Post("/accounts", h.handleCreate)
	r.Post("/accounts/seed", h.handleSeed)
	r.Post("/accounts/rebuild-balances", h.handleRebuild)
	r.Get("/accounts/{id}", h.handleGet)
	r.Put("/accounts/{id}", h.handleUpdate)
	r.Delete("/accounts/{id}", h.handleDelete)
	r.Get("/accounts/{id}/balance", h.handleBalance)
}

type createAccountRequest struct {
	Number        string `json:"number" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=120"`
	Type          string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	NormalBalance string `json:"normal_balance" validate:"required,oneof=debit credit"`
	Description   string `json:"description" validate:"max=500"`
}

type updateAccountRequest struct {
	Number        *string `json:"number" validate:"omitempty,max=20"`
	Name          *string `json:"name" validate:"omitempty,max=120"`
	Type          *string `json:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	NormalBalance *string `json:"normal_balance" validate:"omitempty,oneof=debit credit"`
	IsActive      *bool   `json:"is_active"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
}

type accountResponse struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	NormalBalance  NormalBalance   `json:"normal_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsSystem       bool            `json:"is_system"`
	IsActive       bool            `json:"is_active"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Number:         a.Number,
		Name:           a.Name,
		Type:           a.Type,
		NormalBalance:  a.NormalBalance,
		CurrentBalance: a.CurrentBalance,
		IsSystem:       a.IsSystem,
		IsActive:       a.IsActive,
		Description:    a.Description,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		Number:        req.Number,
		Name:          req.Name,
		Type:          AccountType(req.Type),
		NormalBalance: NormalBalance(req.NormalBalance),
		Description:   req.Description,
	}, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.SeedDefaults(r.Context(), httpx.ActorID(r))
	if err != nil {
		h.logger.Error("seed accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(created))
	for _, a := range created {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"created": out})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)
	filter := ListFilter{
		Type:   AccountType(q.Get("type")),
		Search: q.Get("search"),
		Limit:  pagination.PerPage,
		Offset: pagination.Offset(),
	}
	if active := q.Get("is_active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "is_active must be a boolean")
			return
		}
		filter.IsActive = &parsed
	}
	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	in := UpdateInput{
		Number:      req.Number,
		Name:        req.Name,
		IsActive:    req.IsActive,
		Description: req.Description,
	}
	if req.Type != nil {
		t := AccountType(*req.Type)
		in.Type = &t
	}
	if req.NormalBalance != nil {
		nb := NormalBalance(*req.NormalBalance)
		in.NormalBalance = &nb
	}
	account, err := h.service.Update(r.Context(), id, in, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("update account", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	if err := h.service.Delete(r.Context(), id, httpx.ActorID(r)); err != nil {
		h.logger.Error("delete account", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	asOf, err := httpx.ParseDateQuery(r.URL.Query().Get("as_of_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of_date must be YYYY-MM-DD")
		return
	}
	balance, err := h.service.Balance(r.Context(), id, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.service.Rebuild(r.Context(), httpx.ActorID(r))
	if err != nil {
		h.logger.Error("rebuild balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"drifted": drifts})
}

