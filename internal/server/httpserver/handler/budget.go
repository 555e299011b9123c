package handler

import (
	"errors"
	"net/http"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
	"github.com/abustosp/app-presupuesto/internal/core/service"
)

// handleListBudgets handles GET /api/budgets.
func (h *Handler) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := h.budgets.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, items)
}

// handleCreateBudget handles POST /api/budgets.
func (h *Handler) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBudget(w, r, h.maxBody)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}

	budget, err := h.budgets.Create(r.Context(), &service.CreateBudgetRequest{
		Name:      in.Name,
		Timestamp: in.Timestamp,
		State:     in.State,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/budgets/"+budget.ID)
	h.writeJSON(w, r, http.StatusCreated, budget)
}

// handleGetBudget handles GET /api/budgets/{id}.
func (h *Handler) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.budgets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, budget)
}

// handleUpdateBudget handles PUT /api/budgets/{id}.
func (h *Handler) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBudget(w, r, h.maxBody)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}

	budget, err := h.budgets.Update(r.Context(), &service.UpdateBudgetRequest{
		ID:        r.PathValue("id"),
		Name:      in.Name,
		Timestamp: in.Timestamp,
		State:     in.State,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, budget)
}

// handleDeleteBudget handles DELETE /api/budgets/{id}.
func (h *Handler) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.budgets.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeErrorBody(w, r, http.StatusUnprocessableEntity,
			domain.ErrValidation.Code, domain.ErrValidation.Message, verr.fields)
		return
	}
	WriteError(w, r, err)
}

// domainStorageError marks a readiness failure as a durable layer outage.
func domainStorageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
