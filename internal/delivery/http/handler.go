package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/azizikri/project-eligibility/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MutationRequest struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

type EligibilityResponse struct {
	domain.Eligibility
	ShowNewProjectButton bool `json:"show_new_project_button"`
}

type PopupResponse struct {
	Shown bool `json:"shown"`
}

type Handler struct {
	accounts usecase.Accounts
}

func NewHandler(accounts usecase.Accounts) *Handler {
	return &Handler{accounts: accounts}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/eligibility", h.GetEligibility)
		r.Get("/payments", h.GetPayments)
		r.Post("/mutations", h.CommitMutation)
		r.Post("/sync", h.Sync)
		r.Post("/new-project-popup", h.ToggleNewProjectPopup)
		r.Delete("/session", h.DiscardSession)
	})
}

func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, EligibilityResponse{
		Eligibility:          h.accounts.Eligibility(userID),
		ShowNewProjectButton: h.accounts.NewProjectButtonVisible(userID),
	})
}

func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	payments := h.accounts.Payments(userID)
	if payments.CreditCards == nil {
		payments.CreditCards = []domain.CreditCard{}
	}
	if payments.History == nil {
		payments.History = []domain.PaymentsHistoryItem{}
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) CommitMutation(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.accounts.Apply(r.Context(), userID, req.Name, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Sync(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleNewProjectPopup(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	shown, err := h.accounts.ToggleNewProjectPopup(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PopupResponse{Shown: shown})
}

func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	h.accounts.Discard(userID)
	w.WriteHeader(http.StatusNoContent)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownMutation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrProjectNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotEligible):
		http.Error(w, "create project is not available", http.StatusForbidden)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
