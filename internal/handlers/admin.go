package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/services"
)

type AdminHandler struct {
	authService *services.AuthService
}

func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// ListPendingDoctors handles GET /admin/doctors/pending
func (h *AdminHandler) ListPendingDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.authService.ListPendingDoctors(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doctors)
}

// ApproveDoctor handles POST /admin/doctors/{id}/approve
func (h *AdminHandler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid doctor id")
		return
	}

	if err := h.authService.ApproveDoctor(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// RejectDoctor handles POST /admin/doctors/{id}/reject
func (h *AdminHandler) RejectDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid doctor id")
		return
	}

	if err := h.authService.RejectDoctor(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
