package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/healthbridge/medgrant/internal/middleware"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/services"
)

type GrantHandler struct {
	grantService *services.GrantService
}

func NewGrantHandler(grantService *services.GrantService) *GrantHandler {
	return &GrantHandler{grantService: grantService}
}

// Issue handles POST /access-grants (patient)
func (h *GrantHandler) Issue(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.IssueGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.grantService.Issue(r.Context(), caller.ID, req.RedactionList)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// Redeem handles POST /access-grants/redeem (doctor)
func (h *GrantHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, err := h.grantService.Redeem(r.Context(), caller.ID, caller.Name, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}

// Status handles GET /access-grants/status?code= (doctor)
func (h *GrantHandler) Status(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondMessage(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	status, err := h.grantService.CheckAccess(r.Context(), caller.ID, code)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// AddVisit handles POST /access-grants/{code}/visits (doctor, bound)
func (h *GrantHandler) AddVisit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		respondMessage(w, http.StatusBadRequest, "code is required")
		return
	}

	var req models.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	visit, err := h.grantService.AddVisitUnderGrant(r.Context(), caller.ID, caller.Name, code, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, visit)
}

// Audit handles GET /access-grants/audit (patient)
func (h *GrantHandler) Audit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.grantService.ListAudit(r.Context(), caller.ID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
