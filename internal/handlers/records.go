package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/blobstore"
	"github.com/healthbridge/medgrant/internal/middleware"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/services"
	"github.com/rs/zerolog/log"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

type RecordHandler struct {
	recordService *services.RecordService
	blobs         blobstore.Store // nil when attachments are disabled
}

func NewRecordHandler(recordService *services.RecordService, blobs blobstore.Store) *RecordHandler {
	return &RecordHandler{recordService: recordService, blobs: blobs}
}

// CreateVisit handles POST /visits (patient)
func (h *RecordHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	visit, err := h.recordService.CreateVisit(r.Context(), caller, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, visit)
}

// UploadAttachment handles POST /visits/attachments (patient, multipart)
func (h *RecordHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	if h.blobs == nil {
		respondMessage(w, http.StatusNotImplemented, "attachments are disabled")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("attachments/%s/%d-%s-%s",
		caller.ID, time.Now().UnixNano(), uuid.NewString()[:8], path.Base(header.Filename))

	ref, err := h.blobs.Upload(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Error().Err(err).Msg("Attachment upload failed")
		respondMessage(w, http.StatusInternalServerError, "upload failed")
		return
	}

	respondJSON(w, http.StatusCreated, ref)
}

// ListVisits handles GET /visits (patient)
func (h *RecordHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	visits, err := h.recordService.ListVisits(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, visits)
}

// ListShareableVisits handles GET /shareable-visits (patient)
func (h *RecordHandler) ListShareableVisits(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	summaries, err := h.recordService.ListShareableVisits(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

// CreateCondition handles POST /conditions (patient)
func (h *RecordHandler) CreateCondition(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.CreateConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	condition, err := h.recordService.CreateCondition(r.Context(), caller.ID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, condition)
}

// ListConditions handles GET /conditions (patient)
func (h *RecordHandler) ListConditions(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	conditions, err := h.recordService.ListConditions(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, conditions)
}

// CreateMedication handles POST /medications (patient)
func (h *RecordHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.CreateMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	medication, err := h.recordService.CreateMedication(r.Context(), caller.ID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, medication)
}

// ListMedications handles GET /medications (patient)
func (h *RecordHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	medications, err := h.recordService.ListMedications(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, medications)
}
