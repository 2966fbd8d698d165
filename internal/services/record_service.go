package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/rs/zerolog/log"
)

// RecordService handles a patient's own medical data
type RecordService struct {
	records RecordStore
	now     func() time.Time
}

// NewRecordService creates a new record service
func NewRecordService(records RecordStore) *RecordService {
	return &RecordService{records: records, now: time.Now}
}

// CreateVisit records a visit created by the owning patient
func (s *RecordService) CreateVisit(ctx context.Context, caller models.CallerIdentity, req *models.CreateVisitRequest) (*models.VisitRecord, error) {
	if err := validateVisit(req, s.now()); err != nil {
		return nil, err
	}

	visit := &models.VisitRecord{
		OwnerID:       caller.ID,
		VisitDate:     req.VisitDate,
		DoctorName:    req.DoctorName,
		Reason:        req.Reason,
		Status:        req.Status,
		Notes:         req.Notes,
		Prescription:  req.Prescription,
		Attachments:   req.Attachments,
		CreatedByID:   caller.ID,
		CreatedByRole: models.RolePatient,
	}

	if visit.DoctorName == "" {
		return nil, apperrors.NewValidation("doctor_name", "is required")
	}

	if err := s.records.CreateVisit(ctx, visit); err != nil {
		return nil, err
	}

	log.Info().
		Str("visit_id", visit.ID.String()).
		Str("owner_id", caller.ID.String()).
		Msg("Visit recorded")

	return visit, nil
}

// ListVisits returns all of the caller's visit records
func (s *RecordService) ListVisits(ctx context.Context, ownerID uuid.UUID) ([]models.VisitRecord, error) {
	return s.records.ListVisitsByOwner(ctx, ownerID)
}

// ListShareableVisits returns visit summaries for redaction-list selection
func (s *RecordService) ListShareableVisits(ctx context.Context, ownerID uuid.UUID) ([]models.VisitSummary, error) {
	visits, err := s.records.ListVisitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.VisitSummary, len(visits))
	for i := range visits {
		summaries[i] = visits[i].Summary()
	}
	return summaries, nil
}

// CreateCondition records a chronic condition for the caller
func (s *RecordService) CreateCondition(ctx context.Context, ownerID uuid.UUID, req *models.CreateConditionRequest) (*models.ChronicCondition, error) {
	if req.Name == "" {
		return nil, apperrors.NewValidation("name", "is required")
	}

	condition := &models.ChronicCondition{
		OwnerID:     ownerID,
		Name:        req.Name,
		DiagnosedAt: req.DiagnosedAt,
		Notes:       req.Notes,
	}

	if err := s.records.CreateCondition(ctx, condition); err != nil {
		return nil, err
	}
	return condition, nil
}

// ListConditions returns the caller's chronic conditions
func (s *RecordService) ListConditions(ctx context.Context, ownerID uuid.UUID) ([]models.ChronicCondition, error) {
	return s.records.ListConditionsByOwner(ctx, ownerID)
}

// CreateMedication records a medication for the caller
func (s *RecordService) CreateMedication(ctx context.Context, ownerID uuid.UUID, req *models.CreateMedicationRequest) (*models.Medication, error) {
	if req.Name == "" {
		return nil, apperrors.NewValidation("name", "is required")
	}

	medication := &models.Medication{
		OwnerID:   ownerID,
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
	}

	if err := s.records.CreateMedication(ctx, medication); err != nil {
		return nil, err
	}
	return medication, nil
}

// ListMedications returns the caller's medications
func (s *RecordService) ListMedications(ctx context.Context, ownerID uuid.UUID) ([]models.Medication, error) {
	return s.records.ListMedicationsByOwner(ctx, ownerID)
}
