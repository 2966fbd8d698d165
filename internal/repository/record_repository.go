package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/database"
	"github.com/healthbridge/medgrant/internal/models"
)

// RecordRepository handles visit, condition and medication database operations
type RecordRepository struct{}

// NewRecordRepository creates a new record repository
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{}
}

// CreateVisit creates a new visit record
func (r *RecordRepository) CreateVisit(ctx context.Context, visit *models.VisitRecord) error {
	if err := database.DB.WithContext(ctx).Create(visit).Error; err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

// ListVisitsByOwner retrieves all visits belonging to a patient
func (r *RecordRepository) ListVisitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.VisitRecord, error) {
	var visits []models.VisitRecord
	if err := database.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("visit_date DESC").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// ListVisitsByOwnerExcluding retrieves a patient's visits minus the excluded
// ids. An empty exclusion list returns everything.
func (r *RecordRepository) ListVisitsByOwnerExcluding(ctx context.Context, ownerID uuid.UUID, excluded []uuid.UUID) ([]models.VisitRecord, error) {
	query := database.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("visit_date DESC")
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}

	var visits []models.VisitRecord
	if err := query.Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// CountVisitsByOwnerIn counts how many of the given ids are visits owned by
// the patient. Used both for defensive redaction-list validation and for the
// hidden-visit count in the redacted bundle.
func (r *RecordRepository) CountVisitsByOwnerIn(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := database.DB.WithContext(ctx).
		Model(&models.VisitRecord{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// CreateCondition records a chronic condition
func (r *RecordRepository) CreateCondition(ctx context.Context, condition *models.ChronicCondition) error {
	if err := database.DB.WithContext(ctx).Create(condition).Error; err != nil {
		return fmt.Errorf("failed to create condition: %w", err)
	}
	return nil
}

// ListConditionsByOwner retrieves all chronic conditions for a patient
func (r *RecordRepository) ListConditionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChronicCondition, error) {
	var conditions []models.ChronicCondition
	if err := database.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&conditions).Error; err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	return conditions, nil
}

// CreateMedication records a medication
func (r *RecordRepository) CreateMedication(ctx context.Context, medication *models.Medication) error {
	if err := database.DB.WithContext(ctx).Create(medication).Error; err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

// ListMedicationsByOwner retrieves all medications for a patient
func (r *RecordRepository) ListMedicationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Medication, error) {
	var medications []models.Medication
	if err := database.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&medications).Error; err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}
