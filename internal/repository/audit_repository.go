package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/database"
	"github.com/healthbridge/medgrant/internal/models"
)

// AuditRepository handles grant audit log database operations
type AuditRepository struct{}

// NewAuditRepository creates a new audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.GrantAuditLog) error {
	if err := database.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListByOwner retrieves the audit trail for a patient's grants
func (r *AuditRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.GrantAuditLog, error) {
	query := database.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var entries []models.GrantAuditLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

// ListByGrant retrieves audit entries for one grant
func (r *AuditRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]models.GrantAuditLog, error) {
	var entries []models.GrantAuditLog
	if err := database.DB.WithContext(ctx).
		Where("grant_id = ?", grantID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
