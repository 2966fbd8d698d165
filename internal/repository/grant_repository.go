package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/database"
	"github.com/healthbridge/medgrant/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateCode signals the candidate code collided with another active
// grant's code. Callers retry with a fresh candidate.
var ErrDuplicateCode = errors.New("duplicate active code")

// GrantRepository handles access-grant database operations
type GrantRepository struct{}

// NewGrantRepository creates a new grant repository
func NewGrantRepository() *GrantRepository {
	return &GrantRepository{}
}

// CreateSuperseding deactivates every active grant owned by the new grant's
// owner and inserts the new grant, inside one transaction. The partial unique
// index on (code) WHERE active rejects a colliding candidate code.
func (r *GrantRepository) CreateSuperseding(ctx context.Context, grant *models.AccessGrant) error {
	tx := database.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.AccessGrant{}).
		Where("owner_id = ? AND active = ?", grant.OwnerID, true).
		Update("active", false).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to supersede prior grants: %w", err)
	}

	if err := tx.Create(grant).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return tx.Commit().Error
}

// FindRedeemableByCode retrieves the grant for a code that is still active
// and unexpired. Absence maps to ErrNotFound; callers translate that to the
// generic invalid-code failure.
func (r *GrantRepository) FindRedeemableByCode(ctx context.Context, code string, now time.Time) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	if err := database.DB.WithContext(ctx).
		Where("code = ? AND active = ? AND expires_at > ?", code, true, now).
		First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up grant: %w", err)
	}
	return &grant, nil
}

// HasActiveCode reports whether any active grant currently holds the code.
// Pre-check only; the unique index is the authoritative guard.
func (r *GrantRepository) HasActiveCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := database.DB.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("code = ? AND active = ?", code, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return count > 0, nil
}

// Bind sets the consuming doctor on a still-unbound grant. The conditional
// update makes the first redeemer win; losers see zero rows affected.
func (r *GrantRepository) Bind(ctx context.Context, grantID, doctorID uuid.UUID, now time.Time) (bool, error) {
	result := database.DB.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("id = ? AND consumed_by_id IS NULL", grantID).
		Updates(map[string]interface{}{
			"consumed_by_id": doctorID,
			"consumed_at":    now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to bind grant: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByID retrieves a grant by id
func (r *GrantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	if err := database.DB.WithContext(ctx).Where("id = ?", id).First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return &grant, nil
}
