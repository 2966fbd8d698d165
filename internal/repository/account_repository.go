package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/database"
	"github.com/healthbridge/medgrant/internal/models"
	"gorm.io/gorm"
)

// AccountStore is the identity lookup surface consumed by the auth layer.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error)
}

// AccountRepository handles account database operations
type AccountRepository struct{}

var _ AccountStore = (*AccountRepository)(nil)

// NewAccountRepository creates a new account repository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// Create creates a new account. A duplicate (email, role) pair maps to
// ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := database.DB.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("account already exists: %w", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := database.DB.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetByEmailAndRole retrieves an account by its (email, role) pair
func (r *AccountRepository) GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error) {
	var account models.Account
	if err := database.DB.WithContext(ctx).
		Where("email = ? AND role = ?", email, role).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListPendingDoctors retrieves doctor accounts awaiting approval
func (r *AccountRepository) ListPendingDoctors(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := database.DB.WithContext(ctx).
		Where("role = ? AND approval = ?", models.RoleDoctor, models.ApprovalPending).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending doctors: %w", err)
	}
	return accounts, nil
}

// UpdateApproval sets a doctor account's approval status
func (r *AccountRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error {
	result := database.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND role = ?", id, models.RoleDoctor).
		Update("approval", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
