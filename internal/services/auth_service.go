package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/auth"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/rs/zerolog/log"
)

// AccountWriter extends the read-only account store with the operations the
// registration and approval flows need.
type AccountWriter interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error)
	ListPendingDoctors(ctx context.Context) ([]models.Account, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error
}

// AuthService handles registration, login and doctor approval
type AuthService struct {
	accounts AccountWriter
	tokens   *auth.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(accounts AccountWriter, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens}
}

// Register creates a patient or doctor account. Doctors start pending and
// cannot log in until approved. Admin accounts are provisioned out of band.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         req.Role,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Age:          req.Age,
		Gender:       req.Gender,
		Location:     req.Location,
		Specialty:    req.Specialty,
		Approval:     models.ApprovalApproved,
	}
	if req.Role == models.RoleDoctor {
		account.Approval = models.ApprovalPending
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	log.Info().
		Str("account_id", account.ID.String()).
		Str("role", string(account.Role)).
		Msg("Account registered")

	return account, nil
}

// Login verifies credentials and issues a bearer token. Unknown accounts and
// wrong passwords produce the same failure.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if !req.Role.Valid() {
		return nil, apperrors.NewValidation("role", "is invalid")
	}

	account, err := s.accounts.GetByEmailAndRole(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Role)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}

	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		return nil, apperrors.ErrUnauthenticated
	}

	if !account.CanLogin() {
		return nil, fmt.Errorf("account pending approval: %w", apperrors.ErrForbidden)
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// ListPendingDoctors returns doctor accounts awaiting approval
func (s *AuthService) ListPendingDoctors(ctx context.Context) ([]models.Account, error) {
	return s.accounts.ListPendingDoctors(ctx)
}

// ApproveDoctor marks a pending doctor account as approved
func (s *AuthService) ApproveDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.UpdateApproval(ctx, id, models.ApprovalApproved); err != nil {
		return err
	}
	log.Info().Str("account_id", id.String()).Msg("Doctor approved")
	return nil
}

// RejectDoctor marks a pending doctor account as rejected
func (s *AuthService) RejectDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.UpdateApproval(ctx, id, models.ApprovalRejected); err != nil {
		return err
	}
	log.Info().Str("account_id", id.String()).Msg("Doctor rejected")
	return nil
}

func validateRegistration(req *models.RegisterRequest) error {
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		return apperrors.NewValidation("email", "is invalid")
	}
	if len(req.Password) < 8 {
		return apperrors.NewValidation("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidation("name", "is required")
	}
	if req.Role != models.RolePatient && req.Role != models.RoleDoctor {
		return apperrors.NewValidation("role", "must be patient or doctor")
	}
	return nil
}
