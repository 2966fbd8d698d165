package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/cache"
	"github.com/healthbridge/medgrant/internal/metrics"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	codeDigits      = 6
	maxCodeAttempts = 10
)

// GrantStore is the grant persistence surface consumed by the service
type GrantStore interface {
	CreateSuperseding(ctx context.Context, grant *models.AccessGrant) error
	FindRedeemableByCode(ctx context.Context, code string, now time.Time) (*models.AccessGrant, error)
	HasActiveCode(ctx context.Context, code string) (bool, error)
	Bind(ctx context.Context, grantID, doctorID uuid.UUID, now time.Time) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AccessGrant, error)
}

// RecordStore is the medical-record persistence surface consumed by the service
type RecordStore interface {
	CreateVisit(ctx context.Context, visit *models.VisitRecord) error
	ListVisitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.VisitRecord, error)
	ListVisitsByOwnerExcluding(ctx context.Context, ownerID uuid.UUID, excluded []uuid.UUID) ([]models.VisitRecord, error)
	CountVisitsByOwnerIn(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
	CreateCondition(ctx context.Context, condition *models.ChronicCondition) error
	ListConditionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChronicCondition, error)
	CreateMedication(ctx context.Context, medication *models.Medication) error
	ListMedicationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Medication, error)
}

// AuditStore is the audit persistence surface consumed by the service
type AuditStore interface {
	Create(ctx context.Context, entry *models.GrantAuditLog) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.GrantAuditLog, error)
}

// GrantService handles issuance and redemption of access grants
type GrantService struct {
	grants   GrantStore
	records  RecordStore
	accounts repository.AccountStore
	audits   AuditStore
	cache    cache.Cache
	now      func() time.Time
}

// NewGrantService creates a new grant service
func NewGrantService(
	grants GrantStore,
	records RecordStore,
	accounts repository.AccountStore,
	audits AuditStore,
	cacheImpl cache.Cache,
) *GrantService {
	return &GrantService{
		grants:   grants,
		records:  records,
		accounts: accounts,
		audits:   audits,
		cache:    cacheImpl,
		now:      time.Now,
	}
}

// Issue creates a new access grant for a patient, superseding any prior
// active grant. The plaintext code is returned exactly once.
func (s *GrantService) Issue(ctx context.Context, patientID uuid.UUID, redactionList []uuid.UUID) (*models.IssueGrantResponse, error) {
	redactionList = dedupe(redactionList)

	// Redaction ids must reference the caller's own visits.
	if len(redactionList) > 0 {
		owned, err := s.records.CountVisitsByOwnerIn(ctx, patientID, redactionList)
		if err != nil {
			return nil, err
		}
		if owned != int64(len(redactionList)) {
			return nil, apperrors.NewValidation("redaction_list", "contains visit ids not owned by the caller")
		}
	}

	now := s.now()
	expiresAt := now.Add(models.GrantLifetime)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		// Fast-path reservation. Advisory only: the partial unique index is
		// the authoritative guard, so a cache failure is logged and ignored.
		reserved, err := s.cache.SetNX(ctx, cache.CodeKey(code), []byte(patientID.String()), models.GrantLifetime)
		if err != nil {
			log.Warn().Err(err).Msg("Code reservation unavailable, relying on database constraint")
			reserved = true
		}
		if !reserved {
			metrics.CodeRetries.Inc()
			continue
		}

		if taken, err := s.grants.HasActiveCode(ctx, code); err != nil {
			return nil, err
		} else if taken {
			metrics.CodeRetries.Inc()
			_ = s.cache.Delete(ctx, cache.CodeKey(code))
			continue
		}

		grant := &models.AccessGrant{
			OwnerID:       patientID,
			Code:          code,
			RedactionList: models.UUIDList(redactionList),
			Active:        true,
			ExpiresAt:     expiresAt,
		}

		err = s.grants.CreateSuperseding(ctx, grant)
		if errors.Is(err, repository.ErrDuplicateCode) {
			metrics.CodeRetries.Inc()
			_ = s.cache.Delete(ctx, cache.CodeKey(code))
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.GrantsIssued.Inc()
		log.Info().
			Str("grant_id", grant.ID.String()).
			Str("owner_id", patientID.String()).
			Time("expires_at", expiresAt).
			Int("redacted", len(redactionList)).
			Msg("Access grant issued")

		return &models.IssueGrantResponse{
			Code:        code,
			ExpiresAt:   expiresAt,
			HiddenCount: len(redactionList),
		}, nil
	}

	metrics.CodeSpaceExhaustions.Inc()
	log.Error().Str("owner_id", patientID.String()).Msg("Code generation attempts exhausted")
	return nil, apperrors.ErrCodeSpaceExhausted
}

// Redeem validates a code presented by a doctor, binds the grant on first
// redemption and assembles the redacted bundle. Every failure mode surfaces
// the same generic error.
func (s *GrantService) Redeem(ctx context.Context, doctorID uuid.UUID, doctorName, code string) (*models.RedactedBundle, error) {
	now := s.now()
	grant, err := s.grants.FindRedeemableByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.GrantDenials.WithLabelValues("invalid_or_expired").Inc()
			return nil, apperrors.ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	switch {
	case grant.Unbound():
		won, err := s.grants.Bind(ctx, grant.ID, doctorID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			// Another doctor bound it between lookup and update.
			metrics.GrantDenials.WithLabelValues("foreign_bound").Inc()
			return nil, apperrors.ErrInvalidOrExpiredCode
		}
		metrics.GrantsRedeemed.WithLabelValues("first_bind").Inc()
		s.writeAudit(ctx, grant, doctorID, doctorName, models.AuditActionBound)

	case grant.BoundTo(doctorID):
		metrics.GrantsRedeemed.WithLabelValues("reaccess").Inc()
		s.writeAudit(ctx, grant, doctorID, doctorName, models.AuditActionReaccess)

	default:
		metrics.GrantDenials.WithLabelValues("foreign_bound").Inc()
		return nil, apperrors.ErrInvalidOrExpiredCode
	}

	return s.assembleBundle(ctx, grant, now)
}

// CheckAccess re-validates a doctor's own binding without rebinding. An
// unbound or foreign-bound code fails with the same generic error as a
// wrong one. The lookup always goes to the database: a cached positive
// answer would keep a superseded grant alive for its TTL, and revocation
// must be visible on the next poll.
func (s *GrantService) CheckAccess(ctx context.Context, doctorID uuid.UUID, code string) (*models.GrantStatus, error) {
	now := s.now()
	grant, err := s.grants.FindRedeemableByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.GrantDenials.WithLabelValues("invalid_or_expired").Inc()
			return nil, apperrors.ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	if !grant.BoundTo(doctorID) {
		metrics.GrantDenials.WithLabelValues("foreign_bound").Inc()
		return nil, apperrors.ErrInvalidOrExpiredCode
	}

	owner, err := s.accounts.GetByID(ctx, grant.OwnerID)
	if err != nil {
		return nil, err
	}

	return &models.GrantStatus{
		Valid:            true,
		AccessExpiresAt:  grant.ExpiresAt,
		RemainingMinutes: grant.RemainingMinutes(now),
		PatientName:      owner.Name,
	}, nil
}

// AddVisitUnderGrant lets the binding doctor append a visit record to the
// grant owner's history. A grant never redeemed by this doctor cannot be
// used to write.
func (s *GrantService) AddVisitUnderGrant(ctx context.Context, doctorID uuid.UUID, doctorName, code string, req *models.CreateVisitRequest) (*models.VisitRecord, error) {
	now := s.now()
	grant, err := s.grants.FindRedeemableByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.GrantDenials.WithLabelValues("invalid_or_expired").Inc()
			return nil, apperrors.ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	if !grant.BoundTo(doctorID) {
		metrics.GrantDenials.WithLabelValues("foreign_bound").Inc()
		return nil, apperrors.ErrInvalidOrExpiredCode
	}

	if err := validateVisit(req, now); err != nil {
		return nil, err
	}

	if req.DoctorName == "" {
		req.DoctorName = doctorName
	}

	visit := &models.VisitRecord{
		OwnerID:       grant.OwnerID,
		VisitDate:     req.VisitDate,
		DoctorName:    req.DoctorName,
		Reason:        req.Reason,
		Status:        req.Status,
		Notes:         req.Notes,
		Prescription:  req.Prescription,
		Attachments:   req.Attachments,
		CreatedByID:   doctorID,
		CreatedByRole: models.RoleDoctor,
	}

	if err := s.records.CreateVisit(ctx, visit); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, grant, doctorID, doctorName, models.AuditActionWrite)

	log.Info().
		Str("visit_id", visit.ID.String()).
		Str("grant_id", grant.ID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("Visit added under grant")

	return visit, nil
}

// ListAudit returns the audit trail of a patient's grants
func (s *GrantService) ListAudit(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.GrantAuditLog, error) {
	return s.audits.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *GrantService) assembleBundle(ctx context.Context, grant *models.AccessGrant, now time.Time) (*models.RedactedBundle, error) {
	owner, err := s.accounts.GetByID(ctx, grant.OwnerID)
	if err != nil {
		return nil, err
	}

	visits, err := s.records.ListVisitsByOwnerExcluding(ctx, grant.OwnerID, grant.RedactionList)
	if err != nil {
		return nil, err
	}

	// Count only ids that still reference real visits, so the hidden count
	// equals what redaction actually removed.
	hidden, err := s.records.CountVisitsByOwnerIn(ctx, grant.OwnerID, grant.RedactionList)
	if err != nil {
		return nil, err
	}

	// Conditions and medications are disclosed unfiltered; redaction applies
	// to visit records only.
	conditions, err := s.records.ListConditionsByOwner(ctx, grant.OwnerID)
	if err != nil {
		return nil, err
	}

	medications, err := s.records.ListMedicationsByOwner(ctx, grant.OwnerID)
	if err != nil {
		return nil, err
	}

	return &models.RedactedBundle{
		Patient: models.PatientSummary{
			ID:       owner.ID,
			Name:     owner.Name,
			Age:      owner.Age,
			Gender:   owner.Gender,
			Location: owner.Location,
		},
		Visits:           visits,
		Conditions:       conditions,
		Medications:      medications,
		AccessExpiresAt:  grant.ExpiresAt,
		RemainingMinutes: grant.RemainingMinutes(now),
		HiddenVisitCount: int(hidden),
	}, nil
}

func (s *GrantService) writeAudit(ctx context.Context, grant *models.AccessGrant, doctorID uuid.UUID, doctorName, action string) {
	entry := &models.GrantAuditLog{
		GrantID:    grant.ID,
		OwnerID:    grant.OwnerID,
		DoctorID:   doctorID,
		DoctorName: doctorName,
		Action:     action,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		// Audit failure must not block the medical operation itself.
		log.Error().Err(err).Str("grant_id", grant.ID.String()).Msg("Failed to write grant audit entry")
	}
}

// generateCode produces a random 6-digit access code
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

// validateVisit checks a visit payload. Dates strictly after today are
// rejected; the server-side check is authoritative.
func validateVisit(req *models.CreateVisitRequest, now time.Time) error {
	if req.VisitDate.IsZero() {
		return apperrors.NewValidation("visit_date", "is required")
	}
	// Compare calendar days in the visit timestamp's own offset, so a
	// same-day entry near midnight is not rejected by the caller's distance
	// from UTC.
	loc := req.VisitDate.Location()
	vy, vm, vd := req.VisitDate.Date()
	ny, nm, nd := now.In(loc).Date()
	visitDay := time.Date(vy, vm, vd, 0, 0, 0, 0, loc)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)
	if visitDay.After(today) {
		return apperrors.NewValidation("visit_date", "must not be in the future")
	}
	if req.Reason == "" {
		return apperrors.NewValidation("reason", "is required")
	}
	if !req.Status.Valid() {
		return apperrors.NewValidation("status", "must be Scheduled, Completed or Cancelled")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
