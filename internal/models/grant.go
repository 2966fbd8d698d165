package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GrantLifetime is how long an access grant stays redeemable after issuance.
const GrantLifetime = 30 * time.Minute

// AccessGrant is a patient-issued, time-limited capability. A doctor redeems
// it by presenting the code; the first redeemer binds the grant exclusively.
type AccessGrant struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Code    string    `gorm:"type:varchar(12);not null;index" json:"-"`

	// RedactionList holds ids of the owner's visit records excluded from
	// disclosure. Immutable after creation.
	RedactionList UUIDList `gorm:"type:text" json:"redaction_list"`

	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	ConsumedByID *uuid.UUID `gorm:"type:uuid;index" json:"consumed_by,omitempty"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (AccessGrant) TableName() string {
	return "access_grants"
}

// BeforeCreate hook
func (g *AccessGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Redeemable reports whether the grant can still be presented at time now.
// Expiry is a derived predicate, never a stored state.
func (g *AccessGrant) Redeemable(now time.Time) bool {
	return g.Active && now.Before(g.ExpiresAt)
}

// BoundTo reports whether the grant has been consumed by the given doctor.
func (g *AccessGrant) BoundTo(doctorID uuid.UUID) bool {
	return g.ConsumedByID != nil && *g.ConsumedByID == doctorID
}

// Unbound reports whether no doctor has redeemed the grant yet.
func (g *AccessGrant) Unbound() bool {
	return g.ConsumedByID == nil
}

// Redacted reports whether the given visit id is excluded by this grant.
func (g *AccessGrant) Redacted(visitID uuid.UUID) bool {
	for _, id := range g.RedactionList {
		if id == visitID {
			return true
		}
	}
	return false
}

// RemainingMinutes returns the whole minutes left until expiry, rounded up
// and clamped to zero.
func (g *AccessGrant) RemainingMinutes(now time.Time) int {
	left := g.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}

// IssueGrantRequest is the patient payload for creating a grant
type IssueGrantRequest struct {
	RedactionList []uuid.UUID `json:"redaction_list"`
}

// IssueGrantResponse returns the plaintext code exactly once
type IssueGrantResponse struct {
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
	HiddenCount int       `json:"hidden_count"`
}

// RedeemRequest is the doctor payload for redeeming a code
type RedeemRequest struct {
	Code string `json:"code"`
}

// RedactedBundle is the doctor-facing view of a patient's record under a
// grant. Credential fields are never included.
type RedactedBundle struct {
	Patient          PatientSummary     `json:"patient"`
	Visits           []VisitRecord      `json:"visits"`
	Conditions       []ChronicCondition `json:"conditions"`
	Medications      []Medication       `json:"medications"`
	AccessExpiresAt  time.Time          `json:"access_expires_at"`
	RemainingMinutes int                `json:"remaining_minutes"`
	HiddenVisitCount int                `json:"hidden_visit_count"`
}

// PatientSummary is the identity slice disclosed to a redeeming doctor
type PatientSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Age      int       `json:"age,omitempty"`
	Gender   string    `json:"gender,omitempty"`
	Location string    `json:"location,omitempty"`
}

// GrantStatus is the polling view of a doctor's own binding
type GrantStatus struct {
	Valid            bool      `json:"valid"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RemainingMinutes int       `json:"remaining_minutes"`
	PatientName      string    `json:"patient_name"`
}

// UUIDList stores a uuid slice as a comma-joined text column.
type UUIDList []uuid.UUID

// GormDataType implements schema.GormDataTypeInterface
func (UUIDList) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer
func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	parts := make([]string, len(l))
	for i, id := range l {
		parts[i] = id.String()
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner
func (l *UUIDList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported uuid list source type %T", src)
	}

	if raw == "" {
		*l = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(UUIDList, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("invalid uuid in list: %w", err)
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

var _ schema.GormDataTypeInterface = (UUIDList)(nil)
