package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grant audit actions
const (
	AuditActionBound    = "grant_bound"
	AuditActionReaccess = "grant_reaccessed"
	AuditActionWrite    = "grant_visit_added"
)

// GrantAuditLog records who consumed a grant and what they did under it.
// Rows are written on the doctor side of the grant lifecycle and exposed to
// the owning patient only.
type GrantAuditLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	GrantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"grant_id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	DoctorID uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`

	DoctorName string    `gorm:"type:varchar(255)" json:"doctor_name"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	CreatedAt  time.Time `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (GrantAuditLog) TableName() string {
	return "grant_audit_logs"
}

// BeforeCreate hook
func (a *GrantAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
