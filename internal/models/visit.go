package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisitStatus is the lifecycle state of a medical visit
type VisitStatus string

const (
	VisitScheduled VisitStatus = "Scheduled"
	VisitCompleted VisitStatus = "Completed"
	VisitCancelled VisitStatus = "Cancelled"
)

// Valid reports whether s names a known visit status
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitScheduled, VisitCompleted, VisitCancelled:
		return true
	}
	return false
}

// VisitRecord is a single medical visit belonging to one patient. Records are
// created by the owning patient or by a doctor acting under a bound grant,
// and are never deleted.
type VisitRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	VisitDate  time.Time   `gorm:"not null;index" json:"visit_date"`
	DoctorName string      `gorm:"type:varchar(255);not null" json:"doctor_name"`
	Reason     string      `gorm:"type:text;not null" json:"reason"`
	Status     VisitStatus `gorm:"type:varchar(20);not null" json:"status"`
	Notes      string      `gorm:"type:text" json:"notes,omitempty"`

	Prescription *Prescription `gorm:"type:jsonb;serializer:json" json:"prescription,omitempty"`
	Attachments  FileRefList   `gorm:"type:jsonb;serializer:json" json:"attachments,omitempty"`

	CreatedByID   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedByRole Role      `gorm:"type:varchar(20);not null" json:"created_by_role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (VisitRecord) TableName() string {
	return "visit_records"
}

// BeforeCreate hook
func (v *VisitRecord) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Prescription is the structured prescription attached to a visit
type Prescription struct {
	Medications      []PrescribedMedication `json:"medications,omitempty"`
	Advice           string                 `json:"advice,omitempty"`
	RecommendedTests []string               `json:"recommended_tests,omitempty"`
	FollowUpDate     *time.Time             `json:"follow_up_date,omitempty"`
}

// PrescribedMedication is one line of a prescription
type PrescribedMedication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// FileRef points at an uploaded attachment in blob storage
type FileRef struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// FileRefList is a JSON-serialized slice of attachment references
type FileRefList []FileRef

// ChronicCondition is a long-running diagnosis on a patient's record
type ChronicCondition struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName overrides the table name
func (ChronicCondition) TableName() string {
	return "chronic_conditions"
}

// BeforeCreate hook
func (c *ChronicCondition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Medication is an ongoing medication on a patient's record
type Medication struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Dosage    string    `gorm:"type:varchar(255)" json:"dosage,omitempty"`
	Frequency string    `gorm:"type:varchar(255)" json:"frequency,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Medication) TableName() string {
	return "medications"
}

// BeforeCreate hook
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// VisitSummary is the projection a patient sees when choosing what to hide
type VisitSummary struct {
	ID         uuid.UUID   `json:"id"`
	VisitDate  time.Time   `json:"visit_date"`
	DoctorName string      `json:"doctor_name"`
	Reason     string      `json:"reason"`
	Status     VisitStatus `json:"status"`
}

// Summary reduces a visit to its shareable projection
func (v *VisitRecord) Summary() VisitSummary {
	return VisitSummary{
		ID:         v.ID,
		VisitDate:  v.VisitDate,
		DoctorName: v.DoctorName,
		Reason:     v.Reason,
		Status:     v.Status,
	}
}

// CreateVisitRequest is the payload for creating a visit record
type CreateVisitRequest struct {
	VisitDate    time.Time     `json:"visit_date"`
	DoctorName   string        `json:"doctor_name"`
	Reason       string        `json:"reason"`
	Status       VisitStatus   `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	Prescription *Prescription `json:"prescription,omitempty"`
	Attachments  FileRefList   `json:"attachments,omitempty"`
}

// CreateConditionRequest is the payload for recording a chronic condition
type CreateConditionRequest struct {
	Name        string     `json:"name"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// CreateMedicationRequest is the payload for recording a medication
type CreateMedicationRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}
