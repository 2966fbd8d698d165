package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a durable account role
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r names a known role
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// ApprovalStatus tracks the doctor sign-up workflow
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Account represents a registered user. The same email may hold a patient
// account and a separate doctor account; (email, role) is unique.
type Account struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_email_role" json:"email"`
	Role         Role           `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_email_role" json:"role"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	PasswordHash string         `gorm:"type:text;not null" json:"-"`
	Age          int            `json:"age,omitempty"`
	Gender       string         `gorm:"type:varchar(20)" json:"gender,omitempty"`
	Location     string         `gorm:"type:varchar(255)" json:"location,omitempty"`
	Specialty    string         `gorm:"type:varchar(255)" json:"specialty,omitempty"`
	Approval     ApprovalStatus `gorm:"type:varchar(20);not null;default:'approved';index" json:"approval"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate hook
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CanLogin reports whether the account may authenticate. Doctors must be
// approved first; patients and admins always may.
func (a *Account) CanLogin() bool {
	if a.Role != RoleDoctor {
		return true
	}
	return a.Approval == ApprovalApproved
}

// TokenClaims are the custom JWT claims. The Role here is a hint only; the
// durable role is re-read from storage on every request.
type TokenClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	RoleHint  Role      `json:"role"`
	jwt.RegisteredClaims
}

// CallerIdentity is the resolved identity attached to a request context
// after authentication.
type CallerIdentity struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Location  string `json:"location,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// LoginRequest is the sign-in payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"account"`
}
