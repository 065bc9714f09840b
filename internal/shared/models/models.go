package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role values stored on users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account
type User struct {
	ID            string
	Name          string
	Email         string
	Role          string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PaymentStatus is the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentDropped   PaymentStatus = "dropped"
)

// Terminal reports whether no further transition is expected.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed || s == PaymentDropped
}

// PaymentCustomer is the customer block captured from the provider
type PaymentCustomer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PaymentRecord is one persisted payment attempt, keyed by provider
// transaction id (or order id when the provider sent none).
type PaymentRecord struct {
	ID            string
	Status        PaymentStatus
	TotalAmount   decimal.Decimal
	Currency      string
	PaymentMethod string
	UserID        *string
	ErrorCode     *string
	ErrorMessage  *string
	Metadata      map[string]any
	Customer      *PaymentCustomer
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UpsertResult describes what an idempotent payment write did.
type UpsertResult struct {
	// Inserted is true when the row did not exist before the write.
	Inserted bool
	// Status is the status stored after the write.
	Status PaymentStatus
}

// GrantStatus values for admin_grants.status
const (
	GrantActive  = "active"
	GrantRevoked = "revoked"
)

// AdminGrant records premium access granted by an administrator
type AdminGrant struct {
	ID           string
	UserID       string
	GrantedBy    string
	GrantedAt    time.Time
	ExpiresAt    *time.Time
	Reason       string
	Status       string
	RevokedAt    *time.Time
	RevokedBy    *string
	RevokeReason *string
}

// AdminGrantView is a grant joined with its user
type AdminGrantView struct {
	AdminGrant
	UserEmail *string
	UserName  *string
}

// ChatUsage represents a chat request log entry
type ChatUsage struct {
	UserID           *string
	ModelID          string
	Provider         string
	BackendModel     string
	LatencyMs        int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CacheHit         bool
	FailoverUsed     bool
	StatusCode       int
	ErrorMessage     *string
	CreatedAt        time.Time
}
