// Package models defines the accounts, profiles and directory types shared
// by the repositories, services and transport.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

// Role is the side of the marketplace an account belongs to. It never
// changes after the account is created.
type Role string

const (
	RoleLP   Role = "LP"
	RoleFund Role = "FUND"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleLP, RoleFund:
		return r, nil
	default:
		return "", fmt.Errorf("%w: invalid role", common.ErrorValidation)
	}
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// DefaultStatus is the status an account of the given role starts in:
// funds are approved on signup, LPs wait for manual review.
func DefaultStatus(role Role) Status {
	if role == RoleFund {
		return StatusApproved
	}
	return StatusPending
}

// CanTransitionTo reports whether the approval workflow allows moving from s
// to next. Only PENDING accounts can be decided.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

type Account struct {
	ID                    string
	Email                 string
	PasswordHash          string
	Role                  Role
	Status                Status
	EmailVerified         bool
	VerificationCode      *string
	VerificationExpiresAt *time.Time
	ResetToken            *string
	ResetExpiresAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewAccount builds an unsaved, unverified account with the status the role
// dictates. The email is normalized; passwordHash must already be hashed.
func NewAccount(email, passwordHash string, role Role) *Account {
	return &Account{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		Status:       DefaultStatus(role),
	}
}

// NormalizeEmail trims and lowercases an address; emails match
// case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs a shape check only, deliverability is proven by the
// verification code.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if email == "" || at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	return nil
}

// AccountSummary is the public view of an account returned by the API.
type AccountSummary struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	Status        Status    `json:"status"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Email:         a.Email,
		Role:          a.Role,
		Status:        a.Status,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
	}
}
