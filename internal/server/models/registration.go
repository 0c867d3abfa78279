package models

import (
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

// Registration is a signup request: credentials, the chosen role and the
// initial profile fields for that role. The patch of the other role is ignored.
type Registration struct {
	Email    string
	Password string
	Role     Role
	Fund     FundProfilePatch
	LP       LPProfilePatch
}

// Validate rejects a registration before anything is written.
func (r *Registration) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if err := CheckPasswordLength(r.Password); err != nil {
		return err
	}
	switch r.Role {
	case RoleFund:
		if err := required("fundName", r.Fund.FundName); err != nil {
			return err
		}
		if err := required("jurisdiction", r.Fund.Jurisdiction); err != nil {
			return err
		}
		return r.Fund.Validate()
	case RoleLP:
		if err := r.LP.validateInvestorType(); err != nil {
			return err
		}
		return r.LP.Validate()
	default:
		return fmt.Errorf("%w: invalid role", common.ErrorValidation)
	}
}

// CheckPasswordLength enforces the length bounds shared by signup, reset,
// change and provisioning.
func CheckPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return common.ErrWeakPassword
	}
	if len(password) > common.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, common.MaxPasswordBytes)
	}
	return nil
}

// InitialProfile builds the profile created together with the account.
// Contact email falls back to the signup email; an LP's preferred risk
// defaults to MEDIUM.
func (r *Registration) InitialProfile(accountID string) Profile {
	if r.Role == RoleFund {
		p := NewFundProfile(accountID)
		p.Apply(&r.Fund)
		if p.ContactEmail == "" {
			p.ContactEmail = NormalizeEmail(r.Email)
		}
		return p
	}
	p := &LPProfile{AccountID: accountID, PreferredRiskLevel: RiskMedium}
	p.Apply(&r.LP)
	return p
}
