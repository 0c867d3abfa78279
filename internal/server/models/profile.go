package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

const MaxDescriptionLength = 1000

// ProfileKind names the profile variant an account owns.
type ProfileKind string

const (
	ProfileKindFund ProfileKind = "FUND"
	ProfileKindLP   ProfileKind = "LP"
)

// ProfileKindFor returns the only profile variant a role may own.
func ProfileKindFor(role Role) (ProfileKind, error) {
	switch role {
	case RoleFund:
		return ProfileKindFund, nil
	case RoleLP:
		return ProfileKindLP, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
}

// Profile is either a *FundProfile or an *LPProfile. The unexported method
// keeps other packages from adding variants.
type Profile interface {
	Kind() ProfileKind
	Owner() string
	profile()
}

// NewEmptyProfile returns the blank profile an account of the given role
// gets on first access.
func NewEmptyProfile(accountID string, role Role) (Profile, error) {
	kind, err := ProfileKindFor(role)
	if err != nil {
		return nil, err
	}
	if kind == ProfileKindFund {
		return NewFundProfile(accountID), nil
	}
	return &LPProfile{AccountID: accountID}, nil
}

type FundProfile struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"accountId"`
	FundName           string    `json:"fundName"`
	Jurisdiction       string    `json:"jurisdiction"`
	Description        string    `json:"description"`
	Website            string    `json:"website"`
	ContactPerson      string    `json:"contactPerson"`
	ContactEmail       string    `json:"contactEmail"`
	ContactPhone       string    `json:"contactPhone"`
	ManagementFee      *float64  `json:"managementFee"`
	PerformanceFee     *float64  `json:"performanceFee"`
	AUM                *float64  `json:"assetsUnderManagement"`
	MinimumInvestment  *float64  `json:"minimumInvestment"`
	AnnualReturn       *float64  `json:"annualReturn"`
	FundType           FundType  `json:"fundType"`
	InvestmentStrategy string    `json:"investmentStrategy"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	RegistrationNumber string    `json:"registrationNumber"`
	RegulatoryBody     string    `json:"regulatoryBody"`
	IsAccredited       bool      `json:"isAccredited"`
	DeckKey            string    `json:"deckKey,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewFundProfile returns an empty fund profile carrying the category defaults.
func NewFundProfile(accountID string) *FundProfile {
	return &FundProfile{
		AccountID: accountID,
		FundType:  FundTypeCryptoFund,
		RiskLevel: RiskHigh,
	}
}

func (p *FundProfile) Kind() ProfileKind { return ProfileKindFund }
func (p *FundProfile) Owner() string     { return p.AccountID }
func (p *FundProfile) profile()          {}

type LPProfile struct {
	ID                 string       `json:"id"`
	AccountID          string       `json:"accountId"`
	FirstName          string       `json:"firstName"`
	LastName           string       `json:"lastName"`
	Company            string       `json:"company"`
	InvestorType       InvestorType `json:"investorType"`
	InvestmentCapacity *float64     `json:"investmentCapacity"`
	PreferredRiskLevel RiskLevel    `json:"preferredRiskLevel"`
	InvestmentHorizon  string       `json:"investmentHorizon"`
	Interests          []string     `json:"interests"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

func (p *LPProfile) Kind() ProfileKind { return ProfileKindLP }
func (p *LPProfile) Owner() string     { return p.AccountID }
func (p *LPProfile) profile()          {}

// FundProfilePatch carries the writable fund fields. A nil pointer or an
// unset number leaves the stored value alone. Identity and timestamp fields
// are not part of the type, so clients cannot overwrite them.
type FundProfilePatch struct {
	FundName           *string        `json:"fundName,omitempty"`
	Jurisdiction       *string        `json:"jurisdiction,omitempty"`
	Description        *string        `json:"description,omitempty"`
	Website            *string        `json:"website,omitempty"`
	ContactPerson      *string        `json:"contactPerson,omitempty"`
	ContactEmail       *string        `json:"contactEmail,omitempty"`
	ContactPhone       *string        `json:"contactPhone,omitempty"`
	ManagementFee      OptionalNumber `json:"managementFee"`
	PerformanceFee     OptionalNumber `json:"performanceFee"`
	AUM                OptionalNumber `json:"assetsUnderManagement"`
	MinimumInvestment  OptionalNumber `json:"minimumInvestment"`
	AnnualReturn       OptionalNumber `json:"annualReturn"`
	FundType           *FundType      `json:"fundType,omitempty"`
	InvestmentStrategy *string        `json:"investmentStrategy,omitempty"`
	RiskLevel          *RiskLevel     `json:"riskLevel,omitempty"`
	RegistrationNumber *string        `json:"registrationNumber,omitempty"`
	RegulatoryBody     *string        `json:"regulatoryBody,omitempty"`
	IsAccredited       *bool          `json:"isAccredited,omitempty"`
}

// ValidateRequired checks the fields a profile update must always carry.
func (p *FundProfilePatch) ValidateRequired() error {
	if err := required("fundName", p.FundName); err != nil {
		return err
	}
	if err := required("jurisdiction", p.Jurisdiction); err != nil {
		return err
	}
	return required("contactPerson", p.ContactPerson)
}

// Validate checks ranges, enums and lengths of whatever the patch sets.
func (p *FundProfilePatch) Validate() error {
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", common.ErrorValidation, MaxDescriptionLength)
	}
	if err := inRange("managementFee", p.ManagementFee, 0, 100); err != nil {
		return err
	}
	if err := inRange("performanceFee", p.PerformanceFee, 0, 100); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		n    OptionalNumber
	}{
		{"assetsUnderManagement", p.AUM},
		{"minimumInvestment", p.MinimumInvestment},
		{"annualReturn", p.AnnualReturn},
	} {
		if err := nonNegative(f.name, f.n); err != nil {
			return err
		}
	}
	if p.FundType != nil && *p.FundType != "" && !p.FundType.Valid() {
		return fmt.Errorf("%w: invalid fundType", common.ErrorValidation)
	}
	if p.RiskLevel != nil && *p.RiskLevel != "" && !p.RiskLevel.Valid() {
		return fmt.Errorf("%w: invalid riskLevel", common.ErrorValidation)
	}
	return nil
}

// Apply merges the patch into p. Text is stored as sent; empty enum values
// keep the current category.
func (p *FundProfile) Apply(patch *FundProfilePatch) {
	setText(&p.FundName, patch.FundName)
	setText(&p.Jurisdiction, patch.Jurisdiction)
	setText(&p.Description, patch.Description)
	setText(&p.Website, patch.Website)
	setText(&p.ContactPerson, patch.ContactPerson)
	setText(&p.ContactEmail, patch.ContactEmail)
	setText(&p.ContactPhone, patch.ContactPhone)
	setNumber(&p.ManagementFee, patch.ManagementFee)
	setNumber(&p.PerformanceFee, patch.PerformanceFee)
	setNumber(&p.AUM, patch.AUM)
	setNumber(&p.MinimumInvestment, patch.MinimumInvestment)
	setNumber(&p.AnnualReturn, patch.AnnualReturn)
	if patch.FundType != nil && *patch.FundType != "" {
		p.FundType = *patch.FundType
	}
	setText(&p.InvestmentStrategy, patch.InvestmentStrategy)
	if patch.RiskLevel != nil && *patch.RiskLevel != "" {
		p.RiskLevel = *patch.RiskLevel
	}
	setText(&p.RegistrationNumber, patch.RegistrationNumber)
	setText(&p.RegulatoryBody, patch.RegulatoryBody)
	if patch.IsAccredited != nil {
		p.IsAccredited = *patch.IsAccredited
	}
}

type LPProfilePatch struct {
	FirstName          *string        `json:"firstName,omitempty"`
	LastName           *string        `json:"lastName,omitempty"`
	Company            *string        `json:"company,omitempty"`
	InvestorType       *InvestorType  `json:"investorType,omitempty"`
	InvestmentCapacity OptionalNumber `json:"investmentCapacity"`
	PreferredRiskLevel *RiskLevel     `json:"preferredRiskLevel,omitempty"`
	InvestmentHorizon  *string        `json:"investmentHorizon,omitempty"`
	Interests          *[]string      `json:"interests,omitempty"`
}

func (p *LPProfilePatch) ValidateRequired() error {
	if err := required("firstName", p.FirstName); err != nil {
		return err
	}
	if err := required("lastName", p.LastName); err != nil {
		return err
	}
	return p.validateInvestorType()
}

func (p *LPProfilePatch) validateInvestorType() error {
	if p.InvestorType == nil || strings.TrimSpace(string(*p.InvestorType)) == "" {
		return fmt.Errorf("%w: investorType is required", common.ErrorValidation)
	}
	if !InvestorType(strings.TrimSpace(string(*p.InvestorType))).Valid() {
		return fmt.Errorf("%w: invalid investorType", common.ErrorValidation)
	}
	return nil
}

func (p *LPProfilePatch) Validate() error {
	if p.InvestorType != nil && *p.InvestorType != "" {
		if err := p.validateInvestorType(); err != nil {
			return err
		}
	}
	if err := nonNegative("investmentCapacity", p.InvestmentCapacity); err != nil {
		return err
	}
	if p.PreferredRiskLevel != nil && *p.PreferredRiskLevel != "" && !p.PreferredRiskLevel.Valid() {
		return fmt.Errorf("%w: invalid preferredRiskLevel", common.ErrorValidation)
	}
	return nil
}

func (p *LPProfile) Apply(patch *LPProfilePatch) {
	setText(&p.FirstName, patch.FirstName)
	setText(&p.LastName, patch.LastName)
	setText(&p.Company, patch.Company)
	if patch.InvestorType != nil && *patch.InvestorType != "" {
		p.InvestorType = InvestorType(strings.TrimSpace(string(*patch.InvestorType)))
	}
	setNumber(&p.InvestmentCapacity, patch.InvestmentCapacity)
	if patch.PreferredRiskLevel != nil && *patch.PreferredRiskLevel != "" {
		p.PreferredRiskLevel = *patch.PreferredRiskLevel
	}
	setText(&p.InvestmentHorizon, patch.InvestmentHorizon)
	if patch.Interests != nil {
		p.Interests = append(make([]string, 0, len(*patch.Interests)), *patch.Interests...)
	}
}

func required(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fmt.Errorf("%w: %s is required", common.ErrorValidation, field)
	}
	return nil
}

func nonNegative(field string, n OptionalNumber) error {
	if n.Value != nil && *n.Value < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrorValidation, field)
	}
	return nil
}

func inRange(field string, n OptionalNumber, lo, hi float64) error {
	if n.Value != nil && (*n.Value < lo || *n.Value > hi) {
		return fmt.Errorf("%w: %s must be between %g and %g", common.ErrorValidation, field, lo, hi)
	}
	return nil
}

func setText(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setNumber(dst **float64, n OptionalNumber) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
