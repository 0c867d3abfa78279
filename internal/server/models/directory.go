package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// FundFilter describes a directory search. Zero values mean "no filter";
// Page and Limit fall back to 1 and DefaultPageSize.
type FundFilter struct {
	Search       string
	FundType     FundType
	RiskLevel    RiskLevel
	Jurisdiction string
	MinAUM       *float64
	MaxAUM       *float64
	MinReturn    *float64
	Page         int
	Limit        int
}

// Normalize validates the filter and fills in paging defaults.
func (f *FundFilter) Normalize() error {
	f.Search = strings.TrimSpace(f.Search)
	f.Jurisdiction = strings.TrimSpace(f.Jurisdiction)

	if f.Page == 0 {
		f.Page = 1
	}
	if f.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", common.ErrorValidation)
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit < 1 || f.Limit > MaxPageSize {
		return fmt.Errorf("%w: limit must be between 1 and %d", common.ErrorValidation, MaxPageSize)
	}
	if f.FundType != "" && !f.FundType.Valid() {
		return fmt.Errorf("%w: invalid fundType", common.ErrorValidation)
	}
	if f.RiskLevel != "" && !f.RiskLevel.Valid() {
		return fmt.Errorf("%w: invalid riskLevel", common.ErrorValidation)
	}
	return nil
}

func (f *FundFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type FundPage struct {
	Funds       []*FundProfile `json:"funds"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalCount  int64          `json:"totalCount"`
	HasMore     bool           `json:"hasMore"`
}

// NewFundPage computes the paging envelope for one page of results.
func NewFundPage(funds []*FundProfile, page, limit int, total int64) *FundPage {
	if funds == nil {
		funds = []*FundProfile{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &FundPage{
		Funds:       funds,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasMore:     page < totalPages,
	}
}
