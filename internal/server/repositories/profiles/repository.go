package profiles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

// Repository persists fund and LP profiles. Ownership (account_id) is unique
// per table, so every create goes through ON CONFLICT and can never
// produce a second profile for the same account.
type Repository interface {
	FindFund(ctx context.Context, accountID string) (*models.FundProfile, error)
	FindFundForUpdate(ctx context.Context, accountID string) (*models.FundProfile, error)
	// EnsureFund inserts p unless the account already has a fund profile.
	EnsureFund(ctx context.Context, p *models.FundProfile, now time.Time) error
	// UpsertFund writes every field of p, creating the row if needed.
	UpsertFund(ctx context.Context, p *models.FundProfile, now time.Time) (*models.FundProfile, error)
	SetDeckKey(ctx context.Context, accountID, key string, now time.Time) error

	FindLP(ctx context.Context, accountID string) (*models.LPProfile, error)
	FindLPForUpdate(ctx context.Context, accountID string) (*models.LPProfile, error)
	EnsureLP(ctx context.Context, p *models.LPProfile, now time.Time) error
	UpsertLP(ctx context.Context, p *models.LPProfile, now time.Time) (*models.LPProfile, error)

	// SearchFunds and CountFunds only ever see funds whose owner is an
	// approved, verified FUND account.
	SearchFunds(ctx context.Context, f models.FundFilter) ([]*models.FundProfile, error)
	CountFunds(ctx context.Context, f models.FundFilter) (int64, error)
	// FindListedFund loads a fund profile by its own id, subject to the same
	// eligibility as the directory.
	FindListedFund(ctx context.Context, id string) (*models.FundProfile, error)
}
