package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
)

// ProfilePatch carries the update for whichever profile variant the caller
// owns. Only the patch matching the account's role is looked at.
type ProfilePatch struct {
	Fund *models.FundProfilePatch
	LP   *models.LPProfilePatch
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "profiles"),
		now:         time.Now,
	}
}

// Get returns the caller's profile, provisioning an empty one first if the
// account has none yet.
func (s *ProfileService) Get(ctx context.Context, account *models.Account) (models.Profile, error) {
	empty, err := models.NewEmptyProfile(account.ID, account.Role)
	if err != nil {
		return nil, err
	}

	if err := ensureProfile(ctx, s.repomanager, s.db, empty, s.now()); err != nil {
		return nil, fmt.Errorf("error provisioning profile: %w", err)
	}

	repo := s.repomanager.Profiles(s.db)
	var p models.Profile
	switch empty.Kind() {
	case models.ProfileKindFund:
		p, err = repo.FindFund(ctx, account.ID)
	default:
		p, err = repo.FindLP(ctx, account.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

// Update validates the patch, then merges it into the stored profile and
// writes it back under a row lock. A missing profile is created.
func (s *ProfileService) Update(ctx context.Context, account *models.Account, patch ProfilePatch) (models.Profile, error) {
	kind, err := models.ProfileKindFor(account.Role)
	if err != nil {
		return nil, err
	}

	if kind == models.ProfileKindFund {
		if patch.Fund == nil {
			return nil, fmt.Errorf("%w: fund profile fields are required", common.ErrorValidation)
		}
		if err := patch.Fund.ValidateRequired(); err != nil {
			return nil, err
		}
		if err := patch.Fund.Validate(); err != nil {
			return nil, err
		}
	} else {
		if patch.LP == nil {
			return nil, fmt.Errorf("%w: investor profile fields are required", common.ErrorValidation)
		}
		if err := patch.LP.ValidateRequired(); err != nil {
			return nil, err
		}
		if err := patch.LP.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var out models.Profile
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)

		if kind == models.ProfileKindFund {
			p, err := repo.FindFundForUpdate(ctx, account.ID)
			if errors.Is(err, common.ErrorNotFound) {
				p, err = models.NewFundProfile(account.ID), nil
			}
			if err != nil {
				return err
			}
			p.Apply(patch.Fund)
			saved, err := repo.UpsertFund(ctx, p, now)
			if err != nil {
				return err
			}
			out = saved
			return nil
		}

		p, err := repo.FindLPForUpdate(ctx, account.ID)
		if errors.Is(err, common.ErrorNotFound) {
			p, err = &models.LPProfile{AccountID: account.ID}, nil
		}
		if err != nil {
			return err
		}
		p.Apply(patch.LP)
		saved, err := repo.UpsertLP(ctx, p, now)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	s.logger.Info(ctx, "profile updated", "account_id", account.ID, "kind", kind)
	return out, nil
}

// ensureProfile inserts p unless its owner already has a profile.
func ensureProfile(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, p models.Profile, now time.Time) error {
	repo := m.Profiles(db)
	switch v := p.(type) {
	case *models.FundProfile:
		return repo.EnsureFund(ctx, v, now)
	case *models.LPProfile:
		return repo.EnsureLP(ctx, v, now)
	default:
		return fmt.Errorf("%w: unsupported profile %T", common.ErrorValidation, p)
	}
}
