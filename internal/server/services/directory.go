package services

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
)

// DirectoryService answers fund searches for approved LPs. Eligibility of the
// listed funds is enforced by the repository query itself.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager) *DirectoryService {
	return &DirectoryService{db: db, repomanager: m}
}

// Search runs the page query and the count query concurrently and wraps the
// result in a paging envelope.
func (s *DirectoryService) Search(ctx context.Context, f models.FundFilter) (*models.FundPage, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Profiles(s.db)

	var (
		funds []*models.FundProfile
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		funds, err = repo.SearchFunds(gctx, f)
		if err != nil {
			return fmt.Errorf("error searching funds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = repo.CountFunds(gctx, f)
		if err != nil {
			return fmt.Errorf("error counting funds: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return models.NewFundPage(funds, f.Page, f.Limit, total), nil
}
