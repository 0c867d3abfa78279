package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

const fundColumns = `fp.id, fp.account_id, fp.fund_name, fp.jurisdiction, fp.description, fp.website,
		 fp.contact_person, fp.contact_email, fp.contact_phone, fp.management_fee, fp.performance_fee,
		 fp.aum, fp.minimum_investment, fp.annual_return, fp.fund_type, fp.investment_strategy,
		 fp.risk_level, fp.registration_number, fp.regulatory_body, fp.is_accredited, fp.deck_key,
		 fp.created_at, fp.updated_at`

const lpColumns = `lp.id, lp.account_id, lp.first_name, lp.last_name, lp.company, lp.investor_type,
		 lp.investment_capacity, lp.preferred_risk_level, lp.investment_horizon, lp.interests,
		 lp.created_at, lp.updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFund(row rowScanner) (*models.FundProfile, error) {
	p := &models.FundProfile{}
	err := row.Scan(&p.ID, &p.AccountID, &p.FundName, &p.Jurisdiction, &p.Description, &p.Website,
		&p.ContactPerson, &p.ContactEmail, &p.ContactPhone, &p.ManagementFee, &p.PerformanceFee,
		&p.AUM, &p.MinimumInvestment, &p.AnnualReturn, &p.FundType, &p.InvestmentStrategy,
		&p.RiskLevel, &p.RegistrationNumber, &p.RegulatoryBody, &p.IsAccredited, &p.DeckKey,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func scanLP(row rowScanner) (*models.LPProfile, error) {
	p := &models.LPProfile{}
	var interests []byte
	err := row.Scan(&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.Company, &p.InvestorType,
		&p.InvestmentCapacity, &p.PreferredRiskLevel, &p.InvestmentHorizon, &interests,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Interests = []string{}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return nil, fmt.Errorf("decode interests: %w", err)
		}
	}
	return p, nil
}

func (r *PostgresRepository) FindFund(ctx context.Context, accountID string) (*models.FundProfile, error) {
	query := `SELECT ` + fundColumns + ` FROM fund_profiles fp WHERE fp.account_id = $1`
	return scanFund(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *PostgresRepository) FindFundForUpdate(ctx context.Context, accountID string) (*models.FundProfile, error) {
	query := `SELECT ` + fundColumns + ` FROM fund_profiles fp WHERE fp.account_id = $1 FOR UPDATE`
	return scanFund(r.db.QueryRowContext(ctx, query, accountID))
}

func fundArgs(p *models.FundProfile, now time.Time) []any {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return []any{
		p.ID, p.AccountID, p.FundName, p.Jurisdiction, p.Description, p.Website,
		p.ContactPerson, p.ContactEmail, p.ContactPhone, p.ManagementFee, p.PerformanceFee,
		p.AUM, p.MinimumInvestment, p.AnnualReturn, p.FundType, p.InvestmentStrategy,
		p.RiskLevel, p.RegistrationNumber, p.RegulatoryBody, p.IsAccredited, p.DeckKey, now,
	}
}

const insertFund = `INSERT INTO fund_profiles (id, account_id, fund_name, jurisdiction, description, website,
		 contact_person, contact_email, contact_phone, management_fee, performance_fee,
		 aum, minimum_investment, annual_return, fund_type, investment_strategy,
		 risk_level, registration_number, regulatory_body, is_accredited, deck_key,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		 $17, $18, $19, $20, $21, $22, $22)`

func (r *PostgresRepository) EnsureFund(ctx context.Context, p *models.FundProfile, now time.Time) error {
	query := insertFund + `
		 ON CONFLICT (account_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, fundArgs(p, now)...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertFund(ctx context.Context, p *models.FundProfile, now time.Time) (*models.FundProfile, error) {
	query := insertFund + `
		 ON CONFLICT (account_id) DO UPDATE SET
		 fund_name = EXCLUDED.fund_name, jurisdiction = EXCLUDED.jurisdiction,
		 description = EXCLUDED.description, website = EXCLUDED.website,
		 contact_person = EXCLUDED.contact_person, contact_email = EXCLUDED.contact_email,
		 contact_phone = EXCLUDED.contact_phone, management_fee = EXCLUDED.management_fee,
		 performance_fee = EXCLUDED.performance_fee, aum = EXCLUDED.aum,
		 minimum_investment = EXCLUDED.minimum_investment, annual_return = EXCLUDED.annual_return,
		 fund_type = EXCLUDED.fund_type, investment_strategy = EXCLUDED.investment_strategy,
		 risk_level = EXCLUDED.risk_level, registration_number = EXCLUDED.registration_number,
		 regulatory_body = EXCLUDED.regulatory_body, is_accredited = EXCLUDED.is_accredited,
		 updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, fundArgs(p, now)...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) SetDeckKey(ctx context.Context, accountID, key string, now time.Time) error {
	query :=
		`UPDATE fund_profiles SET deck_key = $2, updated_at = $3
		 WHERE account_id = $1`

	res, err := r.db.ExecContext(ctx, query, accountID, key, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) FindLP(ctx context.Context, accountID string) (*models.LPProfile, error) {
	query := `SELECT ` + lpColumns + ` FROM lp_profiles lp WHERE lp.account_id = $1`
	return scanLP(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *PostgresRepository) FindLPForUpdate(ctx context.Context, accountID string) (*models.LPProfile, error) {
	query := `SELECT ` + lpColumns + ` FROM lp_profiles lp WHERE lp.account_id = $1 FOR UPDATE`
	return scanLP(r.db.QueryRowContext(ctx, query, accountID))
}

func lpArgs(p *models.LPProfile, now time.Time) ([]any, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	b, err := json.Marshal(interests)
	if err != nil {
		return nil, err
	}
	return []any{
		p.ID, p.AccountID, p.FirstName, p.LastName, p.Company, p.InvestorType,
		p.InvestmentCapacity, p.PreferredRiskLevel, p.InvestmentHorizon, string(b), now,
	}, nil
}

const insertLP = `INSERT INTO lp_profiles (id, account_id, first_name, last_name, company, investor_type,
		 investment_capacity, preferred_risk_level, investment_horizon, interests,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

func (r *PostgresRepository) EnsureLP(ctx context.Context, p *models.LPProfile, now time.Time) error {
	args, err := lpArgs(p, now)
	if err != nil {
		return err
	}
	query := insertLP + `
		 ON CONFLICT (account_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertLP(ctx context.Context, p *models.LPProfile, now time.Time) (*models.LPProfile, error) {
	args, err := lpArgs(p, now)
	if err != nil {
		return nil, err
	}
	query := insertLP + `
		 ON CONFLICT (account_id) DO UPDATE SET
		 first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
		 company = EXCLUDED.company, investor_type = EXCLUDED.investor_type,
		 investment_capacity = EXCLUDED.investment_capacity,
		 preferred_risk_level = EXCLUDED.preferred_risk_level,
		 investment_horizon = EXCLUDED.investment_horizon, interests = EXCLUDED.interests,
		 updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
