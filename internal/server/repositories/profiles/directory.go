package profiles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

// listedFunds is the FROM/WHERE prefix every directory query starts with.
// The eligibility predicate is fixed and cannot be widened by filters.
const listedFunds = `FROM fund_profiles fp
		 JOIN accounts a ON a.id = fp.account_id
		 WHERE a.role = 'FUND' AND a.status = 'APPROVED' AND a.email_verified = TRUE`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into an ILIKE substring pattern with the
// wildcard characters taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// buildFundFilter returns the extra WHERE conditions for f and their
// positional arguments.
func buildFundFilter(f models.FundFilter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Search != "" {
		p := next(containsPattern(f.Search))
		fmt.Fprintf(&sb, `
		 AND (fp.fund_name ILIKE %[1]s ESCAPE '\' OR fp.description ILIKE %[1]s ESCAPE '\' OR fp.investment_strategy ILIKE %[1]s ESCAPE '\')`, p)
	}
	if f.FundType != "" {
		fmt.Fprintf(&sb, "\n\t\t AND fp.fund_type = %s", next(string(f.FundType)))
	}
	if f.RiskLevel != "" {
		fmt.Fprintf(&sb, "\n\t\t AND fp.risk_level = %s", next(string(f.RiskLevel)))
	}
	if f.MinAUM != nil {
		fmt.Fprintf(&sb, "\n\t\t AND fp.aum >= %s", next(*f.MinAUM))
	}
	if f.MaxAUM != nil {
		fmt.Fprintf(&sb, "\n\t\t AND fp.aum <= %s", next(*f.MaxAUM))
	}
	if f.MinReturn != nil {
		fmt.Fprintf(&sb, "\n\t\t AND fp.annual_return >= %s", next(*f.MinReturn))
	}
	if f.Jurisdiction != "" {
		fmt.Fprintf(&sb, "\n\t\t AND fp.jurisdiction ILIKE %s ESCAPE '\\'", next(containsPattern(f.Jurisdiction)))
	}

	return sb.String(), args
}

func buildSearchQuery(f models.FundFilter) (string, []any) {
	where, args := buildFundFilter(f)
	args = append(args, f.Limit, f.Offset())
	query := `SELECT ` + fundColumns + `
		 ` + listedFunds + where + `
		 ORDER BY fp.created_at DESC, fp.id DESC
		 LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	return query, args
}

func buildCountQuery(f models.FundFilter) (string, []any) {
	where, args := buildFundFilter(f)
	return `SELECT COUNT(*)
		 ` + listedFunds + where, args
}

func (r *PostgresRepository) SearchFunds(ctx context.Context, f models.FundFilter) ([]*models.FundProfile, error) {
	query, args := buildSearchQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	funds := []*models.FundProfile{}
	for rows.Next() {
		p, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		funds = append(funds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return funds, nil
}

func (r *PostgresRepository) CountFunds(ctx context.Context, f models.FundFilter) (int64, error) {
	query, args := buildCountQuery(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) FindListedFund(ctx context.Context, id string) (*models.FundProfile, error) {
	query := `SELECT ` + fundColumns + `
		 ` + listedFunds + `
		 AND fp.id = $1`
	return scanFund(r.db.QueryRowContext(ctx, query, id))
}
