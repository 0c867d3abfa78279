package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

const accountColumns = `id, email, password_hash, role, status, email_verified,
		 verification_code, verification_expires_at, reset_token, reset_expires_at,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Status, &a.EmailVerified,
		&a.VerificationCode, &a.VerificationExpiresAt, &a.ResetToken, &a.ResetExpiresAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash, role, status, email_verified,
		 verification_code, verification_expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.Role, a.Status, a.EmailVerified,
		a.VerificationCode, a.VerificationExpiresAt, a.CreatedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, "accounts_email_key") {
			return nil, common.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reset_token = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id, code string, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts
		 SET email_verified = TRUE, verification_code = NULL, verification_expires_at = NULL, updated_at = $3
		 WHERE id = $1 AND email_verified = FALSE AND verification_code = $2 AND verification_expires_at > $3`
	return r.exec(ctx, query, id, code, now)
}

func (r *PostgresRepository) SetVerificationCode(ctx context.Context, id, code string, expires, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts
		 SET verification_code = $2, verification_expires_at = $3, updated_at = $4
		 WHERE id = $1 AND email_verified = FALSE`
	return r.exec(ctx, query, id, code, expires, now)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expires, now time.Time) error {
	query :=
		`UPDATE accounts
		 SET reset_token = $2, reset_expires_at = $3, updated_at = $4
		 WHERE id = $1`
	ok, err := r.exec(ctx, query, id, token, expires, now)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts
		 SET password_hash = $3, reset_token = NULL, reset_expires_at = NULL, updated_at = $4
		 WHERE id = $1 AND reset_token = $2 AND reset_expires_at > $4`
	return r.exec(ctx, query, id, token, passwordHash, now)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string, now time.Time) error {
	query :=
		`UPDATE accounts
		 SET password_hash = $2, updated_at = $3
		 WHERE id = $1`
	ok, err := r.exec(ctx, query, id, passwordHash, now)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to models.Status, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts
		 SET status = $3, updated_at = $4
		 WHERE id = $1 AND status = $2`
	return r.exec(ctx, query, id, from, to, now)
}
