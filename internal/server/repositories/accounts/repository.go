package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

// Repository persists accounts. Every write sets updated_at to the now it is
// given; nothing is bumped implicitly.
type Repository interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// MarkEmailVerified flips email_verified and clears the code, but only if
	// the code still matches and has not expired at now. It reports whether a
	// row changed, so a code can be consumed once.
	MarkEmailVerified(ctx context.Context, id, code string, now time.Time) (bool, error)
	SetVerificationCode(ctx context.Context, id, code string, expires, now time.Time) (bool, error)

	SetResetToken(ctx context.Context, id, token string, expires, now time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.Account, error)
	// ConsumeResetToken replaces the hash and clears the token when the token
	// is still valid at now.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string, now time.Time) (bool, error)

	UpdatePasswordHash(ctx context.Context, id, passwordHash string, now time.Time) error
	// UpdateStatus moves an account from one status to another; false means
	// the account was not in status from.
	UpdateStatus(ctx context.Context, id string, from, to models.Status, now time.Time) (bool, error)
}
