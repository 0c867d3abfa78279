// Package services contains the server-side business logic: the signup and
// verification state machine, credentials, profiles, the fund directory and
// fund documents. Services talk to storage only through the repository
// manager, so the same code runs against the pool or inside a transaction.
package services

import (
	"time"

	"github.com/dmitrijs2005/fundconnector/internal/server/auth"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// TokenIssuer mints bearer tokens for an account.
type TokenIssuer interface {
	Issue(a *models.Account, now time.Time) (string, error)
}

var (
	_ PasswordHasher = (*auth.BcryptHasher)(nil)
	_ TokenIssuer    = (*auth.TokenIssuer)(nil)
)

// AuthResult is what a successful login or verification hands back.
type AuthResult struct {
	Token   string
	Account models.AccountSummary
}
