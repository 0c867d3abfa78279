package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/auth"
	"github.com/dmitrijs2005/fundconnector/internal/server/config"
	"github.com/dmitrijs2005/fundconnector/internal/server/mailer"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
)

const mailTimeout = 30 * time.Second

// AccountService drives an account through signup, email verification,
// approval and credential changes:
//
//	UNVERIFIED -> VERIFIED_PENDING -> VERIFIED_APPROVED | VERIFIED_REJECTED
//
// FUND accounts skip the pending step because they start out approved.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	logger      logging.Logger

	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time

	codeTTL    time.Duration
	resetTTL   time.Duration
	appBaseURL string

	mailWG sync.WaitGroup
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	ml mailer.Mailer, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		mailer:      ml,
		logger:      logger.With("module", "accounts"),
		hasher:      auth.NewBcryptHasher(),
		tokens:      auth.NewTokenIssuer(cfg.SecretKey, cfg.AccessTokenValidityDuration),
		now:         time.Now,
		codeTTL:     cfg.VerificationCodeValidityDuration,
		resetTTL:    cfg.ResetTokenValidityDuration,
		appBaseURL:  strings.TrimRight(cfg.AppBaseURL, "/"),
	}
}

// Register validates the request, then creates the account and its role
// profile in one transaction. The verification code is mailed in the
// background; a delivery failure is logged and does not fail the signup.
func (s *AccountService) Register(ctx context.Context, r *models.Registration) (*models.Account, error) {
	r.Email = models.NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, r.Email); err == nil {
		return nil, common.ErrDuplicateAccount
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	code, err := common.GenerateNumericCode(common.VerificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("error generating verification code: %w", err)
	}

	now := s.now()
	expires := now.Add(s.codeTTL)

	account := models.NewAccount(r.Email, hash, r.Role)
	account.ID = uuid.NewString()
	account.VerificationCode = &code
	account.VerificationExpiresAt = &expires
	account.CreatedAt = now

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Accounts(tx).Create(ctx, account)
		if err != nil {
			return err
		}
		account = created
		return ensureProfile(ctx, s.repomanager, tx, r.InitialProfile(created.ID), now)
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID, "role", account.Role, "status", account.Status)
	s.sendVerificationAsync(account.Email, code)

	return account, nil
}

func (s *AccountService) sendVerificationAsync(email, code string) {
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
			s.logger.Error(ctx, "failed to send verification email", "email", email, "error", err)
		}
	}()
}

// WaitForMail blocks until background verification mails have been handed
// to the mailer or ctx is done.
func (s *AccountService) WaitForMail(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mailWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VerifyEmail consumes the outstanding code. The code must match and now must
// be strictly before its expiry; a code works at most once.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and verification code are required", common.ErrorValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	now := s.now()
	if account.EmailVerified || !codeMatches(account, code, now) {
		return nil, common.ErrInvalidOrExpiredCode
	}

	ok, err := repo.MarkEmailVerified(ctx, account.ID, code, now)
	if err != nil {
		return nil, fmt.Errorf("error verifying email: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidOrExpiredCode
	}

	account.EmailVerified = true
	account.VerificationCode = nil
	account.VerificationExpiresAt = nil
	account.UpdatedAt = now

	s.logger.Info(ctx, "email verified", "account_id", account.ID)
	return s.issue(account, now)
}

func codeMatches(a *models.Account, code string, now time.Time) bool {
	if a.VerificationCode == nil || a.VerificationExpiresAt == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*a.VerificationCode), []byte(code)) != 1 {
		return false
	}
	return now.Before(*a.VerificationExpiresAt)
}

// ResendVerification replaces the outstanding code of an unverified account
// and mails it. Unknown and already verified emails are silently ignored so
// the reply never reveals which addresses exist.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	if err := models.ValidateEmail(email); err != nil {
		return err
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error looking up account: %w", err)
	}
	if account.EmailVerified {
		return nil
	}

	code, err := common.GenerateNumericCode(common.VerificationCodeLength)
	if err != nil {
		return fmt.Errorf("error generating verification code: %w", err)
	}
	now := s.now()
	ok, err := repo.SetVerificationCode(ctx, account.ID, code, now.Add(s.codeTTL), now)
	if err != nil {
		return fmt.Errorf("error storing verification code: %w", err)
	}
	if !ok {
		return nil
	}

	if err := s.mailer.SendVerificationCode(ctx, account.Email, code); err != nil {
		s.logger.Error(ctx, "failed to send verification email", "account_id", account.ID, "error", err)
		return common.ErrorInternal
	}
	return nil
}

// Login checks that the email is verified before looking at the password.
// Approval status is not checked here; gated endpoints do that.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	if !account.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	ok, err := s.hasher.Compare(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(account, s.now())
}

// Me returns the public view of an account.
func (s *AccountService) Me(ctx context.Context, accountID string) (*models.AccountSummary, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary := account.Summary()
	return &summary, nil
}

// Get loads an account by id; unknown ids yield common.ErrorNotFound.
func (s *AccountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, common.ErrorNotFound
	}
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account, nil
}

// GetByEmail loads an account by email, matched case-insensitively.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account, nil
}

// RequestPasswordReset stores a fresh reset token and mails the link. Unknown
// emails succeed without doing anything.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := models.ValidateEmail(email); err != nil {
		return err
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error looking up account: %w", err)
	}

	token, err := common.MakeRandHexString(common.ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}
	now := s.now()
	if err := repo.SetResetToken(ctx, account.ID, token, now.Add(s.resetTTL), now); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, account.Email, s.resetLink(token)); err != nil {
		s.logger.Error(ctx, "failed to send password reset email", "account_id", account.ID, "error", err)
		return common.ErrorInternal
	}
	return nil
}

func (s *AccountService) resetLink(token string) string {
	return s.appBaseURL + "/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword sets a new password using a reset token. The token is
// cleared in the same statement, so it cannot be replayed.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.ErrInvalidOrExpiredToken
	}
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("error looking up reset token: %w", err)
	}

	now := s.now()
	if account.ResetExpiresAt == nil || !now.Before(*account.ResetExpiresAt) {
		return common.ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	ok, err := repo.ConsumeResetToken(ctx, account.ID, token, hash, now)
	if err != nil {
		return fmt.Errorf("error resetting password: %w", err)
	}
	if !ok {
		return common.ErrInvalidOrExpiredToken
	}

	s.logger.Info(ctx, "password reset", "account_id", account.ID)
	return nil
}

// ChangePassword replaces the password of an authenticated account after
// checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", common.ErrorValidation)
	}
	if err := checkPasswordStrength(next); err != nil {
		return err
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(account.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return common.ErrInvalidCurrentPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.repomanager.Accounts(s.db).UpdatePasswordHash(ctx, account.ID, hash, s.now()); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

// Approve moves a pending account to APPROVED.
func (s *AccountService) Approve(ctx context.Context, email string) (*models.Account, error) {
	return s.decide(ctx, email, models.StatusApproved)
}

// Reject moves a pending account to REJECTED.
func (s *AccountService) Reject(ctx context.Context, email string) (*models.Account, error) {
	return s.decide(ctx, email, models.StatusRejected)
}

func (s *AccountService) decide(ctx context.Context, email string, to models.Status) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	if !account.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", common.ErrInvalidTransition, account.Status, to)
	}

	now := s.now()
	ok, err := repo.UpdateStatus(ctx, account.ID, account.Status, to, now)
	if err != nil {
		return nil, fmt.Errorf("error updating status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", common.ErrInvalidTransition)
	}

	account.Status = to
	account.UpdatedAt = now
	s.logger.Info(ctx, "account status changed", "account_id", account.ID, "status", to)
	return account, nil
}

// Provision creates an account that is already verified and approved, with
// an empty profile. It backs operator tooling, not public signup.
func (s *AccountService) Provision(ctx context.Context, email, password string, role models.Role) (*models.Account, error) {
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := checkPasswordStrength(password); err != nil {
		return nil, err
	}
	if _, err := models.ProfileKindFor(role); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := s.now()
	account := models.NewAccount(email, hash, role)
	account.ID = uuid.NewString()
	account.EmailVerified = true
	account.Status = models.StatusApproved
	account.CreatedAt = now

	profile, err := models.NewEmptyProfile(account.ID, role)
	if err != nil {
		return nil, err
	}
	if fp, ok := profile.(*models.FundProfile); ok {
		fp.ContactEmail = account.Email
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Accounts(tx).Create(ctx, account)
		if err != nil {
			return err
		}
		account = created
		return ensureProfile(ctx, s.repomanager, tx, profile, now)
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return account, nil
}

func (s *AccountService) issue(a *models.Account, now time.Time) (*AuthResult, error) {
	token, err := s.tokens.Issue(a, now)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &AuthResult{Token: token, Account: a.Summary()}, nil
}

func checkPasswordStrength(password string) error {
	return models.CheckPasswordLength(password)
}
