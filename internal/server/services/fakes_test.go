package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/profiles"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// newTxDB returns a sqlmock handle that accepts any number of transactions
// up to n, in any order. The in-memory repositories ignore the handle.
func newTxDB(t *testing.T, n int) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// memStore is an in-memory stand-in for both tables. It mirrors the
// conditional updates and the one-profile-per-account rule of the SQL.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	funds    map[string]*models.FundProfile
	lps      map[string]*models.LPProfile

	inserts int
	failAll error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		funds:    map[string]*models.FundProfile{},
		lps:      map[string]*models.LPProfile{},
	}
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return &memAccounts{m.s} }
func (m *memRepoManager) Profiles(dbx.DBTX) profiles.Repository       { return &memProfiles{m.s} }

func copyAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

type memAccounts struct{ s *memStore }

func (r *memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	for _, x := range r.s.accounts {
		if x.Email == a.Email {
			return nil, common.ErrDuplicateAccount
		}
	}
	c := copyAccount(a)
	c.UpdatedAt = c.CreatedAt
	r.s.accounts[c.ID] = c
	return copyAccount(c), nil
}

func (r *memAccounts) find(match func(*models.Account) bool) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	for _, a := range r.s.accounts {
		if match(a) {
			return copyAccount(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.ID == id })
}

func (r *memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *memAccounts) GetByResetToken(_ context.Context, token string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.ResetToken != nil && *a.ResetToken == token })
}

func (r *memAccounts) update(id string, fn func(a *models.Account) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return false, r.s.failAll
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return false, nil
	}
	return fn(a), nil
}

func (r *memAccounts) MarkEmailVerified(_ context.Context, id, code string, now time.Time) (bool, error) {
	return r.update(id, func(a *models.Account) bool {
		if a.EmailVerified || a.VerificationCode == nil || *a.VerificationCode != code ||
			a.VerificationExpiresAt == nil || !a.VerificationExpiresAt.After(now) {
			return false
		}
		a.EmailVerified = true
		a.VerificationCode, a.VerificationExpiresAt = nil, nil
		a.UpdatedAt = now
		return true
	})
}

func (r *memAccounts) SetVerificationCode(_ context.Context, id, code string, expires, now time.Time) (bool, error) {
	return r.update(id, func(a *models.Account) bool {
		if a.EmailVerified {
			return false
		}
		a.VerificationCode, a.VerificationExpiresAt = &code, &expires
		a.UpdatedAt = now
		return true
	})
}

func (r *memAccounts) SetResetToken(_ context.Context, id, token string, expires, now time.Time) error {
	ok, err := r.update(id, func(a *models.Account) bool {
		a.ResetToken, a.ResetExpiresAt = &token, &expires
		a.UpdatedAt = now
		return true
	})
	if err == nil && !ok {
		return common.ErrorNotFound
	}
	return err
}

func (r *memAccounts) ConsumeResetToken(_ context.Context, id, token, hash string, now time.Time) (bool, error) {
	return r.update(id, func(a *models.Account) bool {
		if a.ResetToken == nil || *a.ResetToken != token || a.ResetExpiresAt == nil || !a.ResetExpiresAt.After(now) {
			return false
		}
		a.PasswordHash = hash
		a.ResetToken, a.ResetExpiresAt = nil, nil
		a.UpdatedAt = now
		return true
	})
}

func (r *memAccounts) UpdatePasswordHash(_ context.Context, id, hash string, now time.Time) error {
	ok, err := r.update(id, func(a *models.Account) bool {
		a.PasswordHash = hash
		a.UpdatedAt = now
		return true
	})
	if err == nil && !ok {
		return common.ErrorNotFound
	}
	return err
}

func (r *memAccounts) UpdateStatus(_ context.Context, id string, from, to models.Status, now time.Time) (bool, error) {
	return r.update(id, func(a *models.Account) bool {
		if a.Status != from {
			return false
		}
		a.Status = to
		a.UpdatedAt = now
		return true
	})
}

type memProfiles struct{ s *memStore }

func copyFund(p *models.FundProfile) *models.FundProfile {
	c := *p
	return &c
}

func copyLP(p *models.LPProfile) *models.LPProfile {
	c := *p
	c.Interests = append([]string(nil), p.Interests...)
	return &c
}

func (r *memProfiles) FindFund(_ context.Context, accountID string) (*models.FundProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	p, ok := r.s.funds[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyFund(p), nil
}

func (r *memProfiles) FindFundForUpdate(ctx context.Context, accountID string) (*models.FundProfile, error) {
	return r.FindFund(ctx, accountID)
}

func (r *memProfiles) EnsureFund(_ context.Context, p *models.FundProfile, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return r.s.failAll
	}
	if _, ok := r.s.funds[p.AccountID]; ok {
		return nil
	}
	c := copyFund(p)
	c.ID, c.CreatedAt, c.UpdatedAt = uuid.NewString(), now, now
	r.s.funds[p.AccountID] = c
	r.s.inserts++
	return nil
}

func (r *memProfiles) UpsertFund(_ context.Context, p *models.FundProfile, now time.Time) (*models.FundProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	c := copyFund(p)
	if cur, ok := r.s.funds[p.AccountID]; ok {
		c.ID, c.CreatedAt, c.DeckKey = cur.ID, cur.CreatedAt, cur.DeckKey
	} else {
		c.ID, c.CreatedAt = uuid.NewString(), now
		r.s.inserts++
	}
	c.UpdatedAt = now
	r.s.funds[p.AccountID] = c
	return copyFund(c), nil
}

func (r *memProfiles) SetDeckKey(_ context.Context, accountID, key string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return r.s.failAll
	}
	p, ok := r.s.funds[accountID]
	if !ok {
		return common.ErrorNotFound
	}
	p.DeckKey, p.UpdatedAt = key, now
	return nil
}

func (r *memProfiles) FindLP(_ context.Context, accountID string) (*models.LPProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	p, ok := r.s.lps[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyLP(p), nil
}

func (r *memProfiles) FindLPForUpdate(ctx context.Context, accountID string) (*models.LPProfile, error) {
	return r.FindLP(ctx, accountID)
}

func (r *memProfiles) EnsureLP(_ context.Context, p *models.LPProfile, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return r.s.failAll
	}
	if _, ok := r.s.lps[p.AccountID]; ok {
		return nil
	}
	c := copyLP(p)
	c.ID, c.CreatedAt, c.UpdatedAt = uuid.NewString(), now, now
	r.s.lps[p.AccountID] = c
	r.s.inserts++
	return nil
}

func (r *memProfiles) UpsertLP(_ context.Context, p *models.LPProfile, now time.Time) (*models.LPProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	c := copyLP(p)
	if cur, ok := r.s.lps[p.AccountID]; ok {
		c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		c.ID, c.CreatedAt = uuid.NewString(), now
		r.s.inserts++
	}
	c.UpdatedAt = now
	r.s.lps[p.AccountID] = c
	return copyLP(c), nil
}

// listed applies the directory eligibility rule and the filter, newest first.
func (r *memProfiles) listed(f models.FundFilter) []*models.FundProfile {
	var out []*models.FundProfile
	for accountID, p := range r.s.funds {
		a, ok := r.s.accounts[accountID]
		if !ok || a.Role != models.RoleFund || a.Status != models.StatusApproved || !a.EmailVerified {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.FundName), q) &&
				!strings.Contains(strings.ToLower(p.Description), q) &&
				!strings.Contains(strings.ToLower(p.InvestmentStrategy), q) {
				continue
			}
		}
		if f.FundType != "" && p.FundType != f.FundType {
			continue
		}
		if f.RiskLevel != "" && p.RiskLevel != f.RiskLevel {
			continue
		}
		out = append(out, copyFund(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memProfiles) SearchFunds(_ context.Context, f models.FundFilter) ([]*models.FundProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	all := r.listed(f)
	lo := f.Offset()
	if lo >= len(all) {
		return nil, nil
	}
	hi := lo + f.Limit
	if hi > len(all) {
		hi = len(all)
	}
	return all[lo:hi], nil
}

func (r *memProfiles) CountFunds(_ context.Context, f models.FundFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return 0, r.s.failAll
	}
	return int64(len(r.listed(f))), nil
}

func (r *memProfiles) FindListedFund(_ context.Context, id string) (*models.FundProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAll != nil {
		return nil, r.s.failAll
	}
	for _, p := range r.listed(models.FundFilter{}) {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeMailer records what would have been sent.
type fakeMailer struct {
	mu     sync.Mutex
	codes  chan string
	links  []string
	errOut error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(chan string, 16)}
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, _, code string) error {
	m.mu.Lock()
	err := m.errOut
	m.mu.Unlock()
	m.codes <- code
	return err
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errOut = err
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errOut != nil {
		return m.errOut
	}
	m.links = append(m.links, link)
	return nil
}

func (m *fakeMailer) sentLinks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.links...)
}
