package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/server/auth"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

var errBoom = errors.New("boom")

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAccounts struct {
	mu       sync.Mutex
	byID     map[string]*models.Account
	getErr   error
	err      error
	result   *services.AuthResult
	reg      *models.Registration
	code     string
	email    string
	password string
	token    string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[string]*models.Account{}}
}

func (f *fakeAccounts) add(a *models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID] = a
}

func (f *fakeAccounts) Register(_ context.Context, r *models.Registration) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reg = r
	if f.err != nil {
		return nil, f.err
	}
	return &models.Account{ID: "acc-new", Email: r.Email, Role: r.Role}, nil
}

func (f *fakeAccounts) VerifyEmail(_ context.Context, email, code string) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email, f.code = email, code
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAccounts) ResendVerification(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
	return f.err
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email, f.password = email, password
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAccounts) Get(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccounts) RequestPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
	return f.err
}

func (f *fakeAccounts) ResetPassword(_ context.Context, token, pw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.password = token, pw
	return f.err
}

func (f *fakeAccounts) ChangePassword(_ context.Context, _, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code, f.password = current, next
	return f.err
}

type fakeProfiles struct {
	profile models.Profile
	patch   services.ProfilePatch
	err     error
}

func (f *fakeProfiles) Get(_ context.Context, a *models.Account) (models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return models.NewEmptyProfile(a.ID, a.Role)
}

func (f *fakeProfiles) Update(_ context.Context, a *models.Account, p services.ProfilePatch) (models.Profile, error) {
	f.patch = p
	if f.err != nil {
		return nil, f.err
	}
	if p.Fund != nil {
		fp := models.NewFundProfile(a.ID)
		fp.Apply(p.Fund)
		return fp, nil
	}
	lp := &models.LPProfile{AccountID: a.ID}
	lp.Apply(p.LP)
	return lp, nil
}

// fakeDirectory normalizes like the real service so query validation can be
// observed end to end.
type fakeDirectory struct {
	filter models.FundFilter
	funds  []*models.FundProfile
	err    error
}

func (f *fakeDirectory) Search(_ context.Context, filter models.FundFilter) (*models.FundPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return models.NewFundPage(f.funds, filter.Page, filter.Limit, int64(len(f.funds))), nil
}

type fakeDocuments struct {
	fundID string
	err    error
}

func (f *fakeDocuments) DeckUploadURL(_ context.Context, a *models.Account) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	key := "decks/" + a.ID + "/deck.pdf"
	return key, "https://s3.test/" + key + "?sig=put", nil
}

func (f *fakeDocuments) DeckDownloadURL(_ context.Context, id string) (string, error) {
	f.fundID = id
	if f.err != nil {
		return "", f.err
	}
	return "https://s3.test/decks/" + id + ".pdf?sig=get", nil
}

type testAPI struct {
	server    *Server
	tokens    *auth.TokenIssuer
	accounts  *fakeAccounts
	profiles  *fakeProfiles
	directory *fakeDirectory
	documents *fakeDocuments
}

func newTestAPI(t *testing.T, tweak ...func(*Deps)) *testAPI {
	t.Helper()
	api := &testAPI{
		tokens:    auth.NewTokenIssuer("test-secret", time.Hour),
		accounts:  newFakeAccounts(),
		profiles:  &fakeProfiles{},
		directory: &fakeDirectory{},
		documents: &fakeDocuments{},
	}
	d := Deps{
		Accounts:  api.accounts,
		Profiles:  api.profiles,
		Directory: api.directory,
		Documents: api.documents,
		Tokens:    api.tokens,
	}
	for _, fn := range tweak {
		fn(&d)
	}
	api.server = New(d)
	return api
}

// login stores an account with the given role and status and returns a
// bearer token for it.
func (a *testAPI) login(t *testing.T, id string, role models.Role, status models.Status) string {
	t.Helper()
	acc := &models.Account{
		ID:            id,
		Email:         id + "@example.com",
		Role:          role,
		Status:        status,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	a.accounts.add(acc)
	tok, err := a.tokens.Issue(acc, time.Now())
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, msg, decode(t, rec)["error"])
}
