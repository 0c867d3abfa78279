// Package httpapi is the JSON-over-HTTP transport of the connector. It maps
// routes onto the services, enforces the auth gate and translates service
// errors into status codes.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/auth"
	"github.com/dmitrijs2005/fundconnector/internal/server/metrics"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/ratelimit"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

type AccountService interface {
	Register(ctx context.Context, r *models.Registration) (*models.Account, error)
	VerifyEmail(ctx context.Context, email, code string) (*services.AuthResult, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Get(ctx context.Context, accountID string) (*models.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, accountID, current, next string) error
}

type ProfileService interface {
	Get(ctx context.Context, account *models.Account) (models.Profile, error)
	Update(ctx context.Context, account *models.Account, patch services.ProfilePatch) (models.Profile, error)
}

type DirectoryService interface {
	Search(ctx context.Context, f models.FundFilter) (*models.FundPage, error)
}

type DocumentService interface {
	DeckUploadURL(ctx context.Context, account *models.Account) (string, string, error)
	DeckDownloadURL(ctx context.Context, fundProfileID string) (string, error)
}

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Accounts  AccountService
	Profiles  ProfileService
	Directory DirectoryService
	Documents DocumentService
	Tokens    TokenParser
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics
	Logger    logging.Logger
	Health    []HealthCheck
}

type Server struct {
	Deps
	router *gin.Engine
}

// New wires the router. Gin's mode is left to the caller.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	d.Logger = d.Logger.With("module", "http")
	registerValidators()

	s := &Server{Deps: d, router: gin.New()}
	s.router.Use(gin.Recovery(), RequestLogger(d.Logger))
	if d.Metrics != nil {
		s.router.Use(Instrument(d.Metrics))
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)
	if s.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := s.router.Group("/api")

	public := api.Group("/auth")
	public.POST("/signup", s.limit("signup"), s.handleSignup)
	public.POST("/verify-email", s.limit("verify-email"), s.handleVerifyEmail)
	public.POST("/resend-verification", s.limit("resend-verification"), s.handleResendVerification)
	public.POST("/login", s.limit("login"), s.handleLogin)
	public.POST("/forgot-password", s.limit("forgot-password"), s.handleForgotPassword)
	public.POST("/forget-password", s.limit("forgot-password"), s.handleForgotPassword)
	public.POST("/reset-password", s.limit("reset-password"), s.handleResetPassword)

	authed := api.Group("")
	authed.Use(Authenticate(s.Tokens, s.Accounts))
	authed.GET("/auth/me", s.handleMe)
	authed.POST("/auth/change-password", s.handleChangePassword)
	authed.GET("/profile", s.handleGetProfile)
	authed.PUT("/profile", s.handleUpdateProfile)
	authed.POST("/profile/deck", Gate(true, models.RoleFund), s.handleDeckUpload)
	authed.GET("/funds", Gate(true, models.RoleLP), s.handleListFunds)
	authed.GET("/funds/:id/deck", Gate(true, models.RoleLP), s.handleDeckDownload)
}

func (s *Server) limit(route string) gin.HandlerFunc {
	return RateLimit(s.Limiter, s.Metrics, s.Logger, route)
}
