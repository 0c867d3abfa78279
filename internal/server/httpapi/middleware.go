package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/metrics"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/ratelimit"
)

const accountKey = "account"

// RequestLogger logs one line per request once the handler chain is done.
// Internal errors attached to the context are logged with it.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		}
		if len(c.Errors) > 0 {
			logger.Error(c.Request.Context(), "http request failed", append(args, "error", c.Errors.String())...)
			return
		}
		logger.Info(c.Request.Context(), "http request", args...)
	}
}

// Instrument records request counts and latencies by route template.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RateLimit spends one token per request from the bucket of the client IP on
// route. Limiter failures are logged and the request goes through.
func RateLimit(l *ratelimit.Limiter, m *metrics.Metrics, logger logging.Logger, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), route+":"+c.ClientIP())
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "route", route, "error", err)
			c.Next()
			return
		}
		if !d.Allowed {
			if m != nil {
				m.RateLimited.WithLabelValues(route).Inc()
			}
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       common.ErrRateLimited.Error(),
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

// Authenticate resolves the bearer token to a live account. Missing,
// malformed, expired or badly signed tokens and deleted accounts all yield 401.
func Authenticate(tokens TokenParser, accounts AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, common.BearerPrefix) || token == "" {
			abortWithError(c, common.ErrorUnauthorized)
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			abortWithError(c, common.ErrorUnauthorized)
			return
		}

		account, err := accounts.Get(c.Request.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				abortWithError(c, common.ErrorUnauthorized)
				return
			}
			abortWithError(c, err)
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

// Gate enforces, in order, approval and then role membership on an
// authenticated request. An empty roles list admits every role.
func Gate(requireApproved bool, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := currentAccount(c)
		if account == nil {
			abortWithError(c, common.ErrorUnauthorized)
			return
		}
		if requireApproved && account.Status != models.StatusApproved {
			abortWithError(c, common.ErrNotApproved)
			return
		}
		if len(roles) > 0 && !hasRole(account.Role, roles) {
			abortWithError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
}

func hasRole(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func currentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	a, _ := v.(*models.Account)
	return a
}
