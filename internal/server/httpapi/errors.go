package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrDuplicateAccount, http.StatusBadRequest},
	{common.ErrWeakPassword, http.StatusBadRequest},
	{common.ErrInvalidOrExpiredCode, http.StatusBadRequest},
	{common.ErrInvalidOrExpiredToken, http.StatusBadRequest},
	{common.ErrInvalidCurrentPassword, http.StatusBadRequest},
	{common.ErrInvalidCredentials, http.StatusUnauthorized},
	{common.ErrEmailNotVerified, http.StatusUnauthorized},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrNotApproved, http.StatusForbidden},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrInvalidTransition, http.StatusConflict},
	{common.ErrRateLimited, http.StatusTooManyRequests},
}

// classify maps a service error to a status and the message the client
// sees. Anything unrecognised is a 500 with a fixed message.
func classify(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.err == common.ErrorValidation {
				return e.status, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
			}
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// abortWithError writes {"error": ...} and stops the chain. Internal errors
// are attached to the context so the request logger records them.
func abortWithError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
