package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

const (
	msgSignup         = "User created successfully. Please check your email for verification code."
	msgVerified       = "Email verified successfully"
	msgResent         = "If the account exists and is not yet verified, a new verification code has been sent."
	msgLogin          = "Login successful"
	msgResetRequested = "If an account with that email exists, we have sent a password reset link."
	msgPasswordReset  = "Password has been reset successfully"
	msgPasswordChange = "Password changed successfully"
)

// signupRequest is the credential part of the signup body. The same body
// also carries the profile fields of the chosen role.
type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,role"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		abortWithError(c, err)
		return
	}

	reg := &models.Registration{Email: req.Email, Password: req.Password, Role: role}
	switch role {
	case models.RoleFund:
		err = c.ShouldBindBodyWith(&reg.Fund, binding.JSON)
	case models.RoleLP:
		err = c.ShouldBindBodyWith(&reg.LP, binding.JSON)
	}
	if err != nil {
		abortWithError(c, bindError(err))
		return
	}

	account, err := s.Accounts.Register(c.Request.Context(), reg)
	s.Metrics.AuthEvent("signup", err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msgSignup, "userId": account.ID})
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	code := req.OTP
	if code == "" {
		code = req.Code
	}
	if code == "" {
		abortWithError(c, fmt.Errorf("%w: otp is required", common.ErrorValidation))
		return
	}

	res, err := s.Accounts.VerifyEmail(c.Request.Context(), req.Email, code)
	s.Metrics.AuthEvent("verify_email", err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgVerified, "token": res.Token, "user": res.Account})
}

func (s *Server) handleResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	if err := s.Accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgResent})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	res, err := s.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	s.Metrics.AuthEvent("login", err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgLogin, "token": res.Token, "user": res.Account})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	err := s.Accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	s.Metrics.AuthEvent("forgot_password", err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgResetRequested})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	err := s.Accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	s.Metrics.AuthEvent("reset_password", err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgPasswordReset})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentAccount(c).Summary())
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	account := currentAccount(c)
	if err := s.Accounts.ChangePassword(c.Request.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgPasswordChange})
}
