package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/auth"
	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/middleware"
	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/store"
)

// --- Login ---

// LoginInput defines the expected JSON data for login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login.
// It authenticates the credential, runs the full Access Gate, records
// the login in the account's history and issues a JWT.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Authenticate Credential ---
	ref, err := h.Credentials.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again", "code": "UNAVAILABLE"})
		return
	}

	// 3. --- Resolve Account Record ---
	account, found, err := h.Accounts.GetByCredential(ref)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again", "code": "UNAVAILABLE"})
		return
	}
	if !found {
		c.JSON(http.StatusForbidden, gin.H{"error": "No account record found. Contact support.", "code": "NO_RECORD"})
		return
	}

	// 4. --- Run the Access Gate ---
	out := h.Gate.Check(account.ID, "", time.Now())
	if !middleware.RespondForOutcome(c, out) {
		return
	}

	// 5. --- Record the Login ---
	// Best-effort: a history write failure must not block the login.
	now := time.Now()
	history := models.AppendLoginEntry(out.Account.LoginHistory, models.LoginEntry{
		Timestamp: now,
		Device:    c.Request.UserAgent(),
	})
	err = h.Accounts.Update(out.Account.ID, store.AccountUpdate{
		LoginHistory: &history,
		LastLogin:    &now,
	})
	if err != nil {
		log.Printf("login: failed to record login for account %d: %v", out.Account.ID, err)
	}

	// 6. --- Issue Token ---
	token, err := auth.GenerateToken(out.Account.ID, models.RoleUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"account": gin.H{
			"id":        out.Account.ID,
			"username":  out.Account.Username,
			"email":     out.Account.Email,
			"expiresAt": out.Account.ExpiresAt,
		},
	})
}

// --- Admin Console Access ---

// VerifyAdminCodeInput carries the three-step admin challenge answers.
// Only the authorization code is actually verified; the first two steps
// are theater the front-end walks through.
type VerifyAdminCodeInput struct {
	Code string `json:"code" binding:"required"`
}

// VerifyAdminCode is the handler for POST /v1/admin/verify-code.
// A correct code yields an administrator token.
func (h *Handlers) VerifyAdminCode(c *gin.Context) {
	var input VerifyAdminCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !auth.CheckAdminCode(input.Code, h.Config.AdminCodeSHA256) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect authorization code"})
		return
	}

	token, err := auth.GenerateToken(0, models.RoleAdministrator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// --- Password Reset ---

// RequestPasswordResetInput defines the JSON for starting a recovery.
type RequestPasswordResetInput struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset is the handler for POST /v1/password-reset/request.
// The response never reveals whether the email is registered. There is
// no mail sender in this deployment; the token is logged for support to
// hand to the subscriber over the usual contact channel.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var input RequestPasswordResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Credentials.CreateResetToken(input.Email)
	if err != nil && !errors.Is(err, credentials.ErrInvalidCredentials) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue reset code"})
		return
	}
	if err == nil {
		log.Printf("password reset token issued for %s: %s", input.Email, token)
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset code has been issued"})
}

// ResetPasswordInput defines the JSON for redeeming a recovery token.
type ResetPasswordInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword is the handler for POST /v1/password-reset/confirm.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Credentials.ResetSecret(input.Token, input.NewPassword)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidResetToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired reset code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// --- Password Change ---

// ChangePasswordInput defines the JSON for a password change.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword is the handler for POST /v1/profile/change-password.
// It reauthenticates with the old secret before swapping it.
func (h *Handlers) ChangePassword(c *gin.Context) {
	account_raw, _ := c.Get(middleware.CtxAccount)
	account := account_raw.(models.Account)

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Credentials.ChangeSecret(account.CredentialRef, input.OldPassword, input.NewPassword)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// --- Profile ---

// GetMyProfile is the handler for GET /v1/profile/me.
func (h *Handlers) GetMyProfile(c *gin.Context) {
	account_raw, _ := c.Get(middleware.CtxAccount)
	account := account_raw.(models.Account)

	c.JSON(http.StatusOK, gin.H{"account": account})
}
