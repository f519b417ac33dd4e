package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/auth"
	"github.com/mozsignals/mozsignals-api/internal/gate"
	"github.com/mozsignals/mozsignals-api/internal/models"
)

// Context keys set for downstream handlers.
const (
	CtxAccountID = "accountID"
	CtxRole      = "userRole"
	CtxAccount   = "account"
)

// AuthMiddleware validates the bearer token and stores the claims in
// the context. It does NOT touch the account store; subscription
// gating is GateMiddleware's job.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 2. --- Validate Token ---
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}

		// 3. --- Success ---
		c.Set(CtxAccountID, claims.AccountID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// GateMiddleware runs the Access Gate on every entry. Each outcome maps
// to exactly one caller-visible response; the front-end turns the code
// into its redirect (/access-expired, /user-disabled, ...).
func GateMiddleware(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID_raw, exists := c.Get(CtxAccountID)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}
		accountID := accountID_raw.(int64)

		out := g.Check(accountID, "", time.Now())
		if !RespondForOutcome(c, out) {
			return
		}

		c.Set(CtxAccount, out.Account)
		c.Next()
	}
}

// RespondForOutcome writes the error response for a non-Active gate
// outcome and aborts. It returns true when the outcome is Active and
// the request may proceed.
func RespondForOutcome(c *gin.Context, out gate.Outcome) bool {
	switch out.State {
	case gate.StateActive:
		return true
	case gate.StateExpired:
		c.JSON(http.StatusForbidden, gin.H{"error": "Your access has expired", "code": "ACCESS_EXPIRED"})
	case gate.StateDisabled:
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is disabled", "code": "USER_DISABLED"})
	case gate.StateNoRecord:
		if out.InvalidateSession {
			// Partially-written record: the session must be dropped, so
			// the client gets a 401 it maps to "log in again".
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session is no longer valid. Log in again.", "code": "SESSION_INVALID"})
			break
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "No account record found. Contact support.", "code": "NO_RECORD"})
	case gate.StateUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again", "code": "UNAVAILABLE"})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required", "code": "AUTH_REQUIRED"})
	}
	c.Abort()
	return false
}

// AdminMiddleware allows only administrator tokens through. Must run
// after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role_raw, exists := c.Get(CtxRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}

		if role_raw.(string) != models.RoleAdministrator {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: Administrator role required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
