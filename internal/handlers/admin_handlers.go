package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/store"
	"github.com/mozsignals/mozsignals-api/internal/subscription"
)

//
// --- Admin: User Management Handlers ---
//

// ListUsers is the handler for GET /v1/admin/users?search=...
// It returns all accounts, optionally filtered by username or email.
func (h *Handlers) ListUsers(c *gin.Context) {
	accounts, err := h.Accounts.List(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": accounts})
}

// CreateUserInput defines the JSON for admin-created accounts.
type CreateUserInput struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	AccessDays  int    `json:"accessDays" binding:"required,gt=0"`
}

// CreateUser is the handler for POST /v1/admin/users.
// It provisions an account directly, without a payment: credential
// first, then a granted window marked as admin-created.
func (h *Handlers) CreateUser(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Create the Credential ---
	ref, err := h.Credentials.Create(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create credential"})
		return
	}

	// 3. --- Build & Persist the Account ---
	now := time.Now()
	account := models.Account{
		CredentialRef: ref,
		Username:      input.Username,
		Email:         input.Email,
		PhoneNumber:   input.PhoneNumber,
		TransactionID: "ADMIN_CREATED",
		PaymentAmount: h.Config.PackagePrice,
		LoginHistory:  []models.LoginEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	account = subscription.Grant(account, input.AccessDays, now)

	id, err := h.Accounts.Create(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"userId":  id,
	})
}

// SetUserStatusInput defines the JSON for enabling/disabling a user.
type SetUserStatusInput struct {
	Activation string `json:"activation" binding:"required,oneof=active disabled"`
}

// SetUserStatus is the handler for PATCH /v1/admin/users/:id/status.
func (h *Handlers) SetUserStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input SetUserStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.Accounts.Update(userID, store.AccountUpdate{Activation: &input.Activation})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "activation": input.Activation})
}

// RenewSubscriptionInput defines the JSON for a renewal.
type RenewSubscriptionInput struct {
	AccessDays int `json:"accessDays" binding:"required,gt=0"`
}

// RenewSubscription is the handler for PATCH /v1/admin/users/:id/subscription.
// Renewal is reset-forward: the new window starts now, whatever was
// left on the old one.
func (h *Handlers) RenewSubscription(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input RenewSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, found, err := h.Accounts.Get(userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again", "code": "UNAVAILABLE"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	granted := subscription.Grant(account, input.AccessDays, time.Now())
	err = h.Accounts.Update(userID, store.AccountUpdate{
		Activation:  &granted.Activation,
		GrantedDays: &granted.GrantedDays,
		ExpiresAt:   &granted.ExpiresAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to renew subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Subscription renewed successfully",
		"expiresAt": granted.ExpiresAt,
	})
}

//
// --- Expiry Sweep ---
//

// ProcessExpiredAccounts walks every account and disables the ones
// whose window has elapsed. It is idempotent, so running it from the
// background worker AND the admin endpoint is safe. Returns how many
// accounts were flipped.
func (h *Handlers) ProcessExpiredAccounts() (int, error) {
	accounts, err := h.Accounts.List("")
	if err != nil {
		return 0, err
	}

	now := time.Now()
	changed := 0
	for _, account := range accounts {
		updated, needsWrite := subscription.MarkExpiredIfNeeded(account, now)
		if !needsWrite {
			continue
		}
		err := h.Accounts.Update(account.ID, store.AccountUpdate{Activation: &updated.Activation})
		if err != nil {
			// Keep sweeping; the next pass picks this one up again.
			log.Printf("sweep: failed to disable expired account %d: %v", account.ID, err)
			continue
		}
		changed++
	}
	return changed, nil
}

// SweepExpired is the handler for POST /v1/admin/users/sweep.
// The admin console triggers the reconciliation pass explicitly instead
// of it running as a side effect of listing users.
func (h *Handlers) SweepExpired(c *gin.Context) {
	changed, err := h.ProcessExpiredAccounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Sweep completed",
		"disabled": changed,
	})
}
