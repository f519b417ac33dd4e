package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/payment"
	"github.com/mozsignals/mozsignals-api/internal/provision"
)

// --- Checkout / Provisioning ---

// CheckoutInput defines the JSON for the register-and-pay flow.
type CheckoutInput struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	PhoneNumber     string `json:"phoneNumber" binding:"required"`
}

// Checkout is the handler for POST /v1/checkout.
// It runs the full provisioning workflow: M-Pesa transfer, single
// confirmation lookup, then account creation. The package price and
// grant length are fixed; the caller only supplies their details.
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Run the Workflow ---
	result, err := h.Provisioner.Run(provision.Input{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
		PhoneNumber:     input.PhoneNumber,
	})

	// 3. --- Map Failures to the Error Taxonomy ---
	if err != nil {
		var vErr *provision.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "code": "VALIDATION", "field": vErr.Field})
			return
		}

		var recErr *provision.ReconciliationError
		if errors.As(err, &recErr) {
			// Money moved, no account. Surfaced distinctly so support
			// can reconcile manually; never retried here.
			c.JSON(http.StatusConflict, gin.H{
				"error":         "Payment was confirmed but account creation failed. Contact support with your transaction reference.",
				"code":          "RECONCILIATION_REQUIRED",
				"transactionId": recErr.TransactionID,
			})
			return
		}

		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment could not be processed. Check your details and try again.", "code": "GATEWAY"})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}

	// 4. --- Pending: Fail Open Toward Patience ---
	if result.Status == provision.StatusPending {
		c.JSON(http.StatusAccepted, gin.H{
			"message": "Payment is still processing. Confirm the M-Pesa prompt on your phone and try logging in shortly.",
			"code":    "PAYMENT_PENDING",
		})
		return
	}

	// 5. --- Provisioned ---
	c.JSON(http.StatusCreated, gin.H{
		"message":       "Account created successfully. Your payment was confirmed; log in to start.",
		"accountId":     result.AccountID,
		"transactionId": result.TransactionID,
		"accessDays":    h.Config.AccessDays,
	})
}

// GetPackage is the handler for GET /v1/package.
// The landing page shows the single package on sale.
func (h *Handlers) GetPackage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"price":      h.Config.PackagePrice,
		"currency":   "MZN",
		"accessDays": h.Config.AccessDays,
	})
}
