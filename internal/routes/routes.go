package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/handlers"
	"github.com/mozsignals/mozsignals-api/internal/middleware"
)

// CORSMiddleware tells the browser that the configured front-end origin
// is allowed to send credentialed requests to us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Strictly allow ONLY the configured front-end origin
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use (specifically "Authorization" for JWT tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// --- APPLY THE CORS GUARD ---
	// This must be the very first thing the router uses
	router.Use(CORSMiddleware(h.Config.CORSOrigin))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Routes ---
		v1.GET("/package", h.GetPackage)
		v1.GET("/settings", h.GetSiteSettings)
		v1.POST("/checkout", h.Checkout)
		v1.POST("/login", h.Login)
		v1.POST("/password-reset/request", h.RequestPasswordReset)
		v1.POST("/password-reset/confirm", h.ResetPassword)
		v1.POST("/admin/verify-code", h.VerifyAdminCode)

		// --- Protected Routes (Login + Valid Subscription Required) ---
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		protected.Use(middleware.GateMiddleware(h.Gate))
		{
			protected.GET("/profile/me", h.GetMyProfile)
			protected.POST("/profile/change-password", h.ChangePassword)
		}

		// --- Bot Surface Routes ---
		// The handler runs the gate itself so the per-surface maintenance
		// overlay comes back in the same pass.
		bots := v1.Group("/bots")
		bots.Use(middleware.AuthMiddleware())
		{
			bots.GET("/:surface", h.EnterBotSurface)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware())
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)
			admin.PATCH("/users/:id/status", h.SetUserStatus)
			admin.PATCH("/users/:id/subscription", h.RenewSubscription)
			admin.POST("/users/sweep", h.SweepExpired)

			admin.GET("/maintenance/:surface", h.GetMaintenance)
			admin.PUT("/maintenance/:surface", h.SetMaintenance)

			admin.PUT("/settings", h.UpdateSiteSettings)
		}
	}

	return router
}
