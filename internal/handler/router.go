package handler

import (
	"github.com/gin-gonic/gin"

	"prive-club/internal/notifier"
	"prive-club/internal/service"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Accounts     *service.AccountService
	Loyalty      *service.LoyaltyService
	Redemptions  *service.RedemptionService
	Appointments *service.AppointmentService
	Membership   *service.MembershipService
	Admin        *service.AdminService
	Notifier     notifier.Notifier
	HealthCheck  func(c *gin.Context)
}

// Handler holds the service dependencies for all routes.
type Handler struct {
	deps *Dependencies
}

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(deps *Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := &Handler{deps: deps}

	if deps.HealthCheck != nil {
		r.GET("/health", deps.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/signup", h.Signup)

		club := api.Group("/club", RequireAccount())
		{
			club.GET("/summary", h.Summary)
			club.GET("/history", h.History)
			club.GET("/tiers", h.Tiers)
			club.GET("/referral", h.Referral)
			club.POST("/actions/:code", h.ClaimAction)

			club.GET("/rewards", h.Rewards)
			club.POST("/rewards/:id/redeem", h.Redeem)

			club.GET("/appointments", h.ListAppointments)
			club.POST("/appointments", h.BookAppointment)
		}

		admin := api.Group("/admin", RequireAdmin())
		{
			admin.GET("/members", h.Members)
			admin.GET("/members/near-upgrade", h.MembersNearUpgrade)
			admin.GET("/members/:id/summary", h.MemberSummary)
			admin.GET("/members/:id/history", h.MemberHistory)
			admin.POST("/members/:id/grant", h.GrantAction)
			admin.POST("/members/:id/adjust", h.Adjust)
			admin.POST("/members/:id/reconcile", h.ReconcileMember)
			admin.DELETE("/members/:id", h.DeactivateMember)

			admin.GET("/rules", h.Rules)
			admin.PUT("/rules/:code", h.UpsertRule)
			admin.PATCH("/rules/:code/active", h.ToggleRule)

			admin.GET("/tiers", h.Tiers)
			admin.PUT("/tiers", h.ReplaceTiers)

			admin.GET("/rewards", h.AdminRewards)
			admin.POST("/rewards", h.CreateReward)
			admin.PUT("/rewards/:id", h.UpdateReward)

			admin.GET("/campaigns", h.Campaigns)
			admin.POST("/campaigns", h.CreateCampaign)
			admin.POST("/campaigns/:id/activate", h.ActivateCampaign)
			admin.POST("/campaigns/:id/deactivate", h.DeactivateCampaign)

			admin.POST("/appointments/:id/status", h.TransitionAppointment)
		}
	}

	return r
}
