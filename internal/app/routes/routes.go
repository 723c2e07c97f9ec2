package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/volunnet/volunnet/internal/app/controllers"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/middleware"
)

// Controllers bundles the handlers mounted under /api/v1
type Controllers struct {
	Auth         *controllers.AuthController
	Profile      *controllers.ProfileController
	Event        *controllers.EventController
	Lifecycle    *controllers.LifecycleController
	Application  *controllers.ApplicationController
	Rating       *controllers.RatingController
	Notification *controllers.NotificationController
	Dashboard    *controllers.DashboardController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.GET("/verify-email", c.Auth.VerifyEmail)
		auth.POST("/forgot-password", c.Auth.ForgotPassword)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}
	v1.GET("/categories", c.Event.ListCategories)
	v1.GET("/organizations/:id", c.Profile.GetOrganization)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.POST("/auth/logout", c.Auth.Logout)
	authenticated.POST("/auth/resend-verification", c.Auth.ResendVerification)
	authenticated.GET("/auth/me", c.Auth.Me)

	volunteerOnly := authMiddleware.RoleRequired(string(models.RoleVolunteer))
	organizationOnly := authMiddleware.RoleRequired(string(models.RoleOrganization))

	volunteers := authenticated.Group("/volunteers/me", volunteerOnly)
	{
		volunteers.GET("", c.Profile.GetMyVolunteer)
		volunteers.PUT("", c.Profile.UpdateMyVolunteer)
		volunteers.GET("/applications", c.Profile.ListMyApplications)
	}

	organizations := authenticated.Group("/organizations/me", organizationOnly)
	{
		organizations.GET("", c.Profile.GetMyOrganization)
		organizations.PUT("", c.Profile.UpdateMyOrganization)
	}

	events := authenticated.Group("/events")
	{
		events.GET("", c.Event.ListEvents)
		events.POST("", organizationOnly, c.Event.CreateEvent)

		// Applications by the calling volunteer
		events.POST("/apply", volunteerOnly, c.Application.Apply)
		events.GET("/apply", volunteerOnly, c.Application.GetApplicationStatus)
		events.DELETE("/apply", volunteerOnly, c.Application.Withdraw)

		events.GET("/:id", c.Event.GetEvent)
		events.PUT("/:id", organizationOnly, c.Event.UpdateEvent)

		// Lifecycle; the service checks the caller organizes the event
		events.POST("/:id/publish", organizationOnly, c.Lifecycle.Publish)
		events.POST("/:id/start", organizationOnly, c.Lifecycle.Start)
		events.POST("/:id/cancel", organizationOnly, c.Lifecycle.Cancel)
		events.POST("/:id/archive", organizationOnly, c.Lifecycle.Archive)
		events.POST("/:id/complete", c.Lifecycle.CompleteEvent)
		events.GET("/:id/complete", c.Lifecycle.CompletionInfo)

		events.GET("/:id/applications", organizationOnly, c.Application.ListApplicants)
		events.POST("/:id/applications/:applicationId/accept", organizationOnly, c.Application.Accept)
		events.POST("/:id/applications/:applicationId/reject", organizationOnly, c.Application.Reject)

		events.POST("/:id/rate", c.Rating.Rate)
		events.GET("/:id/rate", c.Rating.ListRatings)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", c.Notification.ListNotifications)
		notifications.GET("/unread-count", c.Notification.UnreadCount)
		notifications.POST("/read-all", c.Notification.MarkAllRead)
		notifications.GET("/preferences", c.Notification.GetPreferences)
		notifications.PUT("/preferences",
			middleware.ValidateRequest[dto.UpdatePreferencesRequest](),
			c.Notification.UpdatePreferences)
		notifications.POST("/:id/read", c.Notification.MarkRead)
		notifications.POST("/:id/act", c.Notification.MarkActed)
	}

	authenticated.GET("/dashboard/volunteer", volunteerOnly, c.Dashboard.VolunteerDashboard)
	authenticated.GET("/dashboard/organization", organizationOnly, c.Dashboard.OrganizationDashboard)
	authenticated.GET("/recommendations", volunteerOnly, c.Dashboard.Recommendations)
}
