package routes

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/config"
	"carehub-server/internal/connect"
	"carehub-server/internal/handlers"
	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/schedule"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *slog.Logger) {
	// Domain services
	connectSvc := connect.NewService(db, log,
		time.Duration(cfg.ConnectCodeTTLHours)*time.Hour, cfg.ConnectCodeLength)
	scheduleSvc := schedule.NewService(db, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, cfg, log, connectSvc, scheduleSvc)
	patientHandler := handlers.NewPatientHandler(db, connectSvc)
	physicianHandler := handlers.NewPhysicianHandler(db)
	recordHandler := handlers.NewHealthRecordHandler(db)
	connectHandler := handlers.NewConnectHandler(db, connectSvc)
	appointmentHandler := handlers.NewAppointmentHandler(db, scheduleSvc)
	messageHandler := handlers.NewMessageHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register/patient", authHandler.RegisterPatient)
			authRoutes.POST("/register/physician", authHandler.RegisterPhysician)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
		}

		// Patient self-service
		patientRoutes := private.Group("/patients/me")
		patientRoutes.Use(middleware.RoleAuthMiddleware(models.RolePatient))
		{
			patientRoutes.GET("", patientHandler.GetMe)
			patientRoutes.PUT("", patientHandler.UpdateMe)
			patientRoutes.DELETE("", patientHandler.DeleteMe)
			patientRoutes.DELETE("/physician", patientHandler.UnlinkPhysician)

			recordRoutes := patientRoutes.Group("/records")
			{
				recordRoutes.POST("", recordHandler.CreateRecord)
				recordRoutes.GET("", recordHandler.ListRecords)
				recordRoutes.GET("/:id", recordHandler.GetRecord)
				recordRoutes.PUT("/:id", recordHandler.UpdateRecord)
				recordRoutes.DELETE("/:id", recordHandler.DeleteRecord)
				recordRoutes.POST("/:id/attachment", recordHandler.UploadAttachment)
				recordRoutes.GET("/:id/attachment", recordHandler.GetAttachment)
			}
		}

		// Physician self-service and roster
		physicianRoutes := private.Group("/physicians/me")
		physicianRoutes.Use(middleware.RoleAuthMiddleware(models.RolePhysician))
		{
			physicianRoutes.GET("", physicianHandler.GetMe)
			physicianRoutes.PUT("", physicianHandler.UpdateMe)
			physicianRoutes.GET("/patients", physicianHandler.GetPatients)
			physicianRoutes.GET("/patients/:id", physicianHandler.GetPatientDetail)
		}

		// Physician discovery, open to any authenticated user
		private.GET("/physicians", physicianHandler.Search)
		private.GET("/physicians/:id/slots", appointmentHandler.ListPhysicianSlots)

		// Connect codes
		connectRoutes := private.Group("/connect")
		{
			connectRoutes.POST("/codes", middleware.RoleAuthMiddleware(models.RolePhysician), connectHandler.IssueCode)
			connectRoutes.GET("/codes", middleware.RoleAuthMiddleware(models.RolePhysician), connectHandler.ListCodes)
			connectRoutes.POST("/redeem", middleware.RoleAuthMiddleware(models.RolePatient), connectHandler.RedeemCode)
		}

		// Appointments
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
		}

		// Messaging
		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessages)
			messageRoutes.GET("/conversations", messageHandler.GetConversations)
			messageRoutes.PATCH("/:id/read", messageHandler.MarkMessageRead)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
