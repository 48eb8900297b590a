package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-portal-server/internal/config"
	"clinic-portal-server/internal/handlers"
	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/schedule"
	"clinic-portal-server/internal/utils"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	scheduler := schedule.NewService(schedule.NewGormStore(db), utils.GetLogger())

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, scheduler)
	availabilityHandler := handlers.NewAvailabilityHandler(db)
	medicineHandler := handlers.NewMedicineHandler(db)
	messageHandler := handlers.NewMessageHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
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
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Faculty/doctor directory - accessible by all authenticated users
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		appointmentRoutes := private.Group("/appointments")
		{
			// Slot listing reads the doctor's weekly schedule; booking only
			// re-checks the slot conflict
			appointmentRoutes.GET("/available-slots", appointmentHandler.GetAvailableSlots)
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleStudent), appointmentHandler.BookAppointment)

			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)    // Authorization inside handler
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus) // Authorization inside handler
		}

		availabilityRoutes := private.Group("/availability")
		{
			availabilityRoutes.PUT("", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.SetAvailability)
			availabilityRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.GetOwnAvailability)
			availabilityRoutes.GET("/:doctorId", availabilityHandler.GetDoctorAvailability)
		}

		medicineRoutes := private.Group("/medicines")
		{
			medicineRoutes.GET("/categories", medicineHandler.GetCategories)
			medicineRoutes.POST("/categories", middleware.RoleAuthMiddleware(models.RoleAdmin), medicineHandler.CreateCategory)
			medicineRoutes.GET("", medicineHandler.GetMedicines)
			medicineRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), medicineHandler.CreateMedicine)
			medicineRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), medicineHandler.UpdateMedicine)

			medicineRoutes.POST("/orders", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleStudent), medicineHandler.PlaceOrder)
			medicineRoutes.GET("/orders", medicineHandler.GetOrders)
		}

		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("/send", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessagesForUser)
			messageRoutes.PATCH("/:messageId/read", messageHandler.MarkMessageAsRead)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
