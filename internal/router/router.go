// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/config"
	"github.com/carlane/carlane-backend/internal/handlers"
	"github.com/carlane/carlane-backend/internal/middleware"
	"github.com/carlane/carlane-backend/internal/repository"
	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	listCache := cache.New(
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		time.Duration(cfg.Cache.CleanupSeconds)*time.Second,
	)

	notificationService := services.NewNotificationService(db)
	bookingService := services.NewBookingService(db, notificationService)
	carRepository := repository.NewCarRepository(db)
	carService := services.NewCarService(carRepository, storageService, bookingService, listCache, cfg)
	blogService := services.NewBlogService(db, storageService)
	contactService := services.NewContactService(db, notificationService)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	carHandler := handlers.NewCarHandler(carService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	blogHandler := handlers.NewBlogHandler(blogService)
	contactHandler := handlers.NewContactHandler(contactService)
	adminHandler := handlers.NewAdminHandler(db, notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	limits := middleware.NewRateLimiters(cfg.RateLimit)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(limits.General())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Car listing routes
		cars := v1.Group("/cars")
		{
			cars.GET("", carHandler.GetCars)
			cars.GET("/featured", carHandler.GetFeaturedCars)
			cars.GET("/:id", carHandler.GetCar)
			cars.GET("/slug/:slug", carHandler.GetCarBySlug)

			protected := cars.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.POST("", limits.Upload(), carHandler.CreateCar)
				protected.PUT("/:id", limits.Upload(), carHandler.UpdateCar)
				protected.DELETE("/:id", carHandler.DeleteCar)
			}
		}

		// Booking routes
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)

			protected := bookings.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.GET("", bookingHandler.GetBookings)
				protected.GET("/:id", bookingHandler.GetBooking)
				protected.PUT("/:id/status", bookingHandler.UpdateBookingStatus)
				protected.DELETE("/:id", bookingHandler.DeleteBooking)
			}
		}

		// Blog routes
		blog := v1.Group("/blog")
		{
			blog.GET("", middleware.OptionalAuth(), blogHandler.GetPosts)
			blog.GET("/slug/:slug", blogHandler.GetPostBySlug)

			protected := blog.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.POST("", limits.Upload(), blogHandler.CreatePost)
				protected.PUT("/:id", limits.Upload(), blogHandler.UpdatePost)
				protected.DELETE("/:id", blogHandler.DeletePost)
			}
		}

		// Contact routes
		contact := v1.Group("/contact")
		{
			contact.POST("", contactHandler.CreateMessage)

			protected := contact.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.GET("", contactHandler.GetMessages)
				protected.PUT("/:id/read", contactHandler.MarkRead)
				protected.DELETE("/:id", contactHandler.DeleteMessage)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/notifications", adminHandler.GetNotifications)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", cfg.Listings.LocalUploads)
	}

	return r, nil
}
