package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Coworking Booking API
// @version         1.0
// @description     Office booking, subscription and loyalty backend for a coworking space.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Optional Redis client for rate limiting; the limiter passes everything
	// through when Redis is not configured.
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		log.Printf("Rate limiting backed by Redis at %s", addr)
	} else {
		log.Println("REDIS_ADDR not set, rate limiting disabled")
	}

	rateCfg := middleware.DefaultRateLimit()
	rateCfg.Enabled = rdb != nil
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateCfg.Limit = n
		}
	}

	// Set up WebSocket Hub for cashier dashboard pushes
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	pointsConfigRepo := repository.NewPointsConfigRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo)
	pointsService := service.NewPointsService(pointsConfigRepo, userRepo, auditRepo, txManager)
	bookingService := service.NewBookingService(bookingRepo, officeRepo, subRepo, userRepo, redemptionRepo, auditRepo, pointsService, txManager, wsHub)
	subService := service.NewSubscriptionService(subRepo)
	officeService := service.NewOfficeService(officeRepo, subRepo)
	redemptionService := service.NewRedemptionService(redemptionRepo, rewardRepo, userRepo, subRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	officeHandler := handler.NewOfficeHandler(officeService, subService)
	bookingHandler := handler.NewBookingHandler(bookingService, subService)
	rewardHandler := handler.NewRewardHandler(redemptionService)
	cashierHandler := handler.NewCashierHandler(bookingService, redemptionService, pointsService, subService)
	adminHandler := handler.NewAdminHandler(pointsService, auditService, subService)

	// Background sweeps so lapsed reservations do not depend on cashier
	// traffic to get cleaned up.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ctx := context.Background()
			if _, err := bookingService.SweepExpiredBookings(ctx, ""); err != nil {
				log.Printf("booking sweep failed: %v", err)
			}
			if _, err := redemptionService.SweepExpired(ctx, ""); err != nil {
				log.Printf("redemption sweep failed: %v", err)
			}
			if _, err := subService.ExpireStale(ctx); err != nil {
				log.Printf("subscription expiry failed: %v", err)
			}
		}
	}()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the cashier dashboard
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("")
	api.Use(middleware.RateLimit(rateCfg, rdb))
	authHandler.RegisterRoutes(api)
	officeHandler.RegisterRoutes(api)
	bookingHandler.RegisterRoutes(api)
	rewardHandler.RegisterRoutes(api)
	cashierHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
