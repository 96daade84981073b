package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/pawtraits-dev/pawtraits-sub013/config"
	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
	"github.com/pawtraits-dev/pawtraits-sub013/repositories"
	"github.com/pawtraits-dev/pawtraits-sub013/routes"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
	"github.com/pawtraits-dev/pawtraits-sub013/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DatabaseName())

	// Create WebSocket hub for the admin ledger feed
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Pawtraits referral service is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	attributionStore := repositories.NewAttributionStore(db)
	ledgerStore := repositories.NewLedgerStore(db)
	codeSources := repositories.NewCodeSources(db)
	quota := repositories.NewRedisQuota(redisClient)

	// Initialize services
	resolver := services.NewResolver(attributionStore, codeSources...)
	ledgerService := services.NewLedgerService(ledgerStore, wsHub)
	generationService := services.NewGenerationService(quota)

	// Initialize controllers
	referralController := controllers.NewReferralController(resolver)
	creditController := controllers.NewCreditController(ledgerService)
	commissionController := controllers.NewCommissionController(ledgerService)
	orderController := controllers.NewOrderController(ledgerService)
	generationController := controllers.NewGenerationController(generationService)
	issuanceController := controllers.NewIssuanceController(db)

	// Register routes
	routes.RegisterReferralRoutes(e, referralController)
	routes.RegisterCustomerRoutes(e, creditController, issuanceController)
	routes.RegisterPartnerRoutes(e, commissionController, issuanceController)
	routes.RegisterWebhookRoutes(e, orderController)
	routes.RegisterGenerationRoutes(e, generationController)
	routes.RegisterAdminRoutes(e, wsHub, issuanceController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
