package main

import (
	"context"
	"log"
	"time"

	"canteen-pos/internal/ai"
	"canteen-pos/internal/auth"
	"canteen-pos/internal/billing"
	"canteen-pos/internal/config"
	"canteen-pos/internal/database"
	"canteen-pos/internal/handlers"
	"canteen-pos/internal/inventory"
	"canteen-pos/internal/middleware"
	"canteen-pos/internal/payments"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("❌ Database: ", err)
	}

	// Redis only backs the login rate limiter; without it the limiter is off.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: redis unreachable (%v), rate limiting disabled", err)
			redisClient = nil
		}
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	ledger := inventory.NewLedger(cfg.AllowNegativeStock)
	engine := billing.NewEngine(db, ledger, cfg.TaxRate)
	paySvc := payments.NewService(db, cfg.UPIID, cfg.MerchantName)

	authHandler := &handlers.AuthHandler{DB: db, Tokens: tokens}
	productHandler := &handlers.ProductHandler{DB: db, Ledger: ledger}
	billHandler := &handlers.BillHandler{DB: db, Engine: engine}
	paymentHandler := &handlers.PaymentHandler{Service: paySvc}
	reportHandler := &handlers.ReportHandler{DB: db}
	aiHandler := &handlers.AIHandler{Agent: ai.NewAgent(db), APIKey: cfg.GeminiAPIKey}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/api/auth/login", middleware.RateLimiter(redisClient), authHandler.Login)

	// Bootstrap registration, only while explicitly allowed in .env
	if cfg.AllowRegistration {
		r.POST("/register", authHandler.CreateUser)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(db, tokens))
	{
		// STAFF & ADMIN
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/verify", authHandler.Verify)
		api.POST("/auth/change-password", authHandler.ChangePassword)

		api.GET("/products", productHandler.List)
		api.GET("/products/:id", productHandler.Get)

		api.POST("/bills", billHandler.Create)
		api.GET("/bills", billHandler.List)
		api.GET("/bills/:id", billHandler.Get)
		api.GET("/sales/daily", billHandler.DailySales)

		api.POST("/payments/qr", paymentHandler.GenerateQR)
		api.POST("/payments/confirm", paymentHandler.Confirm)
		api.GET("/payments", paymentHandler.History)
		api.GET("/payments/:id", paymentHandler.Status)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/auth/users", authHandler.ListUsers)
			admin.POST("/auth/users", authHandler.CreateUser)

			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Delete)
			admin.POST("/products/:id/stock", productHandler.UpdateStock)
			admin.GET("/products/:id/logs", productHandler.Logs)

			admin.GET("/reports/dashboard", reportHandler.Dashboard)
			admin.GET("/reports/sales", reportHandler.Sales)
			admin.GET("/reports/top-products", reportHandler.TopProducts)
			admin.GET("/reports/valuation", reportHandler.StockValuation)

			admin.POST("/ask", aiHandler.Ask)
		}
	}

	log.Println("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
