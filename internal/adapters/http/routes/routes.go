package routes

import (
	"libtrack/internal/adapters/http/handlers"
	"libtrack/internal/adapters/http/middleware"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	bookRepo := repositories.NewBookRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize services
	catalogService := services.NewCatalogService(db, bookRepo, transactionRepo)
	lendingService := services.NewLendingService(db, bookRepo, transactionRepo, userRepo)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, userService, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	bookHandler := handlers.NewBookHandler(catalogService)
	transactionHandler := handlers.NewTransactionHandler(lendingService)
	userHandler := handlers.NewUserHandler(userService)
	authHandler := handlers.NewAuthHandler(authService, cfg)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group
	api := app.Group("/api")

	// Catalog routes (public, same surface the frontend consumes)
	bookRoutes := api.Group("/books")
	setupBookRoutes(bookRoutes, bookHandler)

	// Lending routes (public)
	setupLendingRoutes(api, transactionHandler)

	// Auth routes (public + protected)
	authRoutes := api.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (authenticated)
	userRoutes := api.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Patch("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
}

// setupLendingRoutes configures lending ledger routes
func setupLendingRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Get("/transactions", handler.List)

	// GET on the action endpoints answers a bare 200 so that
	// availability probes from the frontend stay cheap.
	router.Get("/borrow", handler.BorrowInfo)
	router.Post("/borrow", handler.Borrow)
	router.Get("/return/:id", handler.ReturnInfo)
	router.Post("/return/:id", handler.Return)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (stricter rate limit against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Patch("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
}
