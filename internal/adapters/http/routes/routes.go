package routes

import (
	"barstock-pos/internal/adapters/http/handlers"
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config, health *handlers.HealthHandler) {
	auth := middleware.AuthMiddleware(svc.Auth)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Invites, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	inviteHandler := handlers.NewInviteHandler(svc.Invites)
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory, svc.Audit)
	recipeHandler := handlers.NewRecipeHandler(svc.Recipes)
	tabHandler := handlers.NewTabHandler(svc.Tabs)
	saleHandler := handlers.NewSaleHandler(svc.Sales)
	stripeHandler := handlers.NewStripeHandler(svc.Payments, svc.StripeKeys)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	alertHandler := handlers.NewAlertHandler(svc.Alerts)
	reminderHandler := handlers.NewReminderHandler(svc.Reminders)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	accountHandler := handlers.NewAccountHandler(svc.Account, cfg)
	mobileHandler := handlers.NewMobileHandler(svc.Inventory, svc.Recipes, svc.Tabs, svc.Dashboard)

	// Health check & root routes
	app.Get("/", health.Root)
	app.Get("/health", health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Card-present payments answer bare JSON and must never be cached.
	// Guards are per route: a group middleware on /api/stripe would also
	// match the /api/stripe-keys prefix.
	setupStripeRoutes(app.Group("/api"), stripeHandler, auth, middleware.NoCacheHeaders())

	analyticsRoutes := app.Group("/api/analytics", auth)
	setupAnalyticsRoutes(analyticsRoutes, analyticsHandler)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", health.APIInfo)

	// Auth routes (public)
	setupAuthRoutes(apiV1.Group("/auth"), authHandler, auth)

	// User management routes
	userRoutes := apiV1.Group("/users", auth, middleware.RequirePermission(svc.Gate, domain.CanManageUsers))
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	setupProfileRoutes(apiV1.Group("/profile", auth, middleware.NoCacheHeaders()), userHandler)

	inviteRoutes := apiV1.Group("/invites", auth, middleware.RequirePermission(svc.Gate, domain.CanManageUsers))
	inviteRoutes.Get("/", inviteHandler.List)
	inviteRoutes.Post("/", inviteHandler.Create)
	inviteRoutes.Delete("/:code", inviteHandler.Revoke)

	setupProductRoutes(apiV1.Group("/products", auth), inventoryHandler)
	apiV1.Get("/audit-log", auth, middleware.RequirePermission(svc.Gate, domain.CanViewAuditLogs), inventoryHandler.ListAuditLog)

	setupRecipeRoutes(apiV1.Group("/recipes", auth), recipeHandler)
	setupTabRoutes(apiV1.Group("/tabs", auth), tabHandler)
	setupSaleRoutes(apiV1.Group("/sales", auth), saleHandler)
	setupCheckoutRoutes(apiV1.Group("/checkout/sessions", auth, middleware.NoCacheHeaders()), checkoutHandler)

	alertRoutes := apiV1.Group("/alerts", auth)
	alertRoutes.Get("/", alertHandler.List)
	alertRoutes.Post("/:id/dismiss", middleware.ManagerOrAbove(), alertHandler.Dismiss)

	setupReminderRoutes(apiV1.Group("/reminders", auth), reminderHandler)

	notificationRoutes := apiV1.Group("/notifications", auth)
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Post("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Post("/:id/read", notificationHandler.MarkRead)

	dashboardRoutes := apiV1.Group("/dashboard", auth)
	dashboardRoutes.Get("/", dashboardHandler.GetMyDashboard)
	dashboardRoutes.Get("/staff", dashboardHandler.GetStaffDashboard)
	dashboardRoutes.Get("/manager", middleware.ManagerOrAbove(), dashboardHandler.GetManagerDashboard)

	apiV1.Delete("/account", middleware.StrictRateLimiter(), auth, middleware.OwnerOnly(), accountHandler.Purge)

	// API v2: aggregated payloads for the register tablet
	mobileRoutes := app.Group("/api/v2/mobile", auth)
	mobileRoutes.Get("/catalog", mobileHandler.GetCatalog)
	mobileRoutes.Get("/open-tabs", mobileHandler.GetOpenTabs)
	mobileRoutes.Get("/dashboard", mobileHandler.GetDashboard)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Get("/invites/:code", middleware.AuthRateLimiter(), handler.ValidateInvite)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, middleware.NoCacheHeaders(), handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Patch("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
	router.Put("/:id/role", handler.SetUserRole)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupProductRoutes configures inventory routes; the service checks permissions per action
func setupProductRoutes(router fiber.Router, handler *handlers.InventoryHandler) {
	router.Get("/", handler.ListProducts)
	router.Post("/", handler.CreateProduct)
	router.Post("/import", handler.Import)
	router.Get("/barcode/:code", handler.GetByBarcode)
	router.Get("/:id", handler.GetProduct)
	router.Put("/:id", handler.UpdateProduct)
	router.Delete("/:id", handler.DeleteProduct)
	router.Post("/:id/restock", handler.Restock)
	router.Post("/:id/adjust", handler.Adjust)
}

func setupRecipeRoutes(router fiber.Router, handler *handlers.RecipeHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
}

func setupTabRoutes(router fiber.Router, handler *handlers.TabHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Open)
	router.Get("/:id", handler.Get)
	router.Post("/:id/items", handler.AddItem)
	router.Delete("/:id/items/:itemId", handler.RemoveItem)
	router.Post("/:id/void", handler.Void)
	router.Post("/:id/close", handler.CloseCash)
}

func setupSaleRoutes(router fiber.Router, handler *handlers.SaleHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.QuickSale)
	router.Get("/:id", handler.Get)
}

func setupStripeRoutes(router fiber.Router, handler *handlers.StripeHandler, auth, noCache fiber.Handler) {
	router.Post("/stripe/connection-token", auth, noCache, handler.ConnectionToken)
	router.Post("/stripe/create-payment-intent", auth, noCache, handler.CreatePaymentIntent)
	router.Post("/stripe/confirm-payment", auth, noCache, handler.ConfirmPayment)
	router.Post("/stripe/cancel-payment", auth, noCache, handler.CancelPayment)

	router.Get("/stripe-keys", auth, noCache, handler.KeyStatus)
	router.Post("/stripe-keys", auth, noCache, handler.SaveKeys)
	router.Delete("/stripe-keys", auth, noCache, handler.DeleteKeys)
}

func setupCheckoutRoutes(router fiber.Router, handler *handlers.CheckoutHandler) {
	router.Post("/", handler.Start)
	router.Get("/:id", handler.Get)
	router.Post("/:id/connect", handler.Connect)
	router.Post("/:id/collect", handler.Collect)
	router.Post("/:id/cancel", handler.Cancel)
	router.Delete("/:id", handler.Abandon)
}

// setupAnalyticsRoutes registers the model-backed reports, then 501 for the rest
func setupAnalyticsRoutes(router fiber.Router, handler *handlers.AnalyticsHandler) {
	router.Post("/"+services.ReportTopSellers, handler.TopSellers)
	router.Post("/"+services.ReportInventoryInsights, handler.InventoryInsights)
	router.Post("/"+services.ReportBusinessSummary, handler.BusinessSummary)

	for _, kind := range services.UnimplementedReports {
		router.All("/"+kind, handler.NotImplemented)
	}
}

func setupReminderRoutes(router fiber.Router, handler *handlers.ReminderHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Patch("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
}
