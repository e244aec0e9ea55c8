package routes

import (
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"

	"gorm.io/gorm"
)

// Externals are the vendor clients; Model and Cache may be nil
type Externals struct {
	Payments services.PaymentProvider
	Model    services.Completer
	Cache    services.ResultCache
}

// Services holds every wired service
type Services struct {
	Gate          domain.Gate
	Auth          *services.AuthService
	Users         *services.UserService
	Invites       *services.InviteService
	Audit         *services.AuditRecorder
	Inventory     *services.InventoryService
	Alerts        *services.StockAlertService
	Notifications *services.NotificationService
	Reminders     *services.ReminderService
	Recipes       *services.RecipeService
	Sales         *services.SaleService
	Tabs          *services.TabService
	StripeKeys    *services.StripeKeyService
	Payments      *services.PaymentService
	Checkout      *services.CheckoutService
	Analytics     *services.AnalyticsService
	Dashboard     *services.DashboardService
	Account       *services.AccountService
	Cron          *services.CronService
}

// NewServices builds repositories and services over db. The gate runs in
// strict mode in dev so an unknown permission key fails loudly.
func NewServices(db *gorm.DB, cfg *config.Config, ext Externals) *Services {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)
	productRepo := repositories.NewProductRepository(db)
	changeLogRepo := repositories.NewInventoryChangeLogRepository(db)
	alertRepo := repositories.NewStockAlertRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)
	recipeRepo := repositories.NewRecipeRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	tabRepo := repositories.NewTabRepository(db)
	stripeKeyRepo := repositories.NewStripeKeyRepository(db)
	accountRepo := repositories.NewAccountRepository(db)

	gate := domain.NewGate(cfg.IsDev())

	s := &Services{Gate: gate}
	s.Invites = services.NewInviteService(inviteRepo, gate, cfg.Invites.DefaultTTLHours)
	s.Auth = services.NewAuthService(userRepo, refreshTokenRepo, s.Invites, gate, cfg)
	s.Users = services.NewUserService(userRepo, refreshTokenRepo, gate)

	s.Notifications = services.NewNotificationService(notificationRepo)
	s.Alerts = services.NewStockAlertService(alertRepo, productRepo, s.Notifications)
	s.Audit = services.NewAuditRecorder(changeLogRepo, gate)
	s.Inventory = services.NewInventoryService(productRepo, s.Audit, s.Alerts, gate)
	s.Reminders = services.NewReminderService(reminderRepo, s.Notifications)

	s.Recipes = services.NewRecipeService(recipeRepo, productRepo, gate)
	s.Sales = services.NewSaleService(saleRepo, recipeRepo, productRepo, s.Inventory, cfg.Payments.Currency)
	s.Tabs = services.NewTabService(tabRepo, recipeRepo, productRepo, s.Sales, gate)

	s.StripeKeys = services.NewStripeKeyService(stripeKeyRepo, cfg.Payments)
	s.Payments = services.NewPaymentService(s.StripeKeys, ext.Payments, cfg.Payments.Currency)
	s.Checkout = services.NewCheckoutService(s.Payments, s.Tabs, s.Sales, s.Notifications)

	s.Analytics = services.NewAnalyticsService(ext.Model, ext.Cache, cfg.Analytics.CacheTTL)
	s.Dashboard = services.NewDashboardService(db)
	s.Account = services.NewAccountService(accountRepo)

	s.Cron = services.NewCronService(cfg.Jobs, s.Alerts, s.Reminders, s.Auth, s.Checkout)
	return s
}
