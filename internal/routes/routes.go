package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/waversurfing/waver-api/internal/config"
	"github.com/waversurfing/waver-api/internal/handlers"
	"github.com/waversurfing/waver-api/internal/middleware"
	"gorm.io/gorm"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Spot       *handlers.SpotHandler
	Report     *handlers.ReportHandler
	Favorite   *handlers.FavoriteHandler
	Friend     *handlers.FriendHandler
	Moderation *handlers.ModerationHandler
	Config     *handlers.RemoteConfigHandler
	Health     *handlers.HealthHandler
	Legal      *handlers.LegalHandler
}

// Setup mounts the API under /api. limiterStorage may be nil, in which case
// rate limits are kept in process memory.
func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers, limiterStorage fiber.Storage) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "api:" + c.IP() },
		Storage:           limiterStorage,
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	api.Get("/config", h.Config.GetConfig)
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "auth:" + c.IP() },
		Storage:           limiterStorage,
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/confirm", h.Auth.ConfirmEmail)
	auth.Post("/confirm/resend", h.Auth.ResendConfirmation)
	auth.Post("/password/forgot", h.Auth.ForgotPassword)
	auth.Post("/password/reset", h.Auth.ResetPassword)

	jwt := middleware.JWTProtected(cfg)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so public routes under the same prefix stay public
	api.Post("/auth/logout", jwt, h.Auth.Logout)
	api.Delete("/auth/account", jwt, h.Auth.DeleteAccount)

	// Users
	api.Get("/users/username-available", h.User.UsernameAvailable)
	api.Get("/users/me", jwt, h.User.Me)
	api.Get("/users/me/reports", jwt, h.Report.MyReports)
	api.Post("/users/me/deletion-request", jwt, h.User.RequestDeletion)
	api.Get("/users/search", jwt, h.User.Search)
	api.Get("/users/:id/reports", jwt, h.Report.UserReports)

	// Spots
	api.Get("/regions", h.Spot.Regions)
	api.Get("/spots", h.Spot.List)
	api.Get("/spots/search", h.Spot.Search)
	api.Get("/spots/:id", h.Spot.Get)
	api.Get("/spots/:id/summary", jwt, h.Spot.Summary)
	api.Get("/spots/:id/reports/today", jwt, h.Spot.TodayReports)

	// Reports
	reports := api.Group("/reports", jwt)
	reports.Post("/", h.Report.Create)
	reports.Get("/can-submit", h.Report.CanSubmit)
	reports.Get("/:id", h.Report.Get)
	reports.Put("/:id", h.Report.Update)
	reports.Delete("/:id", h.Report.Delete)
	api.Get("/feed/friends", jwt, h.Report.FriendFeed)

	// Favorites
	api.Get("/home", jwt, h.Favorite.Home)
	favorites := api.Group("/favorites", jwt)
	favorites.Get("/", h.Favorite.List)
	favorites.Get("/:spot_id", h.Favorite.Status)
	favorites.Post("/:spot_id/toggle", h.Favorite.Toggle)

	// Friends
	friends := api.Group("/friends", jwt)
	friends.Get("/", h.Friend.List)
	friends.Get("/requests", h.Friend.Requests)
	friends.Get("/:user_id/status", h.Friend.Status)
	friends.Post("/:user_id/request", h.Friend.SendRequest)
	friends.Delete("/:user_id/request", h.Friend.Cancel)
	friends.Post("/:user_id/accept", h.Friend.Accept)
	friends.Delete("/:user_id", h.Friend.Remove)

	// Moderation - user endpoints
	api.Post("/flags", jwt, h.Moderation.CreateFlag)
	api.Post("/blocks", jwt, h.Moderation.BlockUser)
	api.Delete("/blocks/:id", jwt, h.Moderation.UnblockUser)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Post("/spots", h.Spot.Create)
	admin.Get("/flags", h.Moderation.ListFlags)
	admin.Put("/flags/:id", h.Moderation.ActionFlag)
	admin.Put("/config/:key", h.Config.SetConfigKey)
	admin.Delete("/config/:key", h.Config.DeleteConfigKey)
}
