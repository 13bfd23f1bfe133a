package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/http/handlers"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/ratelimit"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// Paths reachable without a token.
const (
	SignUpPath = "/api/v1/members/sign-up"
	SignInPath = "/api/v1/members/sign-in"
)

// PublicRoutes is the static allow-list consulted before the authentication filter.
var PublicRoutes = auth.NewAllowList(
	auth.Route{Method: fiber.MethodPost, Path: SignUpPath},
	auth.Route{Method: fiber.MethodPost, Path: SignInPath},
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Members       *handlers.MembersHandler
	Stores        *handlers.StoresHandler
	Reservations  *handlers.ReservationsHandler
	Reviews       *handlers.ReviewsHandler
	Authenticator *auth.Authenticator

	// PublicThrottle, when set, rate limits PublicRoutes per client IP.
	PublicThrottle *ratelimit.ClientThrottle
}

// RegisterRoutes wires the public API. Every route outside PublicRoutes passes
// through the authentication filter before its role check.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.PublicThrottle != nil {
		app.Use(throttlePublicRoutes(cfg.PublicThrottle))
	}
	app.Use(cfg.Authenticator.Middleware(PublicRoutes.Skip))

	api := app.Group("/api/v1")

	members := api.Group("/members")
	members.Post("/sign-up", cfg.Members.SignUp)
	members.Post("/sign-in", cfg.Members.SignIn)
	members.Get("/name/:username", auth.RequireAnyRole(), cfg.Members.GetByName)
	members.Get("/:memberId", auth.RequireAnyRole(), cfg.Members.Get)
	members.Put("/:memberId", auth.RequireAnyRole(), cfg.Members.Update)
	members.Delete("/:memberId", auth.RequireAnyRole(), cfg.Members.Delete)

	stores := api.Group("/stores")
	stores.Post("", auth.RequireRoles(auth.RoleManager), cfg.Stores.Register)
	stores.Get("/name/:storeName", auth.RequireAnyRole(), cfg.Stores.GetByName)
	stores.Get("/:storeId", auth.RequireAnyRole(), cfg.Stores.Get)
	stores.Put("/:storeId", auth.RequireRoles(auth.RoleManager), cfg.Stores.Update)
	stores.Delete("/:storeId", auth.RequireRoles(auth.RoleManager), cfg.Stores.Delete)

	reservations := api.Group("/reservations")
	reservations.Post("", auth.RequireRoles(auth.RoleUser), cfg.Reservations.Create)
	reservations.Get("/member/:memberId", auth.RequireRoles(auth.RoleUser, auth.RoleManager), cfg.Reservations.ListByMember)
	reservations.Get("/:reservationId", auth.RequireRoles(auth.RoleUser, auth.RoleManager), cfg.Reservations.Get)
	reservations.Put("/:reservationId", auth.RequireRoles(auth.RoleUser), cfg.Reservations.Update)
	reservations.Delete("/:reservationId", auth.RequireRoles(auth.RoleUser), cfg.Reservations.Delete)
	reservations.Patch("/:reservationId/status", auth.RequireRoles(auth.RoleManager), cfg.Reservations.UpdateStatus)

	reviews := api.Group("/reviews")
	reviews.Post("", auth.RequireRoles(auth.RoleUser), cfg.Reviews.Create)
	reviews.Get("/store/:storeName", auth.RequireAnyRole(), cfg.Reviews.ListByStore)
	reviews.Get("/user/:username", auth.RequireAnyRole(), cfg.Reviews.ListByUser)
	reviews.Put("/:reviewId", auth.RequireRoles(auth.RoleUser), cfg.Reviews.Update)
	reviews.Delete("/:reviewId", auth.RequireRoles(auth.RoleUser), cfg.Reviews.Delete)
}

func throttlePublicRoutes(throttle *ratelimit.ClientThrottle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PublicRoutes.Skip(c) && !throttle.Allow(c.IP()) {
			return apperrors.ErrRateLimited
		}
		return c.Next()
	}
}

// RegisterAdminRoutes wires the operational listener, kept apart from the API
// so health probes never need a token.
func RegisterAdminRoutes(app *fiber.App, health *handlers.HealthHandler) {
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	app.Get("/metrics", health.Metrics)
}
