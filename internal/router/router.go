package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/brightevents/bright-events/internal/handler"
)

// Deps bundles everything route registration needs: the handlers plus the
// middleware instances built in main. Passing constructed middleware in
// keeps this package free of store and Redis wiring.
type Deps struct {
	Auth    *handler.AuthHandler
	Events  *handler.EventHandler
	Rsvps   *handler.RsvpHandler
	Search  *handler.SearchHandler
	Guard   echo.MiddlewareFunc // session authorization guard
	Limiter echo.MiddlewareFunc // token-bucket rate limiter for auth routes
	Cache   echo.MiddlewareFunc // response cache for public search
}

// Register wires all routes onto the Echo instance.
//
// Unauthenticated operations live under /v1/auth; every protected endpoint
// lives under /v1 behind the session guard, which implements the whole
// authorization pipeline in one place instead of per-handler decoration.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Auth entry points. Login and the reset flow are rate limited because
	// they are the credential-guessing surface.
	g := e.Group("/v1/auth", d.Limiter)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/acquire_token", d.Auth.AcquireToken)
	g.PUT("/reset_password", d.Auth.ResetPassword)
	// Logout requires a currently-valid session token: the guard rejects
	// expired, malformed and already-revoked tokens before the handler
	// inserts the digest into the ledger.
	g.POST("/logout", d.Auth.Logout, d.Guard)

	// Protected API.
	api := e.Group("/v1", d.Guard)
	api.GET("/me", d.Auth.Me)
	api.POST("/events", d.Events.Create)
	api.GET("/events", d.Events.List)
	api.GET("/events/:id", d.Events.Get)
	api.PUT("/events/:id", d.Events.Update)
	api.DELETE("/events/:id", d.Events.Delete)
	api.POST("/events/:id/rsvp", d.Rsvps.Create)
	api.GET("/events/:id/guests", d.Rsvps.Guests)
	api.GET("/rsvps", d.Rsvps.Mine)

	// Public search, cached.
	e.GET("/v1/search/events", d.Search.Search, d.Cache)
}
