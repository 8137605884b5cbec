package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/velardez/venue-pos/internal/config"
	"github.com/velardez/venue-pos/internal/handler"    // import the handlers that implement business logic
	"github.com/velardez/venue-pos/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/velardez/venue-pos/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a JSON body containing a `refresh_token` and invalidates
	// that token; it does not require JWT authentication.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Also map POST /v1/logout outside the protected group so clients can
	// terminate a session with just the refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// APIDeps bundles the handlers and infrastructure the venue API routes need.
// Keeping them in one struct avoids a register function with a dozen
// positional parameters.
type APIDeps struct {
	Products *handler.ProductHandler
	Stock    *handler.StockHandler
	Orders   *handler.OrderHandler
	Tickets  *handler.TicketHandler
	QR       *handler.QRHandler
	Tables   *handler.TableHandler
	Comandas *handler.ComandaHandler

	JWTSecret string
	Redis     *redis.Client
}

// RegisterAPI registers the venue sales endpoints under /v1.  Every route
// requires a valid JWT; write access to the catalogue, stock and tables is
// restricted to ADMIN, while day-to-day selling (orders, tickets, payments,
// redemption) is open to any staff member.
func RegisterAPI(e *echo.Echo, d APIDeps) {
	// Staff group: both roles may sell and redeem.
	staff := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)

	// ---- Catalogue (read) ----
	// Product listings are hot during service; cache GET responses in Redis
	// when a client is configured.
	if d.Redis != nil {
		staff.GET("/products", d.Products.List, middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis))
	} else {
		staff.GET("/products", d.Products.List)
	}
	staff.GET("/stock", d.Stock.List)
	staff.GET("/tables", d.Tables.List)

	// ---- Orders ----
	staff.POST("/orders", d.Orders.Create)
	staff.GET("/orders", d.Orders.List)
	staff.PATCH("/orders/:id/status", d.Orders.UpdateStatus)
	staff.POST("/orders/:id/pay", d.Orders.Pay)

	// ---- Tickets ----
	staff.POST("/tickets", d.Tickets.Create)
	staff.GET("/tickets/mine", d.Tickets.ListMine)
	staff.POST("/tickets/:id/pay", d.Tickets.Pay)

	// ---- Redemption ----
	// The door scanner hits this endpoint; rate limit it per user so a
	// misbehaving scanner cannot hammer the database with guesses.
	if d.Redis != nil {
		staff.POST("/qr/redeem", d.QR.Redeem, middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	} else {
		staff.POST("/qr/redeem", d.QR.Redeem)
	}

	// ---- Comandas ----
	staff.POST("/comandas", d.Comandas.Create)
	staff.GET("/comandas", d.Comandas.List)
	staff.PATCH("/comandas/:id/status", d.Comandas.UpdateStatus)

	// Admin group: catalogue and venue management.
	admin := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Products ----
	admin.POST("/products", d.Products.Create)
	admin.PUT("/products/:id", d.Products.Update)
	admin.PATCH("/products/:id", d.Products.Update) // alias for clients that use PATCH

	// ---- Stock ----
	admin.POST("/stock/:id/adjust", d.Stock.Adjust)

	// ---- Tables ----
	admin.POST("/tables", d.Tables.Create)
	admin.PUT("/tables/:id", d.Tables.Update)
	admin.PATCH("/tables/:id", d.Tables.Update)

	// ---- QR audit ----
	admin.GET("/qr", d.QR.List)
}
