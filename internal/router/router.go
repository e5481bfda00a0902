package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/usaha/rental-api/internal/handler"    // import the handlers that implement business logic
    "github.com/usaha/rental-api/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // The health endpoint is used by load balancers or monitoring systems
    // to verify that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected account endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Operations that do not require an existing session (register, login,
    // refresh).  Each of these handlers generates or exchanges tokens.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token; refresh-access issues a new access
    // token without rotation.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout does not require JWT authentication: a session can always be
    // terminated with just its refresh token in the body.  With a bearer
    // token and no body, every session of the user is revoked.
    g.POST("/logout", a.Logout)

    // Account endpoints require a valid access token.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    auth.PUT("/me", a.UpdateMe)

    // Alias kept at the top level (outside the protected group) so clients
    // can call either /v1/auth/logout or /v1/logout.
    e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated browse endpoints.  These
// routes apply no JWT middleware and are intended for guests; the caller
// wraps them with the Redis response cache when one is configured.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, mw ...echo.MiddlewareFunc) {
    // Facility catalog with ?search, ?city and ?category filters.
    e.GET("/v1/facilities", b.ListFacilities, mw...)
    e.GET("/v1/facilities/:id", b.GetFacility, mw...)
    e.GET("/v1/facilities/:id/reviews", b.ListFacilityReviews, mw...)
    // Marketplace catalog with ?search, ?category and ?order_by filters.
    e.GET("/v1/tools", b.ListTools, mw...)
    e.GET("/v1/tools/:id", b.GetTool, mw...)
    e.GET("/v1/tool-categories", b.ListToolCategories, mw...)
    // Public profile directory.
    e.GET("/v1/profiles", b.ListProfiles, mw...)
    e.GET("/v1/profiles/:id", b.GetProfile, mw...)
}

// RegisterRental registers the authenticated rental endpoints: facility
// management for owners, bookings, reviews and payments.
func RegisterRental(e *echo.Echo, f *handler.FacilityHandler, bk *handler.BookingHandler, rv *handler.ReviewHandler, pm *handler.PaymentHandler, jwtSecret string) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))

    // Facility management.  Reads stay on the public browse routes.
    auth.POST("/facilities", f.Create)
    auth.PUT("/facilities/:id", f.Update)
    auth.DELETE("/facilities/:id", f.Delete)
    auth.POST("/facilities/:id/amenities", f.AddAmenity)
    auth.DELETE("/amenities/:id", f.DeleteAmenity)
    // The owner's view of a facility's booking calendar.
    auth.GET("/facilities/:id/bookings", bk.ListForFacility)

    // Bookings.
    auth.POST("/bookings", bk.Create)
    auth.GET("/bookings", bk.ListMine)
    auth.GET("/bookings/:id", bk.Get)
    auth.PUT("/bookings/:id", bk.Update)
    auth.PUT("/bookings/:id/approve", bk.Approve)
    auth.DELETE("/bookings/:id", bk.Delete)

    // Reviews.  Reading reviews is public; writing is not.
    auth.POST("/reviews", rv.Create)
    auth.PUT("/reviews/:id", rv.Update)
    auth.DELETE("/reviews/:id", rv.Delete)

    // Payments.
    auth.POST("/payments", pm.Create)
    auth.GET("/payments", pm.ListMine)
    auth.GET("/payments/:id", pm.Get)
}

// RegisterMarket registers the authenticated marketplace endpoints: tool
// management for owners and purchase receipts for buyers.
func RegisterMarket(e *echo.Echo, t *handler.ToolHandler, rc *handler.ReceiptHandler, jwtSecret string) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))

    auth.POST("/tools", t.Create)
    auth.PUT("/tools/:id", t.Update)
    auth.DELETE("/tools/:id", t.Delete)

    auth.POST("/receipts", rc.Purchase)
    auth.GET("/receipts", rc.ListMine)
    auth.GET("/receipts/:id", rc.Get)
    auth.PUT("/receipts/:id/paid", rc.SetPaid)
    auth.DELETE("/receipts/:id", rc.Delete)
}
