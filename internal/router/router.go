// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/navpurush/hostelms/internal/config"
	"github.com/navpurush/hostelms/internal/handler"
	"github.com/navpurush/hostelms/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Admins   *handler.AdminHandler
	Students *handler.StudentHandler
	Rooms    *handler.RoomHandler
	Fees     *handler.FeeHandler
	Visitors *handler.VisitorHandler
	Mess     *handler.MessHandler
	Lookups  *handler.LookupHandler
}

// Register wires all routes. Login and the health check are public; every
// other endpoint sits behind JWT auth plus a role gate. Admin account
// management is restricted to super_admin, and read-heavy report routes are
// served through the Redis response cache.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", h.Health.Check)

	// Login runs behind the token bucket so credential guessing stays slow.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	e.POST("/v1/auth/login", h.Auth.Login, limiter)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole("super_admin", "admin", "staff"))

	auth.POST("/auth/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Admin account management, super_admin only.
	super := auth.Group("/admins", middleware.RequireRole("super_admin"))
	super.GET("", h.Admins.List)
	super.POST("", h.Admins.Create)
	super.GET("/search", h.Admins.Search)
	super.GET("/activity-log", h.Admins.ActivityLog)
	super.GET("/role/:role", h.Admins.ByRole)
	super.GET("/:id", h.Admins.Get)
	super.GET("/:id/sessions", h.Admins.Sessions)
	super.PUT("/:id", h.Admins.Update)
	super.DELETE("/:id", h.Admins.Delete)
	super.PATCH("/:id/role", h.Admins.UpdateRole)
	super.PATCH("/:id/status", h.Admins.UpdateStatus)
	super.PATCH("/:id/password", h.Admins.ChangePassword)

	auth.GET("/dashboard", h.Admins.Dashboard, cache)

	// Students.
	auth.GET("/students", h.Students.List)
	auth.POST("/students", h.Students.Create)
	auth.GET("/students/search", h.Students.Search)
	auth.GET("/students/pending-fees", h.Students.PendingFees, cache)
	auth.GET("/students/available-rooms", h.Students.AvailableRooms)
	auth.GET("/students/statistics", h.Students.Statistics, cache)
	auth.GET("/students/:id", h.Students.Get)
	auth.PUT("/students/:id", h.Students.Update)
	auth.DELETE("/students/:id", h.Students.Delete)
	auth.PATCH("/students/:id/status", h.Students.UpdateStatus)
	auth.PUT("/students/:id/room", h.Students.AssignRoom)
	auth.DELETE("/students/:id/room", h.Students.VacateRoom)
	auth.GET("/courses/:id/students", h.Students.ByCourse)

	// Rooms and occupancy.
	auth.GET("/rooms", h.Rooms.List)
	auth.POST("/rooms", h.Rooms.Create)
	auth.GET("/rooms/available", h.Rooms.Available)
	auth.GET("/rooms/floor-plan", h.Rooms.FloorPlan, cache)
	auth.GET("/rooms/maintenance", h.Rooms.Maintenance)
	auth.GET("/rooms/search", h.Rooms.Search)
	auth.GET("/rooms/statistics", h.Rooms.Statistics, cache)
	auth.GET("/rooms/block/:block", h.Rooms.ByBlock)
	auth.GET("/rooms/:id", h.Rooms.Get)
	auth.PUT("/rooms/:id", h.Rooms.Update)
	auth.DELETE("/rooms/:id", h.Rooms.Delete)
	auth.PATCH("/rooms/:id/status", h.Rooms.UpdateStatus)
	auth.GET("/rooms/:id/students", h.Students.ByRoom)
	auth.GET("/rooms/:id/history", h.Rooms.AllocationHistory)

	// Fee payments and collection reports.
	auth.GET("/fees", h.Fees.List)
	auth.POST("/fees", h.Fees.Record)
	auth.GET("/fees/pending", h.Fees.PendingReport, cache)
	auth.GET("/fees/overdue", h.Fees.Overdue, cache)
	auth.GET("/fees/methods", h.Fees.MethodStats, cache)
	auth.GET("/fees/statistics", h.Fees.CollectionStats, cache)
	auth.GET("/fees/receipt/:receipt", h.Fees.ByReceipt)
	auth.GET("/fees/:id", h.Fees.Get)
	auth.PATCH("/fees/:id/status", h.Fees.UpdateStatus)
	auth.GET("/students/:id/fees", h.Fees.StudentSummary)
	auth.GET("/students/:id/fees/history", h.Fees.StudentHistory)

	// Gate register.
	auth.GET("/visitors", h.Visitors.List)
	auth.POST("/visitors", h.Visitors.Entry)
	auth.GET("/visitors/current", h.Visitors.Current)
	auth.GET("/visitors/search", h.Visitors.Search)
	auth.GET("/visitors/id-proof", h.Visitors.ByIDProof)
	auth.GET("/visitors/alerts", h.Visitors.Alerts)
	auth.GET("/visitors/report", h.Visitors.Report, cache)
	auth.GET("/visitors/counts", h.Visitors.Counts, cache)
	auth.GET("/visitors/frequent", h.Visitors.Frequent, cache)
	auth.GET("/visitors/statistics", h.Visitors.Statistics, cache)
	auth.GET("/visitors/:id", h.Visitors.Get)
	auth.POST("/visitors/:id/exit", h.Visitors.Exit)
	auth.PATCH("/visitors/:id/status", h.Visitors.UpdateStatus)
	auth.GET("/students/:id/visitors", h.Visitors.ByStudent)

	// Mess.
	auth.GET("/mess", h.Mess.List)
	auth.POST("/mess", h.Mess.Record)
	auth.GET("/mess/today", h.Mess.ByDate)
	auth.GET("/mess/weekly", h.Mess.WeeklyMenu)
	auth.GET("/mess/monthly", h.Mess.Monthly)
	auth.GET("/mess/menu-items", h.Mess.MenuItems)
	auth.GET("/mess/search", h.Mess.Search)
	auth.GET("/mess/events", h.Mess.SpecialEvents)
	auth.GET("/mess/maintenance", h.Mess.Maintenance)
	auth.GET("/mess/food-status", h.Mess.FoodStatus)
	auth.GET("/mess/preferences", h.Mess.FoodPreferences, cache)
	auth.GET("/mess/cost-per-student", h.Mess.CostPerStudent, cache)
	auth.GET("/mess/summary", h.Mess.MonthlySummary, cache)
	auth.GET("/mess/statistics", h.Mess.Statistics, cache)
	auth.GET("/mess/:id", h.Mess.Get)
	auth.PUT("/mess/:id", h.Mess.Update)
	auth.DELETE("/mess/:id", h.Mess.Delete)

	// Reference lists.
	auth.GET("/courses", h.Lookups.ListCourses)
	auth.GET("/states", h.Lookups.ListStates)
}
