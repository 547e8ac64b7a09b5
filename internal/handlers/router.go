package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
)

// RouterOptions holds the pieces of the router that vary per deployment.
type RouterOptions struct {
	Log          *zap.Logger
	Development  bool
	AllowOrigins []string
	// CreateLimiter rate-limits report and help request creation; nil
	// disables it.
	CreateLimiter middleware.Limiter
	// WebSocket serves GET /ws; nil leaves the route out.
	WebSocket http.HandlerFunc
}

// NewRouter wires every route of the API onto a fresh gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()

	// ---  Middleware ---
	r.Use(middleware.Recovery(opts.Log))
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))
	r.Use(middleware.ErrorHandler(opts.Log, opts.Development))
	r.NoRoute(middleware.NotFound)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.WebSocket != nil {
		r.GET("/ws", gin.WrapF(opts.WebSocket))
	}

	auth := middleware.AuthMiddleware(h.Tokens, h.Store.Users)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	limitCreate := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if opts.CreateLimiter != nil {
		limitCreate = middleware.RateLimit(opts.CreateLimiter, "create")
	}

	// --- Routes ---
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", auth, h.GetCurrentUser)
		authRoutes.PUT("/password", auth, h.ChangePassword)
	}

	userRoutes := r.Group("/api/users", auth, adminOnly)
	{
		userRoutes.GET("", h.GetUsers)
		userRoutes.GET("/assignable", h.GetAssignableUsers)
		userRoutes.GET("/:id", h.GetUser)
		userRoutes.PUT("/:id/approve", h.ApproveUser)
		userRoutes.PUT("/:id/reject", h.RejectUser)
		userRoutes.PUT("/:id/block", h.BlockUser)
		userRoutes.PUT("/:id/unblock", h.UnblockUser)
		userRoutes.DELETE("/:id", h.DeleteUser)
	}

	reportRoutes := r.Group("/api/reports")
	{
		reportRoutes.POST("", auth, limitCreate, h.CreateReport)
		reportRoutes.GET("", auth, h.GetReports)
		reportRoutes.GET("/mine", auth, h.GetMyReports)
		reportRoutes.GET("/assigned", auth, h.GetAssignedReports)
		reportRoutes.GET("/stats", auth, adminOnly, h.GetReportStats)
		reportRoutes.GET("/:id", auth, h.GetReport)
		reportRoutes.PUT("/:id", auth, h.UpdateReport)
		reportRoutes.PUT("/:id/status", auth, h.UpdateReportStatus)
		reportRoutes.PUT("/:id/assign", auth, adminOnly, h.AssignReport)
		reportRoutes.POST("/:id/images", auth, h.UploadReportImage)
		reportRoutes.DELETE("/:id", auth, adminOnly, h.DeleteReport)
	}

	helpRoutes := r.Group("/api/help-requests")
	{
		helpRoutes.POST("", auth, limitCreate, h.CreateHelpRequest)
		helpRoutes.GET("", auth, h.GetHelpRequests)
		helpRoutes.GET("/mine", auth, h.GetMyHelpRequests)
		helpRoutes.GET("/assigned", auth, h.GetAssignedHelpRequests)
		helpRoutes.GET("/stats", auth, adminOnly, h.GetHelpRequestStats)
		helpRoutes.GET("/:id", auth, h.GetHelpRequest)
		helpRoutes.PUT("/:id", auth, h.UpdateHelpRequest)
		helpRoutes.PUT("/:id/status", auth, h.UpdateHelpRequestStatus)
		helpRoutes.PUT("/:id/assign", auth, adminOnly, h.AssignHelpRequest)
		helpRoutes.DELETE("/:id", auth, adminOnly, h.DeleteHelpRequest)
	}

	volunteerRoutes := r.Group("/api/volunteers", auth)
	{
		volunteerRoutes.GET("", h.GetVolunteers)
		volunteerRoutes.GET("/:id", h.GetVolunteer)
		volunteerRoutes.POST("", adminOnly, h.CreateVolunteer)
		volunteerRoutes.PUT("/:id", adminOnly, h.UpdateVolunteer)
		volunteerRoutes.DELETE("/:id", adminOnly, h.DeleteVolunteer)
	}

	return r
}

// corsConfig allows the listed origins with credentials; an empty list or
// "*" allows every origin without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
