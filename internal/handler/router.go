package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kitabu/internal/domain/owner"
	"kitabu/internal/handler/api"
	"kitabu/internal/handler/middleware"
	"kitabu/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	reservationHandler *api.ReservationHandler,
	subjectHandler *api.SubjectHandler,
	availabilityHandler *api.AvailabilityHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, reservationHandler, subjectHandler, availabilityHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	reservationHandler *api.ReservationHandler,
	subjectHandler *api.SubjectHandler,
	availabilityHandler *api.AvailabilityHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/register", Handler: authHandler.Register},
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
			})
		}

		subjects := apiGroup.Group("/subjects")
		subjects.Use(authMiddleware.RequireAuth())
		{
			adminOnly := authMiddleware.RequireRoleAtLeast(owner.RoleAdmin)
			addRoutes(subjects, []route{
				{Method: http.MethodGet, Path: "", Handler: subjectHandler.ListSubjects},
				{Method: http.MethodGet, Path: "/:id", Handler: subjectHandler.GetSubject},
				{Method: http.MethodGet, Path: "/:id/free-periods", Handler: availabilityHandler.FreePeriods},
				{Method: http.MethodPost, Path: "", Handler: subjectHandler.CreateSubject, Mw: []gin.HandlerFunc{adminOnly}},
				{Method: http.MethodPatch, Path: "/:id/capacity", Handler: subjectHandler.ResizeSubject, Mw: []gin.HandlerFunc{adminOnly}},
				{Method: http.MethodPost, Path: "/:id/validators", Handler: subjectHandler.AttachValidator, Mw: []gin.HandlerFunc{adminOnly}},
			})
		}

		validators := apiGroup.Group("/validators")
		validators.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRoleAtLeast(owner.RoleAdmin))
		{
			addRoutes(validators, []route{
				{Method: http.MethodPost, Path: "", Handler: subjectHandler.CreateValidator},
			})
		}

		clusters := apiGroup.Group("/clusters")
		clusters.Use(authMiddleware.RequireAuth())
		{
			addRoutes(clusters, []route{
				{Method: http.MethodPost, Path: "", Handler: subjectHandler.CreateCluster, Mw: []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(owner.RoleAdmin)}},
				{Method: http.MethodGet, Path: "/available", Handler: availabilityHandler.AvailableClusters},
			})
		}

		availability := apiGroup.Group("/availability")
		availability.Use(authMiddleware.RequireAuth())
		{
			addRoutes(availability, []route{
				{Method: http.MethodGet, Path: "/subjects", Handler: availabilityHandler.AvailableSubjects},
				{Method: http.MethodGet, Path: "/subjects/exclusive", Handler: availabilityHandler.ExclusivelyAvailableSubjects},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			adminOnly := authMiddleware.RequireRoleAtLeast(owner.RoleAdmin)
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.Reserve},
				{Method: http.MethodPost, Path: "/groups", Handler: reservationHandler.ReserveGroup},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.GetOwnerReservations},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.GetReservation},
				{Method: http.MethodGet, Path: "/groups/:id", Handler: reservationHandler.GetGroupReservations},
				{Method: http.MethodPost, Path: "/:id/approve", Handler: reservationHandler.Approve, Mw: []gin.HandlerFunc{adminOnly}},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
