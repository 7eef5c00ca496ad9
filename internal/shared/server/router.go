package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"file-management-api/internal/files"
	"file-management-api/internal/services/health"
	"file-management-api/internal/shared/config"
	"file-management-api/internal/shared/metrics"
	"file-management-api/internal/shared/server/middleware"
	"file-management-api/internal/shared/server/respond"
)

// RouterDeps are the handlers mounted on the router.
type RouterDeps struct {
	Config       config.Config
	FilesHandler *files.Handler
	Health       *health.Service
	UploadLimit  *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", healthHandler(deps.Health))

	if deps.FilesHandler != nil {
		uploadRule := middleware.RateLimitRule{
			Rate:  deps.Config.UploadRate.PerSecond,
			Burst: deps.Config.UploadRate.Burst,
		}
		deps.FilesHandler.RegisterRoutes(api, middleware.RateLimit(uploadRule, deps.UploadLimit))
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})
	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.OK(c, health.Report{OK: true})
			return
		}
		report := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
