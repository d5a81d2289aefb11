package attendance

import (
	"time"

	"go-attendance/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouteOptions carries the optional collaborators of the route table.
// A nil Redis disables idempotency replay.
type RouteOptions struct {
	Redis      redis.Cmdable
	ClockRate  rate.Limit
	ClockBurst int
	IdemTTL    time.Duration
	Logger     *zap.Logger
}

func RegisterRoutes(r *gin.RouterGroup, h *Handler, opts RouteOptions) {
	if opts.ClockRate <= 0 {
		opts.ClockRate = rate.Every(time.Second)
	}
	if opts.ClockBurst <= 0 {
		opts.ClockBurst = 3
	}
	clockLimit := middleware.RateLimitByUser(opts.ClockRate, opts.ClockBurst)
	admin := middleware.RequireRole(middleware.AdminRoles...)

	attendances := r.Group("/attendances")
	attendances.Use(middleware.Identity(), middleware.ContextLogger(loggerOrGlobal(opts.Logger)))
	{
		attendances.GET("/status", h.GetStatus)
		attendances.GET("/today", h.GetToday)
		attendances.POST("/clock-in", clockLimit, h.ClockIn)
		attendances.POST("/clock-out", clockLimit, h.ClockOut)

		attendances.GET("", admin, h.Query)
		attendances.GET("/export", admin, h.Export)
		attendances.POST("/manual", admin, middleware.Idempotency(opts.Redis, opts.IdemTTL, opts.Logger), h.CreateManualEntry)
		attendances.GET("/:id/history", admin, h.GetHistory)
		attendances.PUT("/:id", admin, h.EditEntry)
		attendances.PATCH("/:id/flag", admin, h.SetFlag)
	}
}

func loggerOrGlobal(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return zap.L()
}
