package app

import (
	"database/sql"

	"go-attendance/internal/attendance"
	"go-attendance/internal/config"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/shared/lock"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newAttendanceService wires the attendance service with the outbox and,
// when Redis is configured, a cross-process employee lock.
func newAttendanceService(
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg config.Config,
	logger *zap.Logger,
) attendance.Service {
	opts := []attendance.Option{
		attendance.WithOutbox(kafka.NewOutboxRepository(db)),
		attendance.WithLogger(logger),
		attendance.WithLocation(cfg.Location),
	}
	if rdb != nil {
		opts = append(opts, attendance.WithLocker(lock.NewRedisLocker(rdb, lock.WithLogger(logger))))
	}
	return attendance.NewService(db, attendance.NewRepository(gormDB), opts...)
}

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg config.Config,
	logger *zap.Logger,
) {
	// --- Services ---
	attendanceService := newAttendanceService(db, gormDB, rdb, cfg, logger)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService, logger)

	// --- Routes Registration ---
	routeOpts := attendance.RouteOptions{Logger: logger}
	if rdb != nil {
		routeOpts.Redis = rdb
	}

	api := router.Group("/api/v1")
	{
		attendance.RegisterRoutes(api, attendanceHandler, routeOpts)
	}
}
