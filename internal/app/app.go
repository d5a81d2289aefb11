package app

import (
	"database/sql"
	"net/http"

	"go-attendance/internal/config"
	"go-attendance/internal/middleware"
	"go-attendance/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	connectRetries = 5

	// per client IP, across every route
	ipRateLimit = 20
	ipRateBurst = 40
)

type infra struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
	redis  *redis.Client
}

func (i *infra) Close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.sqlDB != nil {
		_ = i.sqlDB.Close()
	}
}

func connect(cfg config.Config) (*infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, connectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &infra{gormDB: gormDB, sqlDB: sqlDB, redis: rdb}, nil
}

// BuildApp connects to storage, migrates the schema and registers routes.
// The returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app.api")

	inf, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate(inf.gormDB); err != nil {
		inf.Close()
		return nil, err
	}
	if inf.redis == nil {
		logger.Warn("REDIS_ADDR not set, using in-process clock lock and no idempotency replay")
	}

	router.Use(middleware.RateLimitByIP(ipRateLimit, ipRateBurst))

	router.GET("/healthz", func(c *gin.Context) {
		if err := inf.sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	registerModules(router, inf.sqlDB, inf.gormDB, inf.redis, cfg, zap.L())
	logger.Info("attendance api ready")

	return inf.Close, nil
}
