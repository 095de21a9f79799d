package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/config"
	"github.com/inkrealm/blog/internal/database"
	"github.com/inkrealm/blog/internal/middleware"
	pkgredis "github.com/inkrealm/blog/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rdb     *redis.Client
	logger  *zap.Logger
	started time.Time
}

// New initializes the application: config → DB → Redis → routes. Redis is
// optional; without it rate limiting and idempotence are switched off.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	applyRuntimeSettings(cfg, logger)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := pkgredis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return build(logger, cfg, db, rdb), nil
}

func build(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rdb *redis.Client) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	a := &App{cfg: cfg, router: router, db: db, rdb: rdb, logger: logger, started: time.Now()}
	a.grantStaff()
	a.registerRoutes()
	return a
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown closes the redis and database connections.
func (a *App) Shutdown() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}
