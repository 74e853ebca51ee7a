package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prodpulse/prodmeter/internal/cache"
	"github.com/prodpulse/prodmeter/internal/config"
	"github.com/prodpulse/prodmeter/internal/database"
	apperrors "github.com/prodpulse/prodmeter/internal/errors"
	"github.com/prodpulse/prodmeter/internal/ratelimit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	scores := cache.NewScoreCache(cfg.CacheTTL)
	defer scores.Close()

	limiter := ratelimit.NewLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	defer limiter.Close()

	srv := newServer(cfg, repo, scores)
	router := newRouter(srv, limiter)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port, "profile", cfg.Profile)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func newRouter(srv *server, limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(apperrors.RecoveryHandler())
	router.Use(apperrors.ErrorHandler())
	router.Use(requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/health", srv.health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/tasks", srv.createTask)
		v1.GET("/tasks", srv.listTasks)
		v1.GET("/tasks/:id", srv.getTask)
		v1.PUT("/tasks/:id", srv.updateTask)
		v1.DELETE("/tasks/:id", srv.deleteTask)

		v1.POST("/goals", srv.createGoal)
		v1.GET("/goals", srv.listGoals)
		v1.GET("/goals/:id", srv.getGoal)
		v1.DELETE("/goals/:id", srv.deleteGoal)

		v1.POST("/sleep", srv.putSleepRecord)
		v1.GET("/sleep", srv.listSleepRecords)

		v1.POST("/attendance", srv.addAttendanceRecord)
		v1.GET("/attendance", srv.listAttendanceRecords)

		v1.POST("/scores/day", srv.scoreDay)
		v1.GET("/scores", srv.scoreHistory)

		v1.GET("/analytics/trend", srv.analyticsTrend)
		v1.GET("/analytics/anomalies", srv.analyticsAnomalies)
		v1.GET("/analytics/blend", srv.analyticsBlend)
		v1.GET("/analytics/reliability", srv.analyticsReliability)

		v1.GET("/config/weights", srv.getWeights)
		v1.PUT("/config/weights", srv.putWeights)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP())
	}
}
