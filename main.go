package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudquiz/cloudquiz/backend/go-services/handlers"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/database"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/idtoken"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/jobs"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/quiz"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/middleware"
)

const version = "v1.0.0"

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s files=%s redis=%v", cfg.Store.Backend, cfg.Store.FileBackend, cfg.Redis.Host != "")

	ctx := context.Background()
	backends, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open backends: %v", err)
	}
	defer func() {
		if err := backends.Close(context.Background()); err != nil {
			logger.Warnf("closing backends: %v", err)
		}
	}()

	repos := quiz.New(backends.Store, backends.Files, backends.Users)

	var fbAuth idtoken.FirebaseAuth
	if backends.Firebase != nil && cfg.Auth.Firebase {
		client, err := backends.Firebase.Auth(ctx)
		if err != nil {
			logger.Warnf("failed to initialize Firebase auth: %v", err)
		} else {
			fbAuth = client
		}
	}
	verifier, err := idtoken.New(ctx, cfg.Auth, fbAuth)
	if err != nil {
		logger.Warnf("token verification unavailable: %v", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors())
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && backends.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(backends.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when the store answers and tokens can be verified
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"auth": verifier != nil}
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		_, err := repos.DataSize.Get(pingCtx)
		deps["store"] = err == nil
		if cfg.Redis.Host != "" {
			deps["redis"] = backends.Redis != nil && backends.Redis.Ping(pingCtx).Err() == nil
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if verifier != nil {
		runner := jobs.New(repos,
			jobs.WithBackupEndpoint(cfg.Backup.Endpoint, &http.Client{Timeout: cfg.Backup.Timeout}),
			jobs.WithRetentionMonths(cfg.Backup.RetentionMonths),
		)
		api := handlers.NewAPI(repos, runner, cfg.Server.RequestTimeout)
		api.Register(r.Group("/api/v1"), middleware.AuthMiddleware(verifier), middleware.AdminOnly(cfg.Auth.AdminEmails))
	} else {
		logger.Warnf("API routes not registered because no token verifier is configured")
	}
	handlers.RegisterSwagger(r, version)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting cloudquiz API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}

// cors answers preflight requests and allows any origin; the API is
// protected by bearer tokens, not cookies.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length, "+handlers.FailedStepsHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
