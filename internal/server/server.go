// Package server assembles repositories, services and handlers into the HTTP API.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/config"
	"todo-app/backend/internal/database"
	"todo-app/backend/internal/handlers"
	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/monitoring"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/security"
	"todo-app/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	limiter    *middleware.RateLimiter
}

// New wires the application. c may be a redis-backed or in-memory cache; recorder
// receives access decisions and may be nil.
func New(cfg *config.Config, pool *database.DatabasePool, c cache.Cache, recorder services.AuditRecorder) *Server {
	users := repositories.NewUserRepository(pool.DB)
	var tasks repositories.TaskStore = repositories.NewTaskRepository(pool.DB)
	var labels repositories.LabelStore = repositories.NewLabelRepository(pool.DB)
	if c != nil {
		tasks = services.NewCachedTaskStore(tasks, c, cfg.Redis.CacheTTL)
		labels = services.NewCachedLabelStore(labels, c, cfg.Redis.CacheTTL)
	}

	tokens := services.NewTokenService(cfg.Auth)
	guard := services.NewGuard(tokens, users)
	policy := services.NewAccessPolicy(recorder)

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register("database", pool.HealthContext)
	stats := map[string]monitoring.StatsFunc{"database": pool.Stats}
	if c != nil {
		health.Register("cache", c.Health)
		stats["cache"] = c.Stats
	}

	s := &Server{cfg: cfg}
	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	s.engine = NewRouter(Routes{
		Guard:   guard,
		Auth:    handlers.NewAuthHandler(services.NewAuthService(users, security.NewPasswordHasher(cfg.Auth.BCryptCost), tokens, cfg.Auth)),
		Tasks:   handlers.NewTaskHandler(services.NewTaskService(tasks, labels, policy)),
		Labels:  handlers.NewLabelHandler(services.NewLabelService(labels, policy)),
		Users:   handlers.NewUserHandler(services.NewUserService(users, policy)),
		Metrics: metrics,
		Health:  health,
		Stats:   stats,
		Limiter: s.limiter,
		CORS:    cfg.CORS,
	})

	s.httpServer = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown. A shutdown-triggered close is not an error.
func (s *Server) Run() error {
	if s.limiter != nil {
		s.limiter.Start()
	}

	log.Printf("Server listening on %s (environment=%s)", s.httpServer.Addr, s.cfg.Server.Environment)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// Routes holds what NewRouter mounts.
type Routes struct {
	Guard   *services.Guard
	Auth    *handlers.AuthHandler
	Tasks   *handlers.TaskHandler
	Labels  *handlers.LabelHandler
	Users   *handlers.UserHandler
	Metrics *monitoring.Metrics
	Health  *monitoring.HealthChecker
	Stats   map[string]monitoring.StatsFunc
	Limiter *middleware.RateLimiter
	CORS    config.CORSConfig
}

func NewRouter(r Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryWithLog(), r.Metrics.Middleware(), cors.New(corsConfig(r.CORS)))

	router.GET("/health", monitoring.HealthHandler(r.Health, r.Metrics))
	router.GET("/health/ready", monitoring.ReadinessHandler(r.Health))
	router.GET("/health/live", monitoring.LivenessHandler(r.Metrics))
	router.GET("/metrics", monitoring.MetricsHandler(r.Metrics, r.Stats))

	authenticate := middleware.Authenticate(r.Guard)

	auth := router.Group("/auth")
	if r.Limiter != nil {
		auth.Use(r.Limiter.Middleware())
	}
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/refresh", middleware.OptionalAuthenticate(r.Guard), r.Auth.Refresh)
	auth.POST("/logout", authenticate, r.Auth.Logout)
	auth.GET("/me", authenticate, r.Auth.Me)

	tasks := router.Group("/tasks", authenticate)
	tasks.GET("/", r.Tasks.GetTasks)
	tasks.POST("/", r.Tasks.CreateTask)
	tasks.GET("/user/:user_id", r.Tasks.GetTasksByUser)
	tasks.GET("/user/:user_id/status/:status", r.Tasks.GetTasksByUserAndStatus)
	tasks.GET("/user/:user_id/priority/:priority", r.Tasks.GetTasksByUserAndPriority)
	tasks.GET("/:id", r.Tasks.GetTaskByID)
	tasks.PATCH("/:id", r.Tasks.UpdateTask)
	tasks.DELETE("/:id", r.Tasks.DeleteTask)
	tasks.PUT("/:id/labels", r.Tasks.SetTaskLabels)
	tasks.PATCH("/:id/toggle", r.Tasks.ToggleTask)

	labels := router.Group("/labels", authenticate)
	labels.GET("/", r.Labels.GetLabels)
	labels.POST("/", r.Labels.CreateLabel)
	labels.GET("/user/:user_id", r.Labels.GetLabelsByUser)
	labels.GET("/:id", r.Labels.GetLabelByID)
	labels.PATCH("/:id", r.Labels.UpdateLabel)
	labels.DELETE("/:id", r.Labels.DeleteLabel)

	users := router.Group("/users", authenticate)
	users.GET("/:user_id", r.Users.GetUser)
	users.PATCH("/:user_id", r.Users.UpdateUser)

	admin := router.Group("/admin", authenticate, middleware.RequireRole(r.Guard, models.RoleAdmin))
	admin.GET("/users", r.Users.ListUsers)
	admin.GET("/tasks", r.Tasks.ListAllTasks)
	admin.GET("/labels", r.Labels.ListAllLabels)
	admin.POST("/users/:user_id/roles", r.Users.AssignRole)

	return router
}

// corsConfig allows every origin when none, or "*", is configured; credentials are only
// allowed for an explicit origin list.
func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "WWW-Authenticate", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	if allowAll {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
