package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/config"
	"todo-app/backend/internal/database"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/server"
	"todo-app/backend/internal/services"
	"todo-app/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		c        cache.Cache
		recorder services.AuditRecorder
		client   *redis.Client
		jobs     *worker.Worker
	)

	if cfg.Redis.Enabled {
		cacheConfig := cache.CacheConfigFromConfig(cfg)
		client = cache.NewRedisClient(cacheConfig)
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.GetRedisAddr(), err)
		}

		c = cache.NewGuardedCache(cache.NewRedisCacheWithClient(client, cacheConfig.Prefix), cache.DefaultCircuitBreakerConfig())
		recorder = worker.NewQueueRecorder(worker.NewJobQueue(client))
		jobs = startWorker(cfg, client, pool)
	} else {
		log.Println("Redis disabled: using in-memory cache, audit trail and session cleanup are off")
		memory := cache.NewMemoryCache()
		c = memory
		go purgeLoop(ctx, memory, cfg.Redis.CacheTTL)
	}

	srv := server.New(cfg, pool, c, recorder)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if jobs != nil {
		jobs.Stop()
	}
}

func startWorker(cfg *config.Config, client *redis.Client, pool *database.DatabasePool) *worker.Worker {
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  client,
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		Queues:       cfg.Worker.Queues,
	})
	w.RegisterHandler(worker.JobTypeAuditLog, worker.AuditLogHandler(repositories.NewAuditRepository(pool.DB)))
	w.RegisterHandler(worker.JobTypeSessionCleanup, worker.SessionCleanupHandler(repositories.NewUserRepository(pool.DB), time.Now))
	if cfg.Worker.CleanupInterval > 0 {
		w.Every(cfg.Worker.CleanupInterval, worker.QueueMaintenance, worker.JobTypeSessionCleanup, nil)
	}
	w.Start(cfg.Worker.Concurrency)
	return w
}

func purgeLoop(ctx context.Context, memory *cache.MemoryCache, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			memory.Purge()
		}
	}
}
