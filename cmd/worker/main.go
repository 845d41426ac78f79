package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"muckamuck/internal/core/cache"
	"muckamuck/internal/core/config"
	"muckamuck/internal/core/database"
	"muckamuck/internal/core/logger"
	"muckamuck/internal/queue"
	"muckamuck/internal/render"
	"muckamuck/internal/repo"
	"muckamuck/internal/tasks"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	var log *zap.Logger
	var cleanup func()
	if cfg.Log.File != "" {
		log, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON,
			cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	} else {
		log, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	defer cleanup()
	defer logger.RedirectStdLog(log, zap.InfoLevel)()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	sites := repo.NewSiteRepo(db)
	posts := repo.NewPostRepo(db)
	users := repo.NewUserRepo(db)

	renderer := render.NewRenderer(
		render.Config{PageSize: cfg.Render.PageSize, FeedItemLimit: cfg.Render.FeedItemLimit},
		render.Layout{Root: cfg.Render.OutputRoot},
		sites, posts, users,
		render.NewHandlebars(),
		log,
	)
	handler := tasks.NewHandler(renderer, sites, posts, log)

	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	q := queue.New(rc.RDB, cfg.Queue.Key, cfg.Queue.MaxRetries, log)
	handler.SetScheduler(q)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	log.Info("worker starting",
		zap.String("queue", cfg.Queue.Key),
		zap.Int("workers", cfg.Queue.Workers),
		zap.String("output_root", cfg.Render.OutputRoot),
	)
	if err := q.Run(ctx, handler, cfg.Queue.Workers); err != nil {
		log.Fatal("worker run failed", zap.Error(err))
	}
	log.Info("worker stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
