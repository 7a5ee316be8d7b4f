package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/sat-verify/internal/config"
	"github.com/example/sat-verify/internal/imagery"
	"github.com/example/sat-verify/internal/logging"
	"github.com/example/sat-verify/internal/queue"
	"github.com/example/sat-verify/internal/repository"
	"github.com/example/sat-verify/internal/segmenter"
	"github.com/example/sat-verify/internal/usecase"
	"github.com/example/sat-verify/internal/webhook"
)

// jobTimeout bounds one verification end to end: page render (up to 60s),
// inference, persistence, and callback retries.
const jobTimeout = 3 * time.Minute

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load(logger)

	db := initDatabase(ctx, cfg, logger)
	repo := repository.NewVerificationRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	redisClient := initRedis(redisCtx, cfg, logger)

	capturer := imagery.NewRenderClient(cfg.RenderURL, cfg.CaptureTimeout, logger)
	model := segmenter.NewHTTPClient(cfg.SegmenterURL, 30*time.Second, logger)

	cache := usecase.NewRedisCache(redisClient)
	uc := usecase.NewVerificationUseCase(repo, cache, capturer, model, usecase.Options{
		AOIDelta:        cfg.AOIDelta,
		ConfidenceFloor: cfg.ConfidenceFloor,
		MinCoveragePct:  cfg.MinCoveragePct,
	}, logger)

	callbacks := webhook.NewSender(3, 10*time.Second, time.Second, logger)
	consumer := queue.NewConsumer(uc, callbacks, jobTimeout, logger)

	nc, err := queue.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal("failed to connect to message bus", zap.Error(err), zap.String("url", cfg.NATSURL))
	}
	defer nc.Close()

	sub, err := consumer.Subscribe(nc, cfg.NATSSubject, cfg.NATSQueue)
	if err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err), zap.String("subject", cfg.NATSSubject))
	}

	logger.Info("verification worker started",
		zap.String("subject", cfg.NATSSubject), zap.String("queue", cfg.NATSQueue))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Stop taking new jobs and wait for in-flight verifications to finish,
	// up to one full job's worth of time, before the connection goes away.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), jobTimeout)
	defer shutdownCancel()
	if err := consumer.Shutdown(shutdownCtx, sub); err != nil {
		logger.Warn("shutdown did not complete cleanly", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}

func initDatabase(ctx context.Context, cfg config.Config, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, cfg config.Config, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}
