// cmd/worker-manager/main.go
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

	"go.uber.org/zap"

	"cuidly-matching/internal/common/aws"
	"cuidly-matching/internal/common/camunda"
	"cuidly-matching/internal/common/config"
	"cuidly-matching/internal/common/database"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/common/observability"

	cms "cuidly-matching/internal/workers/matching/calculate-match-score"
	lmc "cuidly-matching/internal/workers/matching/load-match-context"
	pmr "cuidly-matching/internal/workers/matching/persist-match-results"
	rc "cuidly-matching/internal/workers/matching/rank-caregivers"
	sc "cuidly-matching/internal/workers/matching/search-caregivers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog.With(zap.String("service", cfg.App.Name)))

	log.Info("starting worker manager", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientFromConfig(cfg.Camunda)
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	// --- Elasticsearch ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if created, err := es.EnsureCaregiverIndex(ctx, cfg.Matching.Search.Index); err != nil {
		log.Warn("caregiver index check failed", map[string]interface{}{
			"index": cfg.Matching.Search.Index,
			"error": err.Error(),
		})
	} else if created {
		log.Info("caregiver index created", map[string]interface{}{"index": cfg.Matching.Search.Index})
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- Events ---
	var publisher pmr.EventPublisher
	switch {
	case cfg.Events.SNS.Enabled:
		snsClient, err := aws.NewSNSClient(ctx, cfg.Events.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = snsClient
	case cfg.Events.Zeebe.Enabled:
		publisher = camunda.NewMessagePublisher(zeebe, config.GetDuration(cfg.Events.Zeebe.MessageTTL))
	}

	log.Info("all clients initialized", nil)

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		lmc.TaskType: lmc.NewHandler(lmc.NewConfig(cfg), pg.GetDB(), rdb.GetClient(), log),
		sc.TaskType:  sc.NewHandler(sc.NewConfig(cfg), es.Client, log),
		cms.TaskType: cms.NewHandler(cms.NewConfig(cfg), log),
		rc.TaskType:  rc.NewHandler(rc.NewConfig(cfg), rdb.GetClient(), obs, log),
		pmr.TaskType: pmr.NewHandler(pmr.NewConfig(cfg), pg.GetDB(), publisher, log),
	}

	var workers []*camunda.CamundaWorker
	for _, taskType := range []string{lmc.TaskType, sc.TaskType, cms.TaskType, rc.TaskType, pmr.TaskType} {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		w := camunda.NewWorker(zeebe.GetClient(), taskType, wcfg, handlers[taskType], log)
		w.Start()
		workers = append(workers, w)
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler: newServerMux(map[string]readinessCheck{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("connection pools at shutdown", map[string]interface{}{
		"postgres": pg.PoolStats(),
		"redis":    rdb.PoolStats(),
	})
	log.Info("worker manager stopped gracefully", nil)
}
