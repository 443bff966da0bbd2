// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"advisor-workers/internal/common/aws"
	"advisor-workers/internal/common/camunda"
	"advisor-workers/internal/common/config"
	"advisor-workers/internal/common/database"
	"advisor-workers/internal/common/genai"
	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/common/observability"
	"advisor-workers/internal/common/storage"

	// Analysis & Matching Workers (2)
	ac "advisor-workers/internal/workers/analysis/analyze-chat"
	mp "advisor-workers/internal/workers/matching/match-professor"

	// Chat Workers (3)
	cm "advisor-workers/internal/workers/chat/chat-message"
	sc "advisor-workers/internal/workers/chat/session-connect"
	sd "advisor-workers/internal/workers/chat/session-disconnect"

	// Consultation Workers (2)
	lr "advisor-workers/internal/workers/consultation/list-results"
	rc "advisor-workers/internal/workers/consultation/run-consultation"

	// Notification Workers (1)
	nm "advisor-workers/internal/workers/notification/notify-match"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func workerTimeout(wcfg config.WorkerConfig, fallback time.Duration) time.Duration {
	if wcfg.Timeout > 0 {
		return time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return fallback
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Camunda Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")

	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	defer camundaClient.Close()
	zapLog.Info("Camunda client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Object Store ---
	store, err := storage.NewObjectStore(ctx, cfg.Storage.S3)
	if err != nil {
		zapLog.Fatal("object store failed", zap.Error(err))
	}
	zapLog.Info("Object store initialized", zap.String("bucket", cfg.Storage.S3.Bucket))

	// --- Init GenAI Client ---
	generator, err := genai.NewGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
	if err != nil {
		zapLog.Fatal("genai client failed", zap.Error(err))
	}
	zapLog.Info("GenAI client initialized", zap.String("model", generator.Model()))

	llmTimeout := time.Duration(cfg.GenAI.Timeout) * time.Millisecond

	// --- Build Handlers ---
	// The analyze-chat and match-professor handlers are built unconditionally:
	// run-consultation composes them even when their own task types are off.
	analyzeHandler := ac.NewHandler(
		&ac.Config{
			Timeout:    workerTimeout(cfg.Workers[ac.TaskType], 60*time.Second),
			LLMTimeout: llmTimeout,
		},
		store, generator, log,
	)

	matchCfg := mp.LoadConfig()
	matchCfg.Timeout = workerTimeout(cfg.Workers[mp.TaskType], matchCfg.Timeout)
	matchHandler := mp.NewHandler(matchCfg, pg.GetDB(), rdb.GetClient(), generator, log)

	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := cfg.Workers[taskType]
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}

		maxJobs := wcfg.MaxJobsActive
		if maxJobs == 0 {
			maxJobs = cfg.Camunda.MaxJobsActive
		}

		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(),
			taskType,
			maxJobs,
			workerTimeout(wcfg, 30*time.Second),
			handler,
			zapLog,
		))
	}

	// --- 1. Chat Workers (3) ---
	register(sc.TaskType, sc.NewHandler(
		&sc.Config{
			Timeout:       workerTimeout(cfg.Workers[sc.TaskType], 10*time.Second),
			ConnectionTTL: 24 * time.Hour,
		},
		rdb.GetClient(), log,
	))

	register(sd.TaskType, sd.NewHandler(
		&sd.Config{
			Timeout: workerTimeout(cfg.Workers[sd.TaskType], 10*time.Second),
		},
		rdb.GetClient(), log,
	))

	register(cm.TaskType, cm.NewHandler(
		&cm.Config{
			Timeout:      workerTimeout(cfg.Workers[cm.TaskType], 60*time.Second),
			LLMTimeout:   llmTimeout,
			HistoryLimit: 50,
		},
		pg.GetDB(), rdb.GetClient(), generator, store, log,
	))

	// --- 2. Analysis & Matching Workers (2) ---
	register(ac.TaskType, analyzeHandler)
	register(mp.TaskType, matchHandler)

	// --- 3. Consultation Workers (2) ---
	register(rc.TaskType, rc.NewHandler(
		&rc.Config{
			Timeout:       workerTimeout(cfg.Workers[rc.TaskType], 120*time.Second),
			RetentionDays: cfg.Retention.ResultDays,
		},
		pg.GetDB(), analyzeHandler, matchHandler, store, log,
	))

	register(lr.TaskType, lr.NewHandler(
		&lr.Config{
			Timeout:       workerTimeout(cfg.Workers[lr.TaskType], 30*time.Second),
			RetentionDays: cfg.Retention.ResultDays,
			MaxResults:    100,
		},
		pg.GetDB(), log,
	))

	// --- 4. Notification Workers (1) ---
	if cfg.Workers[nm.TaskType].Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}

		register(nm.TaskType, nm.NewHandler(
			&nm.Config{
				Timeout:      workerTimeout(cfg.Workers[nm.TaskType], 30*time.Second),
				FromEmail:    cfg.Notifications.Email.FromEmail,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
			},
			pg.GetDB(), sesClient, snsClient, log,
		))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", nm.TaskType))
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("Worker manager stopped gracefully")
}
