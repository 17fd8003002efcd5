// cmd/onboarding-service/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"opulanz-onboarding/internal/admin"
	"opulanz-onboarding/internal/api"
	commonaws "opulanz-onboarding/internal/common/aws"
	"opulanz-onboarding/internal/common/camunda"
	"opulanz-onboarding/internal/common/config"
	"opulanz-onboarding/internal/common/database"
	commonhttp "opulanz-onboarding/internal/common/http"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/observability"
	"opulanz-onboarding/internal/draftstore"
	"opulanz-onboarding/internal/forms"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"

	rs "opulanz-onboarding/internal/workers/onboarding/record-submission"
	sc "opulanz-onboarding/internal/workers/onboarding/send-confirmation"
	vs "opulanz-onboarding/internal/workers/onboarding/validate-submission"
)

// retryWithBackoff retries a connection attempt with exponential backoff.
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("draftStore", cfg.DraftStore.Backend),
		zap.String("transport", cfg.Submission.Transport),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	// --- PostgreSQL (records, back office) ---
	var pg *database.PostgresClient
	if cfg.NeedsPostgres() {
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
		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Draft store backend ---
	var backends draftstore.Backends
	switch cfg.DraftStore.Backend {
	case config.BackendRedis:
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		backends.Redis = rc.Client
		checks["redis"] = rc.Ping
	case config.BackendBadger:
		var bdb *badger.DB
		bdb, err = database.OpenBadger(database.BadgerOptions{
			Path:     cfg.DraftStore.Badger.Path,
			InMemory: cfg.DraftStore.Badger.InMemory,
			Logger:   log,
		})
		if err != nil {
			zapLog.Fatal("badger open failed", zap.Error(err))
		}
		defer bdb.Close()
		backends.Badger = bdb
	case config.BackendDynamoDB:
		dc, err := database.NewDynamoDB(ctx, cfg.DraftStore.DynamoDB)
		if err != nil {
			zapLog.Fatal("dynamodb client failed", zap.Error(err))
		}
		backends.Dynamo = dc
	}

	store, history, err := draftstore.New(cfg.DraftStore, backends, log)
	if err != nil {
		zapLog.Fatal("draft store init failed", zap.Error(err))
	}
	zapLog.Info("Draft store ready", zap.String("backend", cfg.DraftStore.Backend))

	// --- Notification clients ---
	var sesClient submission.SESService
	var snsClient submission.SNSService
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		sesClient = commonaws.NewSESClient(awsCfg)
		snsClient = commonaws.NewSNSClient(awsCfg)
	}

	// --- Submission transport ---
	var transport submission.Transport
	var zeebe *camunda.Client
	switch cfg.Submission.Transport {
	case config.TransportZeebe:
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		transport = submission.NewZeebeTransport(zeebe, cfg.Submission.ProcessID)
		zapLog.Info("Zeebe client connected successfully")
	default:
		httpClient := commonhttp.NewClient(config.GetDuration(cfg.Submission.Timeout))
		transport = submission.NewHTTPTransport(cfg.Submission.BaseURL, httpClient)
	}

	// Sinks run on the direct path only; the BPMN process owns them under zeebe.
	opts := []submission.Option{submission.WithObservability(obs)}
	if cfg.Submission.Transport == config.TransportHTTP {
		if cfg.Submission.RecordStore {
			opts = append(opts, submission.WithRecordStore(submission.NewRecordStore(pg.DB, log)))
		}
		if cfg.Submission.Index.Enabled {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				zapLog.Fatal("elasticsearch client failed", zap.Error(err))
			}
			checks["elasticsearch"] = es.Ping
			opts = append(opts, submission.WithIndexer(submission.NewESIndexer(es.Client, cfg.Submission.Index.Name)))
		}
		if sesClient != nil {
			opts = append(opts, submission.WithNotifier(submission.NewAWSNotifier(submission.NotifierConfig{
				FromEmail:    cfg.Integrations.AWS.SES.FromEmail,
				EmailEnabled: cfg.Integrations.AWS.SES.Enabled,
				SMSEnabled:   cfg.Integrations.AWS.SNS.Enabled,
			}, sesClient, snsClient, log)))
		}
	}
	client := submission.NewClient(transport, log, opts...)

	// --- Wizard engine ---
	defs := forms.All()
	engine, err := wizard.NewEngine(store, history, client, log, defs...)
	if err != nil {
		zapLog.Fatal("wizard engine init failed", zap.Error(err))
	}

	// --- Back office ---
	var adminDB *sqlx.DB
	if pg != nil {
		adminDB = pg.X()
	}
	adminStore, err := admin.NewStore(cfg.Admin, adminDB)
	if err != nil {
		zapLog.Fatal("admin store init failed", zap.Error(err))
	}
	// The memory store seeds itself.
	if cfg.Admin.Seed && cfg.Admin.Store == config.AdminStorePostgres {
		if err := admin.SeedStore(ctx, adminStore); err != nil {
			zapLog.Fatal("admin seed failed", zap.Error(err))
		}
	}
	adminService := admin.NewService(adminStore, cfg.Admin.AccessCode, log)
	if cfg.Admin.AccessCode == "" {
		zapLog.Warn("admin.access_code is empty, back-office routes are locked")
	}

	// --- Workers ---
	var workers []worker.JobWorker
	if zeebe != nil {
		zc := zeebe.GetClient()

		if config.IsWorkerEnabled(cfg, vs.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, vs.TaskType)
			handler := vs.NewHandler(&vs.Config{Timeout: config.GetDuration(wcfg.Timeout)}, defs, obs, log)
			workers = append(workers, camunda.StartWorker(zc, vs.TaskType, wcfg, handler, log))
		}

		if config.IsWorkerEnabled(cfg, rs.TaskType) && pg != nil {
			wcfg := config.GetWorkerConfig(cfg, rs.TaskType)
			handler := rs.NewHandler(&rs.Config{Timeout: config.GetDuration(wcfg.Timeout)}, pg.DB, obs, log)
			workers = append(workers, camunda.StartWorker(zc, rs.TaskType, wcfg, handler, log))
		}

		if config.IsWorkerEnabled(cfg, sc.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, sc.TaskType)
			handler := sc.NewHandler(&sc.Config{
				EmailEnabled: cfg.Integrations.AWS.SES.Enabled,
				SMSEnabled:   cfg.Integrations.AWS.SNS.Enabled,
				FromEmail:    cfg.Integrations.AWS.SES.FromEmail,
				Timeout:      config.GetDuration(wcfg.Timeout),
			}, sesClient, snsClient, obs, log)
			workers = append(workers, camunda.StartWorker(zc, sc.TaskType, wcfg, handler, log))
		}

		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP server ---
	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.Deps{
		Engine: engine,
		Admin:  adminService,
		Logger: log,
		Checks: checks,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Onboarding service stopped")
}
