// cmd/equimarket-server/main.go
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

	"equimarket/internal/api"
	"equimarket/internal/cms"
	"equimarket/internal/common/auth"
	"equimarket/internal/common/aws"
	"equimarket/internal/common/config"
	"equimarket/internal/common/database"
	"equimarket/internal/common/logger"
	"equimarket/internal/common/observability"
	"equimarket/internal/hooks"
	"equimarket/internal/i18n"
	"equimarket/internal/submission"
	"equimarket/internal/wizard"
)

const janitorInterval = time.Minute

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

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting equimarket server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		TracingEnabled: cfg.Observability.TracingEnabled,
	}, log)

	health := map[string]api.HealthCheck{}

	// --- Postgres is needed by the postgres CMS driver and the audit hook ---
	var pg *database.PostgresClient
	if cfg.CMS.Driver == "postgres" || cfg.Hooks.Audit.Enabled {
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
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema setup failed", zap.Error(err))
		}
		health["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Document store ---
	var store cms.Client
	switch cfg.CMS.Driver {
	case "http":
		store = cms.NewHTTPClient(cfg.CMS, log)
	case "postgres":
		store = cms.NewPostgresStore(pg.DB, "/assets", log)
	default:
		store = cms.NewMemoryStore("/assets")
	}
	zapLog.Info("Document store ready", zap.String("driver", cfg.CMS.Driver))

	// --- Step index store ---
	var steps wizard.StepStore = wizard.NewMemoryStepStore()
	if cfg.Wizard.StepStore == "redis" {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			rdb = database.NewRedis(cfg.Database.Redis)
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		steps = wizard.NewRedisStepStore(rdb.Client, cfg.Wizard.KeyPrefix, millis(cfg.Wizard.StepTTL))
		health["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Session verification ---
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, millis(cfg.Auth.TokenExpiry), log)
	var verifier auth.Verifier = auth.NewLocalVerifier(tokens)
	if cfg.Auth.VerifyURL != "" {
		verifier = auth.NewVerifyClient(cfg.Auth.VerifyURL, cfg.Auth.CookieName, millis(cfg.Auth.Timeout), log)
	}

	catalog := i18n.MustLoad()

	// --- Post-submit hooks ---
	var postSubmit []hooks.Hook
	if cfg.Notifications.SES.Enabled || cfg.Notifications.SNS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.SNS.Enabled {
			postSubmit = append(postSubmit, hooks.NewEventPublisher(aws.NewSNSClient(awsCfg, cfg.Notifications.SNS.TopicARN), log))
		}
		if cfg.Notifications.SES.Enabled {
			postSubmit = append(postSubmit, hooks.NewMailer(aws.NewSESClient(awsCfg, cfg.Notifications.SES.FromEmail), catalog, log))
		}
	}
	if cfg.Hooks.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		postSubmit = append(postSubmit, hooks.NewSearchIndexer(esClient.Client, cfg.Hooks.Search.Index, log))
		health["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}
	if cfg.Hooks.Audit.Enabled {
		postSubmit = append(postSubmit, hooks.NewAuditLog(pg.DB, log))
	}
	runner := hooks.NewRunner(log, postSubmit...)
	zapLog.Info("Post-submit hooks registered", zap.Strings("hooks", runner.Names()))

	docs, err := submission.NewDocumentValidator()
	if err != nil {
		zapLog.Fatal("document schemas failed to load", zap.Error(err))
	}

	orchestrator := submission.NewOrchestrator(submission.Dependencies{
		Verifier:      verifier,
		CMS:           store,
		Documents:     docs,
		Hooks:         runner,
		Observability: obs,
	}, log)

	server := api.NewServer(api.Dependencies{
		Orchestrator: orchestrator,
		CMS:          store,
		StepStore:    steps,
		Verifier:     verifier,
		Tokens:       tokens,
		Catalog:      catalog,
		Health:       health,
	}, api.Options{
		CookieName:     cfg.Auth.CookieName,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		SessionTTL:     millis(cfg.Wizard.StepTTL),
	}, log)

	go server.Sessions().RunJanitor(ctx, janitorInterval)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  millis(cfg.Server.ReadTimeout),
		WriteTimeout: millis(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), millis(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	obs.Shutdown(shutdownCtx)
	zapLog.Info("Shutdown complete")
}
