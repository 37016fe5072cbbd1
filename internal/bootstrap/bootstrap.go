// Package bootstrap assembles the worker's components from configuration.
// The HTTP server and the Lambda entry point share it.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/api"
	"github.com/Pseudotools/pseudorandom-worker/internal/auth"
	"github.com/Pseudotools/pseudorandom-worker/internal/billing"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/Pseudotools/pseudorandom-worker/internal/inference"
	"github.com/Pseudotools/pseudorandom-worker/internal/model"
	"github.com/Pseudotools/pseudorandom-worker/internal/observability"
	"github.com/Pseudotools/pseudorandom-worker/internal/service"
	"github.com/Pseudotools/pseudorandom-worker/internal/storage"
)

// Worker holds the wired components.
type Worker struct {
	Config         config.Config
	Repo           model.Repository
	Store          storage.Storage
	Orchestrator   *service.Orchestrator
	Handler        *api.HTTPHandler
	Metrics        *observability.Metrics
	MetricsHandler http.Handler

	redis *redis.Client
}

// Build wires repository, storage, provider client, ledger and orchestrator.
func Build(ctx context.Context, cfg config.Config) (*Worker, error) {
	checkSupabaseKey(cfg)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise repository: %w", err)
	}
	if err := model.SeedDevelopmentUser(ctx, repo, cfg); err != nil {
		logrus.WithError(err).Warn("failed to seed development user")
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise storage: %w", err)
	}
	uploader := storage.NewUploader(store, cfg)

	client, err := inference.NewReplicate(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise inference client: %w", err)
	}

	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise metrics: %w", err)
	}

	w := &Worker{
		Config:         cfg,
		Repo:           repo,
		Store:          store,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
	}

	var locker billing.BalanceLocker = billing.NoopLocker{}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		w.redis, err = billing.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := w.redis.Ping(pingCtx).Err(); err != nil {
			logrus.WithError(err).Warn("redis unreachable, balance lock will fail until it recovers")
		}
		locker = billing.NewRedisLocker(w.redis, cfg.BalanceLockTTL, cfg.BalanceLockWait)
		logrus.Info("balance lock enabled")
	}
	ledger := billing.NewLedger(repo, locker, metrics)

	w.Orchestrator = service.NewOrchestrator(repo, client, uploader, ledger, metrics, service.Options{
		Versions: inference.Versions{
			Semantic:   cfg.SemanticVersionID,
			Refinement: cfg.RefinementVersionID,
		},
		Poll: service.PollConfig{
			Interval: cfg.PollInterval,
			Timeout:  cfg.PollTimeout,
		},
	})

	var intake *auth.Manager
	if secret := strings.TrimSpace(cfg.IntakeTokenSecret); secret != "" {
		intake, err = auth.NewManager(secret, cfg.IntakeTokenIssuer, time.Hour)
		if err != nil {
			return nil, fmt.Errorf("initialise intake auth: %w", err)
		}
	}
	w.Handler = api.NewHTTPHandler(w.Orchestrator, repo, intake)

	logrus.WithFields(logrus.Fields{
		"environment":  cfg.Environment(),
		"db_type":      cfg.DBType,
		"storage_type": cfg.StorageType,
		"intake_auth":  intake != nil,
	}).Info("worker initialised")
	return w, nil
}

// Close releases connections opened by Build.
func (w *Worker) Close() {
	if w == nil || w.redis == nil {
		return
	}
	if err := w.redis.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close redis client")
	}
}

// checkSupabaseKey warns when a Supabase-backed component is configured with
// a key that row level security will restrict.
func checkSupabaseKey(cfg config.Config) {
	if cfg.DBType != model.DBTypeSupabase && !strings.EqualFold(cfg.StorageType, storage.TypeSupabase) {
		return
	}
	_, key := cfg.SupabaseCredentials()
	role, err := auth.InspectServiceKey(key)
	if err != nil {
		logrus.WithError(err).Warn("supabase key could not be decoded")
		return
	}
	if role != auth.ServiceRole {
		logrus.WithField("role", role).Warn("supabase key is not a service_role key, writes for other users will be rejected")
	}
}
