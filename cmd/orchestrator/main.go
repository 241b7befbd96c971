package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/activities"
	"github.com/seekerlab/seeker/internal/auth"
	"github.com/seekerlab/seeker/internal/circuitbreaker"
	"github.com/seekerlab/seeker/internal/config"
	"github.com/seekerlab/seeker/internal/db"
	"github.com/seekerlab/seeker/internal/httpapi"
	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/providers/reasoning"
	"github.com/seekerlab/seeker/internal/providers/search"
	"github.com/seekerlab/seeker/internal/ratecontrol"
	"github.com/seekerlab/seeker/internal/streaming"
	"github.com/seekerlab/seeker/internal/workflows"
)

func main() {
	configPath := flag.String("config", os.Getenv("SEEKER_CONFIG"), "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Reasoning provider (Gemini).
	reasoner, err := reasoning.NewGemini(ctx, cfg.Reasoning.Model)
	if err != nil {
		logger.Fatal("Failed to initialize reasoning provider", zap.Error(err))
	}

	// Search provider, selected by config.
	var searcher search.Provider
	switch strings.ToLower(cfg.Search.Provider) {
	case "brave":
		searcher = search.NewBrave(os.Getenv("BRAVE_API_KEY"))
	default:
		searcher = search.NewTavily(os.Getenv("TAVILY_API_KEY"), cfg.Search.Depth)
	}

	gate := ratecontrol.NewGate()
	breaker := circuitbreaker.New("search:"+searcher.Name(), circuitbreaker.DefaultConfig(), logger)
	streams := streaming.NewManager(0)

	opts := activities.Options{}

	// Redis mirror for multi-replica event fan-in, optional.
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, event mirror disabled", zap.Error(err))
		} else {
			opts.Mirror = streaming.NewRedisMirror(rdb, 512, time.Hour, logger)
			defer rdb.Close()
		}
	}

	// Postgres session archive, optional.
	var sessions *db.SessionStore
	var users *db.UserStore
	if cfg.Database.Enabled {
		dbClient, err := db.NewClient(&db.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Database,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize database client", zap.Error(err))
		}
		defer dbClient.Close()
		sessions = db.NewSessionStore(dbClient, logger)
		users = db.NewUserStore(dbClient, logger)
		opts.Sessions = sessions
	}

	acts := activities.NewActivities(reasoner, searcher, gate, breaker, streams, opts, logger)

	// Temporal worker hosting the research workflow and its activities.
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ResearchWorkflow)
	registerActivities(w, acts)

	if err := w.Start(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer w.Stop()

	// Auth and HTTP surface.
	signingKey := cfg.Auth.SigningKey
	if signingKey == "" {
		signingKey = os.Getenv("SEEKER_AUTH_SIGNING_KEY")
	}
	if signingKey == "" {
		logger.Fatal("auth signing key not configured")
	}
	tokens := auth.NewJWTManager(signingKey, cfg.Auth.TokenExpiry)
	var authSvc *auth.Service
	if users != nil {
		authSvc = auth.NewService(users, tokens, logger)
	}

	starter := &temporalStarter{
		client:    temporalClient,
		taskQueue: cfg.Temporal.TaskQueue,
		research:  cfg.Research,
	}

	api := httpapi.NewServer(starter, authSvc, tokens, sessions, streams, logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streaming endpoints hold connections open
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// registerActivities binds activity methods under their workflow-visible
// names.
func registerActivities(w worker.Worker, acts *activities.Activities) {
	for name, fn := range map[string]interface{}{
		activities.ActivityPlanSubQueries:   acts.PlanSubQueries,
		activities.ActivityExecuteSearch:    acts.ExecuteSearch,
		activities.ActivityEvaluateEvidence: acts.EvaluateEvidence,
		activities.ActivitySynthesizeReport: acts.SynthesizeReport,
		activities.ActivityEmitProgress:     acts.EmitProgress,
		activities.ActivityPersistSession:   acts.PersistSession,
	} {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}

// temporalStarter launches research workflows on the shared task queue.
type temporalStarter struct {
	client    client.Client
	taskQueue string
	research  config.ResearchConfig
}

func (s *temporalStarter) StartResearch(ctx context.Context, q models.Query) (string, error) {
	metrics.RunsStarted.Inc()
	workflowID := "research-" + q.ID
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.taskQueue,
	}, workflows.ResearchWorkflow, workflows.ResearchInput{
		Query:         q,
		MaxIterations: s.research.MaxIterations,
		MaxSubQueries: s.research.MaxSubQueries,
		SearchTimeout: s.research.SearchTimeout,
		RunDeadline:   s.research.RunDeadline,
	})
	if err != nil {
		return "", err
	}
	return run.GetID(), nil
}
