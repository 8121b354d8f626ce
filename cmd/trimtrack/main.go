package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "trimtrack/internal/adapter/http"
	"trimtrack/internal/adapter/memory"
	"trimtrack/internal/adapter/postgres"
	"trimtrack/internal/advisor"
	"trimtrack/internal/app"
	"trimtrack/internal/config"
	"trimtrack/internal/domain"
	"trimtrack/internal/logging"
	"trimtrack/internal/telemetry/metrics"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type repositories struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	weights  domain.WeightRepository
	profiles domain.ProfileRepository
	calories domain.CalorieRepository
	close    func() error
}

func openRepositories(databaseURL string) (*repositories, error) {
	if databaseURL == "" {
		log.Warnln("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		return &repositories{
			users:    db,
			sessions: db.NewSessionRepo(),
			weights:  db,
			profiles: db,
			calories: db,
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return &repositories{
		users:    db,
		sessions: db.NewSessionRepo(),
		weights:  db,
		profiles: db,
		calories: db,
		close:    db.Close,
	}, nil
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: "trimtrack",
	})
	log.Warnf("---->> running in [%s] environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	registry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("trimtrack", "server", registry)

	adv := advisor.New(advisor.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.AdvisorTimeout.Duration,
	}, advisor.WithObserver(metricsManager.ObserveAdvisor))
	if adv.Mocked() {
		log.Warnln("OPENAI_API_KEY not set, advisor serves mock responses")
	}

	authSvc := app.NewAuthService(repos.users, repos.sessions, repos.profiles)
	weightSvc := app.NewWeightService(repos.weights, repos.profiles).
		OnRecorded(metricsManager.CounterWeightsRecorded.Inc)
	calorieSvc := app.NewCalorieService(repos.calories, repos.profiles, adv, nil)

	if cfg.InitialUser != "" && cfg.InitialPassword != "" {
		if err := authSvc.CreateInitialUser(ctx, cfg.InitialUser, cfg.InitialPassword); err != nil {
			log.Fatalf("create initial user: %s", err)
		}
	}

	server := adapthttp.New(adapthttp.Services{
		Auth:    authSvc,
		Weight:  weightSvc,
		Profile: app.NewProfileService(repos.profiles, repos.users, repos.weights),
		Calorie: calorieSvc,
		Advice:  app.NewAdviceService(adv, repos.profiles, repos.weights, calorieSvc),
		Charts:  app.NewChartsService(repos.weights),
	}, cfg.WebDir).
		WithForwardAuth(cfg.TrustForwardAuth).
		WithMetrics(metricsManager, registry)

	var rdb *redis.Client
	if cfg.RedisAddr != "" && cfg.AIRatePerMinute > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("redis ping %s: %s, advisor endpoints are not rate limited", cfg.RedisAddr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			server.WithRateLimit(redis_rate.NewLimiter(rdb), cfg.AIRatePerMinute)
			log.Infof("advisor endpoints limited to %d requests per minute", cfg.AIRatePerMinute)
		}
	}

	if cfg.OIDCEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			log.Errorf("oidc disabled: %s", err)
		} else {
			server.WithOIDC(oidcCfg)
			log.Infof("sso enabled with issuer %s", cfg.OIDCIssuer)
		}
	}

	go pruneSessions(ctx, authSvc, cfg.SessionPruneEvery.Duration)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Warnln("signal received, shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = multierr.Append(err, httpServer.Shutdown(shutdownCtx))
	if rdb != nil {
		err = multierr.Append(err, rdb.Close())
	}
	err = multierr.Append(err, repos.close())
	if err != nil {
		log.Errorf("shutdown: %s", err)
	}

	if ok := sentry.Flush(2 * time.Second); !ok {
		log.Debugln("sentry flush timed out")
	}
	log.Infoln("bye")
}

func pruneSessions(ctx context.Context, auth *app.AuthService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PruneSessions(ctx); err != nil {
				log.WithError(err).Warn("prune sessions")
			}
		}
	}
}
