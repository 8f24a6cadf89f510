package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	alertapp "agroalert/internal/alerting/application"
	alertrepo "agroalert/internal/alerting/infrastructure/postgres"
	alerthttp "agroalert/internal/alerting/interfaces/http"
	alertnotify "agroalert/internal/alerting/notify"
	"agroalert/internal/audit"
	"agroalert/internal/auth"
	forecastapp "agroalert/internal/forecast/application"
	forecastrepo "agroalert/internal/forecast/infrastructure/postgres"
	masterdatarepo "agroalert/internal/masterdata/infrastructure/postgres"
	"agroalert/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	alertCfg, err := alertapp.LoadConfig()
	if err != nil {
		logger.Fatalf("alerting config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)
	ownerChecker := auth.NewOwnerChecker(db)

	userRepo := masterdatarepo.NewUserRepository(db)
	fieldRepo := masterdatarepo.NewFieldRepository(db)
	weatherRepo := forecastrepo.NewWeatherRepository(db)
	configRepo := alertrepo.NewAlertConfigRepository(db)
	notificationRepo := alertrepo.NewNotificationRepository(db)
	candidateRepo := alertrepo.NewCandidateRepository(db)
	runLock := alertrepo.NewAdvisoryLock(db, alertCfg.LockKey, logger)

	evaluator, err := alertapp.NewEvaluator(
		candidateRepo,
		notificationRepo,
		runLock,
		alertCfg.DeltaThreshold,
		alertCfg.Cooldown(),
		alertapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("evaluator error: %v", err)
	}

	seeder, err := forecastapp.NewSeeder(userRepo, fieldRepo, weatherRepo)
	if err != nil {
		logger.Fatalf("seeder error: %v", err)
	}
	if cfg.SeedOnStart {
		seeded, err := seeder.SeedIfEmpty(context.Background(), midnightUTC(time.Now().UTC()))
		if err != nil {
			logger.Fatalf("seed error: %v", err)
		}
		if seeded {
			logger.Printf("seeded demo users, fields and forecasts")
		}
	}

	alertsHandler, err := alerthttp.NewAlertsHandler(configRepo, ownerChecker)
	if err != nil {
		logger.Fatalf("alerts handler error: %v", err)
	}
	notificationsHandler, err := alerthttp.NewNotificationsHandler(notificationRepo)
	if err != nil {
		logger.Fatalf("notifications handler error: %v", err)
	}
	jobsHandler, err := alerthttp.NewJobsHandler(evaluator, seeder, notificationRepo, auditRepo, logger)
	if err != nil {
		logger.Fatalf("jobs handler error: %v", err)
	}

	scheduler := alertapp.NewScheduler(evaluator, alertCfg.EvalInterval(), logger)
	go scheduler.Start(context.Background())

	if cfg.WebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			logger.Fatalf("webhook channel error: %v", err)
		}
		dispatcher, err := alertnotify.NewDispatcher(notificationRepo, channel, cfg.DispatchInterval, logger)
		if err != nil {
			logger.Fatalf("dispatcher error: %v", err)
		}
		go dispatcher.Start(context.Background())
		logger.Printf("webhook delivery enabled url=%s every %s", cfg.WebhookURL, cfg.DispatchInterval)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/fields/", alertsHandler)
	mux.Handle("/api/v1/alerts/", alertsHandler)
	mux.Handle("/api/v1/users/", notificationsHandler)
	mux.Handle("/api/v1/notifications/", notificationsHandler)
	mux.Handle("/api/v1/jobs/evaluate-alerts", jobsHandler)
	mux.Handle("/api/v1/jobs/stats", jobsHandler)
	mux.Handle("/api/v1/weather/seed", jobsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s (eval every %s)", cfg.HTTPAddr, alertCfg.EvalInterval())
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	JWTSecret        string
	SeedOnStart      bool
	WebhookURL       string
	DispatchInterval time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SeedOnStart:      getenvDefault("SEED_ON_START", "true") == "true",
		WebhookURL:       getenvDefault("ALERT_WEBHOOK_URL", ""),
		DispatchInterval: getenvDuration("ALERT_DISPATCH_INTERVAL", time.Minute),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.IncHTTPRequest(r.Method, fmt.Sprintf("%dxx", resp.status/100))
		metrics.ObserveHTTPLatency(r.Method, elapsed.Seconds())
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
