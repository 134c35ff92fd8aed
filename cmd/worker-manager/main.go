// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldservice-workers/internal/common/camunda"
	"fieldservice-workers/internal/common/config"
	"fieldservice-workers/internal/common/database"
	"fieldservice-workers/internal/common/geocoding"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/common/observability"
	"fieldservice-workers/internal/store"

	czone "fieldservice-workers/internal/workers/scheduling/classify-service-zone"
	pa "fieldservice-workers/internal/workers/scheduling/plan-availability"
	sa "fieldservice-workers/internal/workers/scheduling/schedule-appointment"
	st "fieldservice-workers/internal/workers/scheduling/score-technicians"
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
				"error":       err,
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

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	bootLog := logger.NewStructured("info", "console", "stderr")

	cfg, err := config.Load()
	if err != nil {
		fatal(bootLog, "config load failed", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{
			"service":     cfg.App.Name,
			"version":     cfg.App.Version,
			"environment": cfg.App.Environment,
		})
	log.Info("Starting worker manager...", nil)

	obs, err := observability.New("worker-manager")
	if err != nil {
		log.Warn("otel meter unavailable, continuing with prometheus collectors only", map[string]interface{}{"error": err})
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected successfully", nil)

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
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

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
		fatal(log, "redis failed after retries", err)
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	// --- Shared components ---
	bookings := store.NewBookingStore(pg.DB, database.RetryPolicy{
		MaxRetries: cfg.Database.Postgres.MaxRetries,
		BaseDelay:  config.GetDuration(cfg.Database.Postgres.RetryDelay),
		MaxDelay:   2 * time.Second,
	}, log)
	quotes := store.NewQuoteStore(rdb.Client, config.GetSeconds(cfg.Scheduling.QuoteTTL))
	locks := store.NewSlotLocker(rdb.Client, config.GetSeconds(cfg.Scheduling.SlotLockTTL))

	var geocoder geocoding.Geocoder
	if cfg.Geocoding.BaseURL != "" {
		geocoder = geocoding.NewClient(cfg.Geocoding, rdb.Client, log)
	} else {
		log.Warn("geocoding.base_url not set, zones resolve from postal codes and city names only", nil)
	}

	zoneCfg, err := czone.LoadConfig(cfg)
	if err != nil {
		fatal(log, "invalid zone tables", err)
	}
	classifier := czone.NewClassifier(zoneCfg, geocoder, log)

	scoreCfg := st.LoadConfig(cfg)
	directory := st.NewDirectory(bookings, scoreCfg.DefaultCapacity, log)
	scorer := st.NewScorer(scoreCfg.MaxAlternatives)

	planCfg := pa.LoadConfig(cfg)
	planner := pa.NewPlanner(planCfg, bookings, nil, log)

	// --- Workers ---
	client := zeebe.GetClient()
	var workers []*camunda.CamundaWorker

	if config.IsWorkerEnabled(cfg, czone.TaskType) {
		handler := czone.NewHandler(zoneCfg, classifier, log)
		workers = append(workers, camunda.NewWorker(client, czone.TaskType,
			config.GetWorkerConfig(cfg, czone.TaskType), handler, log, obs))
	}

	if config.IsWorkerEnabled(cfg, st.TaskType) {
		handler := st.NewHandler(scoreCfg, directory, scorer, log)
		workers = append(workers, camunda.NewWorker(client, st.TaskType,
			config.GetWorkerConfig(cfg, st.TaskType), handler, log, obs))
	}

	if config.IsWorkerEnabled(cfg, pa.TaskType) {
		handler := pa.NewHandler(planCfg, planner, log)
		workers = append(workers, camunda.NewWorker(client, pa.TaskType,
			config.GetWorkerConfig(cfg, pa.TaskType), handler, log, obs))
	}

	if config.IsWorkerEnabled(cfg, sa.TaskType) {
		bookingCfg := sa.LoadConfig(cfg)
		orchestrator := sa.NewOrchestrator(bookingCfg, sa.Dependencies{
			Classifier: classifier,
			Directory:  directory,
			Scorer:     scorer,
			Planner:    planner,
			Quotes:     quotes,
			Locks:      locks,
			Bookings:   bookings,
		}, log)
		handler := sa.NewHandler(bookingCfg, orchestrator, log)
		workers = append(workers, camunda.NewWorker(client, sa.TaskType,
			config.GetWorkerConfig(cfg, sa.TaskType), handler, log, obs))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
			"zeebe":    zeebe.HealthCheck,
		} {
			if err := check(checkCtx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		if status == http.StatusOK {
			writeStatus(w, status, "ready", checks)
			return
		}
		writeStatus(w, status, "not ready", checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing meter provider", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
