package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/apiclient"
	"github.com/MuhammadMagdy7/money-transfer/internal/config"
	"github.com/MuhammadMagdy7/money-transfer/internal/handler"
	"github.com/MuhammadMagdy7/money-transfer/internal/middleware"
	"github.com/MuhammadMagdy7/money-transfer/internal/notice"
	"github.com/MuhammadMagdy7/money-transfer/internal/session"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

const serviceName = "money-transfer-portal"

func main() {
	cfg := parseFlags()

	// Initialize structured logging
	telemetry.InitLogger(serviceName, telemetry.ParseLevel(cfg.LogLevel))

	// Initialize OpenTelemetry tracing
	cleanup, err := telemetry.InitTracer(serviceName, cfg.Tracing.Endpoint, cfg.Environment)
	if err != nil {
		log.Printf("Warning: Failed to initialize tracer: %v", err)
	} else {
		defer cleanup()
	}

	gin.SetMode(cfg.GinMode)

	log.Println("Starting money transfer portal...")

	// 1. Backend API client
	client, err := apiclient.New(cfg.Backend.BaseURL, apiclient.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		log.Fatalf("Invalid backend URL: %v", err)
	}
	log.Printf("Using accounts backend at %s", cfg.Backend.BaseURL)

	// 2. Activity trail
	recorders, closeActivity := setupActivity(cfg)
	defer closeActivity()

	// 3. Notice store
	notices, closeNotices := setupNotices(cfg)
	defer closeNotices()

	// 4. Sessions and their janitor
	sessions := session.NewManager(client, recorders, cfg.Search.Debounce, cfg.Session.TTL)
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go sessions.Run(janitorCtx, cfg.Session.SweepInterval)
	if mem, ok := notices.(*notice.MemoryStore); ok {
		go mem.Run(janitorCtx, cfg.Session.SweepInterval)
	}

	// 5. HTTP handler and router
	h := handler.NewHandler(sessions, notices, cfg.MaxUploadBytes)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Tracing())
	router.Use(middleware.Metrics())
	handler.SetupRoutes(router, h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + cfg.Search.Debounce + 5*time.Second,
	}

	// 6. Metrics server (separate port for Prometheus scraping)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	go func() {
		log.Printf("HTTP server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Metrics server listening on port %d", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.Printf("Metrics server forced to shutdown: %v", err)
	}

	log.Println("Service stopped")
}

// setupActivity opens the activity log and, when configured, the NATS
// publisher. Neither is required for the portal to serve pages.
func setupActivity(cfg *config.Config) (activity.Recorder, func()) {
	var recorders activity.Recorders
	var closers []func()

	if cfg.Activity.LogPath != "" {
		store, err := activity.NewFileStore(cfg.Activity.LogPath)
		if err != nil {
			log.Printf("Warning: Activity log disabled: %v", err)
		} else {
			if past, err := store.LoadAll(); err != nil {
				log.Printf("Warning: Could not read activity log: %v", err)
			} else {
				log.Printf("Recording activity to %s (%d events so far)", cfg.Activity.LogPath, len(past))
			}
			recorders = append(recorders, store)
			closers = append(closers, func() { _ = store.Close() })
		}
	}

	if cfg.Activity.NATSUrl != "" {
		log.Printf("Connecting to NATS at %s...", cfg.Activity.NATSUrl)
		pub, err := activity.NewNATSPublisher(cfg.Activity.NATSUrl)
		if err != nil {
			log.Printf("Warning: Activity publishing disabled: %v", err)
		} else {
			log.Println("Connected to NATS")
			recorders = append(recorders, pub)
			closers = append(closers, pub.Close)
		}
	}

	return recorders, func() {
		for _, c := range closers {
			c()
		}
	}
}

// setupNotices uses Redis when enabled and reachable, memory otherwise.
func setupNotices(cfg *config.Config) (notice.Store, func()) {
	if cfg.UseRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable, keeping notices in memory: %v", err)
			_ = client.Close()
		} else {
			log.Printf("Storing notices in Redis at %s", cfg.Redis.Addr)
			return notice.NewRedisStore(client, cfg.Session.TTL), func() { _ = client.Close() }
		}
	}

	store := notice.NewMemoryStore(cfg.Session.TTL)
	return store, func() {}
}

func parseFlags() *config.Config {
	cfg := config.Load()

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "Metrics server port")
	flag.StringVar(&cfg.Backend.BaseURL, "backend-url", cfg.Backend.BaseURL, "Accounts backend base URL")
	flag.DurationVar(&cfg.Backend.Timeout, "backend-timeout", cfg.Backend.Timeout, "Timeout for each backend request")
	flag.DurationVar(&cfg.Search.Debounce, "search-debounce", cfg.Search.Debounce, "Quiet period before a recipient search is sent")
	flag.DurationVar(&cfg.Session.TTL, "session-ttl", cfg.Session.TTL, "Idle time after which a session is dropped")
	flag.StringVar(&cfg.Activity.LogPath, "activity-log", cfg.Activity.LogPath, "Activity log file path (empty disables)")
	flag.StringVar(&cfg.Activity.NATSUrl, "nats-url", cfg.Activity.NATSUrl, "NATS server URL for activity events (empty disables)")
	flag.BoolVar(&cfg.UseRedis, "use-redis", cfg.UseRedis, "Store notices in Redis")
	flag.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")
	flag.StringVar(&cfg.GinMode, "gin-mode", cfg.GinMode, "Gin mode (debug/release)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")

	flag.Parse()

	return cfg
}
