package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arjunkp/crowdshield/internal/alert"
	"github.com/arjunkp/crowdshield/internal/api"
	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/logging"
	"github.com/arjunkp/crowdshield/internal/observability"
	"github.com/arjunkp/crowdshield/internal/repository"
	"github.com/arjunkp/crowdshield/internal/risk"
	"github.com/arjunkp/crowdshield/internal/routing"
	"github.com/arjunkp/crowdshield/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Seed(ctx); err != nil {
		logging.Fatalf("Failed to seed shelter data: %v", err)
	}

	metrics := observability.NewMetrics()
	broadcaster := alert.NewBroadcaster()

	// Optional Kafka bridge: severity transitions fan out to the external
	// alerting pipeline when brokers are configured.
	var publisher *alert.KafkaPublisher
	if cfg.Alert.KafkaEnabled() {
		publisher = alert.NewKafkaPublisher(cfg.Alert, slog.Default())
		_, changes := broadcaster.Subscribe()
		go publisher.Run(ctx, changes)
		slog.Info("kafka alert publisher enabled", "topic", cfg.Alert.KafkaTopic)
	}

	manager := session.NewManager(cfg, db, broadcaster, metrics, nil)
	manager.Start(ctx)

	engine := routing.NewEngine(cfg.Routing, risk.NewDisasterScorer(cfg.Risk))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := api.NewHandler(manager, engine, db, metrics)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	manager.Stop()
	broadcaster.Close() // Closes subscriber channels; the kafka Run loop drains and exits
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("kafka publisher close error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
