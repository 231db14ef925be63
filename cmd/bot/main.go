// Package main provides the entry point for the analysis daemon.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/database"
	"github.com/yourusername/goal-edge/internal/engine"
	"github.com/yourusername/goal-edge/internal/feed"
	"github.com/yourusername/goal-edge/internal/health"
	"github.com/yourusername/goal-edge/internal/logger"
	"github.com/yourusername/goal-edge/internal/metrics"
	"github.com/yourusername/goal-edge/internal/ratings"
	"github.com/yourusername/goal-edge/internal/repository"
	"github.com/yourusername/goal-edge/internal/scheduler"
	"github.com/yourusername/goal-edge/internal/service"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults(os.Getenv("GOAL_EDGE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("Goal Edge analysis daemon starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection when persistence is on
	var (
		db   *database.DB
		repo repository.RecommendationRepository
	)
	if cfg.Features.PersistRecommendations {
		db, err = database.NewDB(ctx, &cfg.Database)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		repo = repository.NewPostgresRecommendationRepository(db)
		appLog.Info("Database connection established")
	} else {
		appLog.Info("Recommendation persistence disabled")
	}

	// Team ratings: store plus the periodic fetcher
	ratingStore := ratings.NewStore()
	fetcher := ratings.NewFetcher(ratingStore, &cfg.Ratings, appLog)

	if cfg.Ratings.Enabled {
		warmupCtx, warmupCancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := fetcher.Refresh(warmupCtx); err != nil {
			appLog.WithError(err).Warn("Initial ratings refresh failed, starting with defaults")
		}
		warmupCancel()
		metrics.UpdateRatedTeams(ratingStore.Len())
	}

	// Snapshot feed
	feedClient := feed.NewClient(&cfg.Feed, appLog)
	if cfg.Feed.Enabled {
		go func() {
			if err := feedClient.Run(ctx); err != nil && ctx.Err() == nil {
				appLog.WithError(err).Fatal("Snapshot feed terminated")
			}
		}()
	} else {
		appLog.Warn("Snapshot feed disabled, analysis cycles will see no matches")
	}

	// Analysis pipeline
	eng := engine.New(ratingStore, &cfg.Model, &cfg.Betting, appLog)
	audit := logger.NewAuditLogger(appLog)
	analysisSvc := service.NewAnalysisService(cfg, eng, feedClient, repo, audit, appLog)

	// Scheduler drives the recurring jobs
	sched := scheduler.NewScheduler(appLog)
	if err := sched.ScheduleAnalysis(cfg.AnalysisInterval(), analysisSvc); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule analysis cycle")
	}
	if cfg.Ratings.Enabled && cfg.Features.RatingsRefreshEnabled {
		refreshEvery := time.Duration(cfg.Ratings.RefreshMinutes) * time.Minute
		if err := sched.ScheduleRatingsRefresh(refreshEvery, fetcher); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule ratings refresh")
		}
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	// Health endpoints
	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Port:        strconv.Itoa(cfg.Health.Port),
		Logger:      appLog,
		Feed:        feedClient,
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"analysis_interval": cfg.AnalysisInterval().String(),
		"feed_enabled":      cfg.Feed.Enabled,
		"ratings_enabled":   cfg.Ratings.Enabled,
		"persistence":       cfg.Features.PersistRecommendations,
	}).Info("Goal Edge daemon is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	// Give components time to cleanup
	time.Sleep(time.Second)

	appLog.Info("Goal Edge daemon shut down successfully")
}
