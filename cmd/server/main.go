package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/healthbridge/medgrant/internal/auth"
	"github.com/healthbridge/medgrant/internal/blobstore"
	"github.com/healthbridge/medgrant/internal/cache"
	"github.com/healthbridge/medgrant/internal/config"
	"github.com/healthbridge/medgrant/internal/database"
	"github.com/healthbridge/medgrant/internal/handlers"
	"github.com/healthbridge/medgrant/internal/middleware"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/repository"
	"github.com/healthbridge/medgrant/internal/services"
	"github.com/healthbridge/medgrant/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting medgrant server")

	// Connect to database
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	}

	if err := database.Connect(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		cacheImpl, err = cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis cache initialized")
	} else {
		cacheImpl = cache.NewMemoryCache()
		log.Info().Msg("Memory cache initialized")
	}

	// Initialize blob storage
	var blobs blobstore.Store
	if cfg.Blob.Enabled {
		blobs, err = blobstore.NewS3Store(context.Background(), cfg.Blob.Bucket, cfg.Blob.PublicURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize blob storage")
		}
		log.Info().Str("bucket", cfg.Blob.Bucket).Msg("Blob storage initialized")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository()
	grantRepo := repository.NewGrantRepository()
	recordRepo := repository.NewRecordRepository()
	auditRepo := repository.NewAuditRepository()

	// Initialize auth gate
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gate := middleware.NewAuthGate(tokens, accountRepo)

	// Initialize services
	authService := services.NewAuthService(accountRepo, tokens)
	grantService := services.NewGrantService(grantRepo, recordRepo, accountRepo, auditRepo, cacheImpl)
	recordService := services.NewRecordService(recordRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cacheImpl)
	authHandler := handlers.NewAuthHandler(authService)
	grantHandler := handlers.NewGrantHandler(grantService)
	recordHandler := handlers.NewRecordHandler(recordService, blobs)
	adminHandler := handlers.NewAdminHandler(authService)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints (no authentication required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Public auth endpoints
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	// Patient endpoints
	r.Group(func(r chi.Router) {
		r.Use(gate.Authenticate)
		r.Use(gate.RequireRole(models.RolePatient))

		r.Post("/access-grants", grantHandler.Issue)
		r.Get("/access-grants/audit", grantHandler.Audit)
		r.Get("/shareable-visits", recordHandler.ListShareableVisits)

		r.Post("/visits", recordHandler.CreateVisit)
		r.Get("/visits", recordHandler.ListVisits)
		r.Post("/visits/attachments", recordHandler.UploadAttachment)
		r.Post("/conditions", recordHandler.CreateCondition)
		r.Get("/conditions", recordHandler.ListConditions)
		r.Post("/medications", recordHandler.CreateMedication)
		r.Get("/medications", recordHandler.ListMedications)
	})

	// Doctor endpoints
	r.Group(func(r chi.Router) {
		r.Use(gate.Authenticate)
		r.Use(gate.RequireRole(models.RoleDoctor))

		r.Post("/access-grants/redeem", grantHandler.Redeem)
		r.Get("/access-grants/status", grantHandler.Status)
		r.Post("/access-grants/{code}/visits", grantHandler.AddVisit)
	})

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(gate.Authenticate)
		r.Use(gate.RequireRole(models.RoleAdmin))

		r.Get("/doctors/pending", adminHandler.ListPendingDoctors)
		r.Post("/doctors/{id}/approve", adminHandler.ApproveDoctor)
		r.Post("/doctors/{id}/reject", adminHandler.RejectDoctor)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
