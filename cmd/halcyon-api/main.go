// Package main is the entry point for the halcyon-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/halcyonhealth/halcyon-api/internal/cache"
	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/config"
	"github.com/halcyonhealth/halcyon-api/internal/database"
	"github.com/halcyonhealth/halcyon-api/internal/http/handlers"
	"github.com/halcyonhealth/halcyon-api/internal/http/mw"
	"github.com/halcyonhealth/halcyon-api/internal/logging"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
	"github.com/halcyonhealth/halcyon-api/internal/service"
	"github.com/halcyonhealth/halcyon-api/internal/version"
)

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting halcyon-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	revision, err := database.CurrentRevision(db)
	if err != nil {
		logger.Warn("failed to read schema revision", "error", err)
	} else {
		logger.Info("database schema ready", "revision", revision)
	}

	repos := repository.NewRepositories(db)

	// Score cache is optional; without Redis every request computes.
	var scoreCache *cache.Cache
	if cfg.CacheEnabled() {
		scoreCache, err = cache.New(context.Background(), cache.Config{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			Prefix:     "halcyon:",
			DefaultTTL: cfg.ScoreCacheTTL,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = scoreCache.Close() }()
		logger.Info("score cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ScoreCacheTTL.String())
	}

	var resolver canonical.Resolver
	if cfg.MappingsSource == "db" {
		resolver = canonical.NewDBResolver(db)
		logger.Info("canonical registry backed by metric_mappings table")
	} else {
		resolver, err = canonical.NewStaticResolver()
		if err != nil {
			logger.Error("failed to load canonical mappings", "error", err)
			os.Exit(1)
		}
	}

	services, err := service.NewServices(cfg, repos, scoreCache, resolver, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	metrics := mw.NewMetricsCollector()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware())

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit - prevent large payload attacks.
	router.Use(middleware.RequestSize(2 * 1024 * 1024))

	// Global rate limit by IP.
	router.Use(httprate.LimitByIP(100, time.Minute))

	humaConfig := huma.DefaultConfig("Halcyon API", v.Version)
	humaConfig.Info.Description = "Consumer health tracking backend: device metrics, lab reports, daily health scores."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Session JWT or API key. Include as `Bearer <token>` or `Bearer hh_your_key`.",
		},
	}
	api := humachi.New(router, humaConfig)

	// Hidden config for K8s probes (no docs needed).
	hiddenConfig := huma.DefaultConfig("Halcyon API", v.Version)
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Protected routes share the main docs; no separate spec.
	protectedConfig := huma.DefaultConfig("Halcyon API", v.Version)
	protectedConfig.Info.Description = humaConfig.Info.Description
	protectedConfig.Servers = humaConfig.Servers
	protectedConfig.DocsPath = ""
	protectedConfig.OpenAPIPath = ""
	protectedConfig.SchemasPath = ""

	// Public routes
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	huma.Get(hiddenAPI, "/readyz", handlers.NewReadyzHandler(db).Readyz)

	authHandler := handlers.NewAuthHandler(services.Auth)
	huma.Post(api, "/api/v1/auth/register", authHandler.Register)
	huma.Post(api, "/api/v1/auth/login", authHandler.Login)

	// Prometheus metrics
	router.Handle("/metrics", metrics.Handler())

	// Device vendor webhook (svix signature verified by the handler,
	// not user auth).
	devicesHandler := handlers.NewDevicesHandler(services.Device, repos.Device, metrics, logger)
	router.Post("/api/v1/webhooks/device/{vendor}", devicesHandler.HandleVendorWebhook)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))

		protectedAPI := humachi.New(r, protectedConfig)

		// API keys
		apiKeyHandler := handlers.NewAPIKeyHandler(services.APIKey)
		huma.Get(protectedAPI, "/api/v1/keys", apiKeyHandler.ListKeys)
		huma.Post(protectedAPI, "/api/v1/keys", apiKeyHandler.CreateKey)
		huma.Delete(protectedAPI, "/api/v1/keys/{id}", apiKeyHandler.RevokeKey)

		// Provider directory
		doctorsHandler := handlers.NewDoctorsHandler(repos.Doctor)
		huma.Get(protectedAPI, "/api/v1/doctors", doctorsHandler.ListDoctors)
		huma.Get(protectedAPI, "/api/v1/doctors/{id}", doctorsHandler.GetDoctor)
		huma.Post(protectedAPI, "/api/v1/doctors", doctorsHandler.CreateDoctor)
		huma.Put(protectedAPI, "/api/v1/doctors/{id}", doctorsHandler.UpdateDoctor)
		huma.Delete(protectedAPI, "/api/v1/doctors/{id}", doctorsHandler.DeleteDoctor)

		// Reminders
		remindersHandler := handlers.NewRemindersHandler(services.Reminder)
		huma.Get(protectedAPI, "/api/v1/reminders", remindersHandler.ListReminders)
		huma.Get(protectedAPI, "/api/v1/reminders/due", remindersHandler.DueReminders)
		huma.Get(protectedAPI, "/api/v1/reminders/{id}", remindersHandler.GetReminder)
		huma.Post(protectedAPI, "/api/v1/reminders", remindersHandler.CreateReminder)
		huma.Put(protectedAPI, "/api/v1/reminders/{id}", remindersHandler.UpdateReminder)
		huma.Post(protectedAPI, "/api/v1/reminders/{id}/snooze", remindersHandler.SnoozeReminder)
		huma.Delete(protectedAPI, "/api/v1/reminders/{id}", remindersHandler.DeleteReminder)

		// Chat
		chatHandler := handlers.NewChatHandler(services.Chat)
		huma.Post(protectedAPI, "/api/v1/chat/sessions", chatHandler.StartSession)
		huma.Get(protectedAPI, "/api/v1/chat/sessions", chatHandler.ListSessions)
		huma.Get(protectedAPI, "/api/v1/chat/sessions/{id}", chatHandler.GetSession)
		huma.Delete(protectedAPI, "/api/v1/chat/sessions/{id}", chatHandler.DeleteSession)
		huma.Post(protectedAPI, "/api/v1/chat/sessions/{id}/messages", chatHandler.SendMessage)

		// Lab reports
		labHandler := handlers.NewLabReportsHandler(services.LabReport)
		huma.Post(protectedAPI, "/api/v1/lab-reports", labHandler.CreateReport)
		huma.Get(protectedAPI, "/api/v1/lab-reports", labHandler.ListReports)
		huma.Get(protectedAPI, "/api/v1/lab-reports/{id}", labHandler.GetReport)
		huma.Get(protectedAPI, "/api/v1/lab-reports/{id}/document", labHandler.GetReportDocument)
		huma.Delete(protectedAPI, "/api/v1/lab-reports/{id}", labHandler.DeleteReport)

		// Nutrition
		nutritionHandler := handlers.NewNutritionHandler(repos.Nutrition)
		huma.Post(protectedAPI, "/api/v1/nutrition", nutritionHandler.CreateLog)
		huma.Get(protectedAPI, "/api/v1/nutrition", nutritionHandler.ListLogs)
		huma.Delete(protectedAPI, "/api/v1/nutrition/{id}", nutritionHandler.DeleteLog)

		// Pharmacy
		pharmacyHandler := handlers.NewPharmacyHandler(repos.Pharmacy)
		huma.Post(protectedAPI, "/api/v1/pharmacy", pharmacyHandler.CreateOrder)
		huma.Get(protectedAPI, "/api/v1/pharmacy", pharmacyHandler.ListOrders)
		huma.Get(protectedAPI, "/api/v1/pharmacy/{id}", pharmacyHandler.GetOrder)
		huma.Put(protectedAPI, "/api/v1/pharmacy/{id}/status", pharmacyHandler.UpdateOrderStatus)

		// Devices
		huma.Post(protectedAPI, "/api/v1/devices", devicesHandler.ConnectDevice)
		huma.Get(protectedAPI, "/api/v1/devices", devicesHandler.ListDevices)
		huma.Delete(protectedAPI, "/api/v1/devices/{id}", devicesHandler.DisconnectDevice)

		// Scores
		scoresHandler := handlers.NewScoresHandler(services.Score, metrics)
		huma.Get(protectedAPI, "/api/v1/scores/daily", scoresHandler.DailyScore)
		huma.Post(protectedAPI, "/api/v1/scores/recompute", scoresHandler.Recompute)
		huma.Get(protectedAPI, "/api/v1/scores/history", scoresHandler.History)

		// Schema ledger status (operators)
		huma.Get(protectedAPI, "/api/v1/admin/schema", handlers.NewSchemaHandler(db).Status)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
