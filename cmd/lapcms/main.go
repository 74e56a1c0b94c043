// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Command lapcms runs the headless CMS server: the admin REST API, the
// public SDK surface, and the background maintenance jobs.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/cache"
	"github.com/lapcms/lapcms/internal/config"
	"github.com/lapcms/lapcms/internal/handler"
	"github.com/lapcms/lapcms/internal/logging"
	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/scheduler"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/session"
	"github.com/lapcms/lapcms/internal/storage"
	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		fmt.Printf("lapcms %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildTime)
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Ensure the data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade the logger so WARN and ERROR records also land in the
	// events audit table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	queries := store.New(db)
	ctx := context.Background()

	if cfg.DoSeed {
		if err := queries.Seed(ctx); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	cacheBackend, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	siteCache := cache.NewSiteCache(cacheBackend, queries, time.Duration(cfg.CacheTTL)*time.Second)
	slog.Info("site cache initialized", "redis", cfg.UseRedisCache(), "ttl_seconds", cfg.CacheTTL)

	objectStore, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing object storage: %w", err)
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		// Uploads will fail until the object store is reachable, but the
		// rest of the API stays up.
		slog.Warn("object storage bucket not ready", "error", err, "bucket", cfg.S3Bucket)
	}

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "lapcms")

	eventService := service.NewEventService(queries, logger)
	postService := service.NewPostService(queries)
	userService := service.NewUserService(db, queries)
	taxonomyService := service.NewTaxonomyService(queries)

	sched := scheduler.New(eventService, cfg.EventRetentionDays, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	h := handler.New(handler.Deps{
		Config:   cfg,
		DB:       db,
		Queries:  queries,
		Posts:    postService,
		Users:    userService,
		Taxonomy: taxonomyService,
		Events:   eventService,
		Tokens:   tokenManager,
		Sessions: sessionManager,
		Sites:    siteCache,
		Uploads:  objectStore,
	})
	authmw := middleware.NewAuth(tokenManager, queries, eventService)
	siteResolver := middleware.NewSiteResolver(siteCache)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(sessionManager.LoadAndSave)
	if cfg.RateLimitEnabled() {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		slog.Info("rate limiting enabled", "per_minute", cfg.RateLimitPerMinute)
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.With(authmw.OptionalAuth).Post("/logout", h.Logout)
			r.With(authmw.RequireAuth).Get("/me", h.Me)
			r.With(authmw.RequireAuth).Post("/refresh", h.Refresh)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Get("/my", h.MyPosts)
			r.Get("/{id}", h.GetPost)
			r.Put("/{id}", h.UpdatePost)
			r.Delete("/{id}", h.DeletePost)
			r.Put("/{id}/publish", h.PublishPost)
			r.Put("/{id}/unpublish", h.UnpublishPost)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/", h.CreateTag)
				r.Put("/{id}", h.UpdateTag)
				r.Delete("/{id}", h.DeleteTag)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authmw.RequireAuth)

			// Self-service routes for the authenticated user.
			r.Put("/update/password", h.UpdatePassword)
			r.Put("/update-site", h.UpdateSite)
			r.Put("/regenerate-api-key", h.RegenerateAPIKey)
			r.Get("/activities", h.Activities)

			// Account administration.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Get("/stats", h.DashboardStats)
		})

		r.Route("/upload", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Post("/upload-image", h.UploadImage)
			r.Post("/upload-image-editorjs", h.UploadImageEditorJS)
		})

		r.Route("/sdk", func(r chi.Router) {
			r.Get("/lap-cms.js", h.SDKScript)
			r.Options("/*", middleware.Preflight)
			r.Group(func(r chi.Router) {
				r.Use(siteResolver.RequireAPIKey)
				r.Use(middleware.DomainGate)
				r.Get("/posts", h.SDKPosts)
				r.Get("/posts/{slug}", h.SDKPostBySlug)
				r.Get("/search", h.SDKSearch)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
