// Package main is the entry point for the Asli Politik API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aslipolitik/internal/cache"
	"aslipolitik/internal/config"
	"aslipolitik/internal/database"
	"aslipolitik/internal/handlers"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/middleware"
	"aslipolitik/internal/newsletter"
	"aslipolitik/internal/notify"
	"aslipolitik/internal/posts"
	"aslipolitik/internal/router"
	"aslipolitik/internal/session"
	"aslipolitik/internal/storage"
	"aslipolitik/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Cancelled on SIGINT/SIGTERM; background loops stop with it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// No-op once any account exists.
	if err := database.Seed(ctx, db, database.SeedAdmin{Email: cfg.AdminEmail, Password: cfg.AdminPassword}); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)

	// Every view reads through the same cache and in-flight deduplication.
	listingCache := cache.NewListingCache(valkeyClient, cfg.ListingCacheTTL)
	shared := listing.NewSharedStore(postStore, listingCache)

	publicViews := listing.NewViews(shared, listing.ViewsConfig{
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
	})
	adminViews := listing.NewViews(shared, listing.ViewsConfig{PageSize: cfg.AdminPageSize})
	go publicViews.Run(ctx, time.Minute)
	go adminViews.Run(ctx, time.Minute)

	postHook := notify.NewWebhook(notify.HookPostCreated, cfg.NotifyWebhookURL, cfg.WebhookTimeout)
	subscribeHook := notify.NewWebhook(notify.HookSubscribe, cfg.SubscribeWebhookURL, cfg.WebhookTimeout)
	if !postHook.Enabled() {
		slog.Warn("post notification webhook not configured")
	}
	if !subscribeHook.Enabled() {
		slog.Warn("subscribe webhook not configured")
	}

	opts := posts.Options{
		Cache:         listingCache,
		Notifier:      postHook,
		MaxImageBytes: cfg.MaxImageBytes,
	}

	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient != nil:
		// Assigned only when non-nil so the interface stays nil otherwise.
		opts.Objects = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	postService := posts.NewService(postStore, opts)
	newsletterService := newsletter.NewService(subscribeHook)

	subscribeLimiter := middleware.NewRateLimiter(cfg.SubscribeRatePerMinute, 2).TrustProxies(cfg.TrustedProxies...)
	go subscribeLimiter.Run(ctx)

	r := router.New(router.Deps{
		Sessions:         sessionStore,
		Guard:            cache.NewMutationGuard(valkeyClient, 0),
		GuardBusy:        cache.ErrBusy,
		SubscribeLimiter: subscribeLimiter,
		CORSOrigins:      cfg.CORSOrigins,
		Secure:           secureCookies,
		Public:           handlers.NewPublic(publicViews, postService, newsletterService, secureCookies),
		Admin:            handlers.NewAdmin(adminViews, postService),
		Auth:             handlers.NewAuth(sessionStore, userStore),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Let in-flight webhook calls finish before the process exits.
	for _, hook := range []*notify.Webhook{postHook, subscribeHook} {
		if err := hook.Wait(shutdownCtx); err != nil {
			slog.Warn("webhook deliveries still pending at exit", "error", err)
		}
	}

	slog.Info("server stopped gracefully")
}
