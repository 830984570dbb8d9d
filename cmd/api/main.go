package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/background"
	"github.com/BradenHooton/interplink/internal/config"
	"github.com/BradenHooton/interplink/internal/database"
	"github.com/BradenHooton/interplink/internal/handlers"
	middlewareCustom "github.com/BradenHooton/interplink/internal/middleware"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/repositories"
	"github.com/BradenHooton/interplink/internal/routes"
	"github.com/BradenHooton/interplink/internal/services"
	"github.com/BradenHooton/interplink/migrations"
	pkgauth "github.com/BradenHooton/interplink/pkg/auth"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
	pkglogger "github.com/BradenHooton/interplink/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// The pool is the one data-access handle; everything below borrows it
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.RunMigrations(ctx, db, migrations.FS)
		cancel()
		if err != nil {
			return err
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	interpreterRepo := repositories.NewInterpreterRepository(db)
	revocationRepo := repositories.NewSessionRevocationRepository(db)

	// Session credentials and the role gate
	sessions := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	gate := auth.NewGate(sessions, userRepo, revocationRepo, cfg.Server.LoginPath, logger)
	failureDelay := auth.NewFailureDelay(cfg.Auth.SignInFailureDelay, cfg.Auth.SignInFailureJitter)

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	// Credential e-mail; without it reissue fails closed
	var mailer services.CredentialMailer = services.DisabledMailer{}
	if cfg.Email.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesMailer, err := services.NewSESCredentialMailer(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.LoginURLBase, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		mailer = sesMailer
	} else {
		logger.Warn("credential email is disabled; credential reissue will be refused")
	}

	// Services
	auditLogger := pkglogger.NewAuditLogger(logger)
	authService := services.NewInterpreterAuthService(interpreterRepo, revocationRepo, sessions, logger, auditLogger)
	userAuthService := services.NewUserAuthService(userRepo, sessions, logger, auditLogger)
	credentialService := services.NewCredentialService(interpreterRepo, mailer, services.CredentialConfig{
		TempPasswordLength: cfg.Auth.TempPasswordLength,
		LoginTokenTTL:      cfg.Auth.LoginTokenTTL,
	}, logger, auditLogger)

	// Handlers
	cookies := auth.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Server.IsProduction()}
	authHandler := handlers.NewInterpreterAuthHandler(authService, ipConfig, cookies, failureDelay, cfg.Server.LoginPath, logger)
	userAuthHandler := handlers.NewUserAuthHandler(userAuthService, ipConfig, cookies, failureDelay)
	adminHandler := handlers.NewAdminInterpreterHandler(credentialService)
	dashboardHandler := handlers.NewDashboardHandler(logger)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, cfg.Bootstrap, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Production: cfg.Server.IsProduction()}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		InterpreterAuth: authHandler,
		UserAuth:        userAuthHandler,
		Admin:           adminHandler,
		Dashboard:       dashboardHandler,
		Gate:            gate,
		Health:          db,
		SignInLimit:     middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.SignInRateLimitPerMinute, IPConfig: ipConfig},
		AdminLimit:      middlewareCustom.RateLimitConfig{RequestsPerMinute: 20, IPConfig: ipConfig},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Periodic cleanup of revoked sessions and expired login tokens
	cleanupManager := background.NewCleanupManager(revocationRepo, interpreterRepo, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		cleanupManager.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// db.Close runs via defer once in-flight requests have drained
	logger.Info("server stopped gracefully")
	return nil
}

// ensureAdminUser creates the first SUPER_ADMIN if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, cfg config.BootstrapConfig, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}
	hashedPassword, err := pkgauth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = userRepo.Create(ctx, &models.User{
		Email:        strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		PasswordHash: hashedPassword,
		Name:         cfg.AdminName,
		Role:         models.RoleSuperAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
