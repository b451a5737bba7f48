package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clan-manager/internal/config"
	"clan-manager/internal/database"
	"clan-manager/internal/handler"
	"clan-manager/internal/jobs"
	"clan-manager/internal/logger"
	"clan-manager/internal/mail"
	"clan-manager/internal/metrics"
	"clan-manager/internal/middleware"
	"clan-manager/internal/router"
	"clan-manager/internal/security"
	"clan-manager/internal/service"
)

// Version is stamped at build time with -ldflags "-X clan-manager/internal/app.Version=...".
var Version = "dev"

type pinger interface {
	Ping(ctx context.Context) error
}

// Components is the wired object graph behind the HTTP handler.
type Components struct {
	Handler       http.Handler
	Tokens        *security.TokenIssuer
	Hasher        *security.PasswordHasher
	Auth          *service.AuthService
	Users         *service.UserService
	Clans         *service.ClanService
	Tasks         *service.TaskService
	Announcements *service.AnnouncementService
}

// Wire builds services, handlers and the router over the given stores. db
// and m may be nil.
func Wire(cfg *config.Config, stores Stores, mailer mail.Mailer, m *metrics.Metrics, db pinger) (*Components, error) {
	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	totp := security.NewTOTP(cfg.TwoFactorAppName)

	activityService := service.NewActivityService(stores.Activity)
	authService := service.NewAuthService(
		service.AuthOptions{FrontendURL: cfg.FrontendURL},
		stores.Users, stores.Clans, hasher, tokens, totp, mailer, activityService,
	)
	if m != nil {
		authService.SetEventRecorder(m)
	}
	userService := service.NewUserService(stores.Users, stores.Clans, hasher)
	clanService := service.NewClanService(stores.Clans, stores.Users)
	taskService := service.NewTaskService(stores.Tasks, stores.Clans, stores.Users)
	announcementService := service.NewAnnouncementService(stores.Announcements, stores.Clans)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(tokens), router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Clan:         handler.NewClanHandler(clanService),
		Task:         handler.NewTaskHandler(taskService),
		Announcement: handler.NewAnnouncementHandler(announcementService),
		Health:       handler.NewHealthHandler(db, Version),
		Docs:         handler.NewDocsHandler(),
	}, m)

	return &Components{
		Handler:       appRouter,
		Tokens:        tokens,
		Hasher:        hasher,
		Auth:          authService,
		Users:         userService,
		Clans:         clanService,
		Tasks:         taskService,
		Announcements: announcementService,
	}, nil
}

type App struct {
	server       *http.Server
	scheduler    *jobs.Scheduler
	cleanupFuncs []func()
}

// New loads configuration and wires the server. level is adjusted to
// LOG_LEVEL once the configuration is known.
func New(level *slog.LevelVar) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level != nil {
		level.Set(logger.ParseLevel(cfg.LogLevel))
	}

	ctx := context.Background()
	var (
		stores       Stores
		db           *database.DB
		cleanupFuncs []func()
	)

	if cfg.MemoryMode() {
		slog.Warn("DATABASE_URL not set; using in-memory stores")
		stores = MemoryStores()
	} else {
		slog.Info("connecting to PostgreSQL")
		db, err = database.New(ctx, database.Options{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		stores = PostgresStores(db.Pool)
		cleanupFuncs = append(cleanupFuncs, db.Close)
		slog.Info("database ready")
	}

	var mailer mail.Mailer = mail.NewLogMailer()
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	var dbPinger pinger
	if db != nil {
		dbPinger = db
	}

	components, err := Wire(cfg, stores, mailer, m, dbPinger)
	if err != nil {
		runAll(cleanupFuncs)
		return nil, err
	}

	if err := service.Bootstrap(ctx, service.BootstrapOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		MainClanID:    cfg.MainClanID,
	}, stores.Users, stores.Clans, components.Hasher); err != nil {
		runAll(cleanupFuncs)
		return nil, fmt.Errorf("failed to bootstrap: %w", err)
	}

	scheduler := jobs.NewScheduler(components.Clans, m)
	if err := scheduler.ScheduleWeeklyReset(cfg.WeeklyResetSchedule); err != nil {
		runAll(cleanupFuncs)
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           components.Handler,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		scheduler:    scheduler,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

func (a *App) Run() error {
	a.scheduler.Start()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr, "version", Version)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.scheduler.Stop(ctx)
	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}
	runAll(a.cleanupFuncs)

	slog.Info("server stopped")
	return runErr
}

func runAll(funcs []func()) {
	for _, f := range funcs {
		f()
	}
}
