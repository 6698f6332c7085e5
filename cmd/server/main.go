package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/construction-robotics/site-coordination/internal/backup"
	"github.com/construction-robotics/site-coordination/internal/database"
	"github.com/construction-robotics/site-coordination/internal/http/handlers"
	"github.com/construction-robotics/site-coordination/internal/notify"
	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/internal/service"
	"github.com/construction-robotics/site-coordination/internal/session"
	"github.com/construction-robotics/site-coordination/pkg/config"
	"github.com/construction-robotics/site-coordination/pkg/events"
	"github.com/construction-robotics/site-coordination/pkg/logger"
	mw "github.com/construction-robotics/site-coordination/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database.Path)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Event bus is optional; without NATS the publishers are no-ops.
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	var sessions session.Store
	if cfg.Redis.URL != "" {
		redisStore, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		sessions = redisStore
	} else {
		logger.Warn("REDIS_URL not set, using in-memory sessions")
		sessions = session.NewMemoryStore()
	}

	mailer := newMailer(cfg)

	registrations := sqlite.NewRegistrationRepo(db)
	users := sqlite.NewUserRepo(db)
	bookings := sqlite.NewBookingRepo(db)
	activities := sqlite.NewActivityRepo(db)

	proc := processor.New(registrations, bookings, publisher)

	h := handlers.New(
		service.NewRegistrationService(registrations, users, proc, mailer, publisher),
		service.NewBookingService(bookings, mailer, publisher),
		service.NewCheckinService(users, bookings, activities, sessions, cfg.Auth.SessionTTL),
		service.NewAnalysisService(users, bookings, activities),
		activities,
		proc,
		cfg,
	)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("site-coordination"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Mount("/", h.Routes())

	var syncer *backup.Syncer
	if sp := cfg.SharePoint; sp.Enabled {
		if sp.TenantID == "" || sp.ClientID == "" || sp.ClientSecret == "" || sp.SiteID == "" || sp.DriveID == "" {
			logger.Warn("SharePoint backup enabled but not fully configured, disabling")
		} else {
			syncer = backup.NewSyncer(backup.NewGraphUploader(sp), cfg.Database.Path, sp.Interval)
			syncer.Start()
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down site coordination service...")

		if syncer != nil {
			syncer.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Site coordination service listening", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newMailer picks the email transport: dev mode logs only, MailerSend
// when an API key is present, SMTP otherwise.
func newMailer(cfg *config.Config) notify.Mailer {
	switch {
	case cfg.Email.DevMode:
		logger.Warn("EMAIL_DEV_MODE is on, emails are logged instead of sent")
		return notify.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return notify.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.SenderName, cfg.SMTP.SenderEmail)
	default:
		return notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.SenderEmail)
	}
}
