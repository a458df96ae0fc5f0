package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"household/internal/adapters/apiclient"
	"household/internal/adapters/auth"
	emailPkg "household/internal/adapters/email"
	"household/internal/adapters/events"
	web "household/internal/adapters/http"
	"household/internal/adapters/http/middleware"
	"household/internal/adapters/localdir"
	"household/internal/adapters/storage"
	"household/internal/application/directory"
	"household/internal/application/orchestrators"
	"household/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	back, err := openBackend(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to open directory: %v", err)
	}
	defer back.close()

	publisher, closeEvents := newPublisher(cfg)
	defer closeEvents()

	sender, err := newSender(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to configure email: %v", err)
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL, nil)
	if err != nil {
		log.Fatalf("failed to configure tokens: %v", err)
	}

	stats := &requestStats{}
	handler := web.NewMux(web.Deps{
		Directory: back.dir,
		Notifier:  &orchestrators.MailNotifier{Sender: sender, From: cfg.MailFrom, ReplyTo: cfg.MailReplyTo},
		Events:    publisher,
		Verifier:  signer,
		Health:    back.health,
	}, web.Options{
		CSRFKey:            cfg.CSRFKey,
		TrustedOrigins:     cfg.TrustedOrigins,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerSecond: cfg.RateLimit,
		SlowRequest:        cfg.SlowRequest,
		ObserveRequest:     stats.observe,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"directory", back.name, "programs", back.seeded, "mail", cfg.MailProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_event", "event", "shutdown_failed", "error", err)
	}
	attrs := []any{"event", "stopped",
		"requests", stats.total.Load(), "server_errors", stats.serverErrors.Load(), "slow_requests", stats.slow.Load()}
	if back.db != nil {
		queries, slow := back.db.Stats()
		attrs = append(attrs, "queries", queries, "slow_queries", slow, "failed_queries", back.db.Failed())
	}
	slog.Info("server_event", attrs...)
}

// backend is the directory the API serves, local SQLite or a remote instance.
type backend struct {
	name   string
	dir    directory.Directory
	health func(context.Context) error
	db     *storage.TimedDB // nil when remote
	seeded int
	close  func()
}

// openBackend opens the local database and seeds the program catalog, or, when
// HOUSEHOLD_DIRECTORY_URL is set, runs the API and workflows against that service.
func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	if cfg.Remote() {
		if cfg.CatalogPath != "" {
			slog.Warn("server_event", "event", "catalog_ignored", "reason", "remote directory owns the catalog")
		}
		client := apiclient.New(cfg.DirectoryURL, cfg.DirectoryToken, nil)
		return backend{name: cfg.DirectoryURL, dir: client, health: client.Ping, close: func() {}}, nil
	}

	// Initialize database with WAL mode and foreign keys
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return backend{}, err
	}
	timedDB := storage.NewTimedDB(db, cfg.SlowQuery)
	dir := localdir.New(timedDB, nil)

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		timedDB.Close()
		return backend{}, err
	}
	seeded, err := orchestrators.ExecuteSeedPrograms(ctx, catalog, orchestrators.SeedProgramsDeps{ProgramStore: dir.Programs})
	if err != nil {
		timedDB.Close()
		return backend{}, fmt.Errorf("seed programs: %w", err)
	}
	return backend{
		name:   cfg.DBPath,
		dir:    dir,
		health: timedDB.Ping,
		db:     timedDB,
		seeded: seeded,
		close:  func() { _ = timedDB.Close() },
	}, nil
}

// newPublisher connects to NATS when a URL is configured. Without one, or when the
// broker is unreachable, events are dropped.
func newPublisher(cfg config.Config) (events.Publisher, func()) {
	if cfg.NATSURL == "" {
		return events.NoopPublisher{}, func() {}
	}
	natsCfg := events.DefaultNATSConfig(cfg.NATSURL)
	natsCfg.SubjectPrefix = cfg.EventsPrefix
	pub, err := events.NewNATSPublisher(natsCfg)
	if err != nil {
		if cfg.Production() {
			log.Fatalf("failed to connect to NATS: %v", err)
		}
		slog.Warn("events_event", "event", "nats_unavailable", "error", err)
		return events.NoopPublisher{}, func() {}
	}
	return pub, func() { _ = pub.Close() }
}

func newSender(ctx context.Context, cfg config.Config) (emailPkg.Sender, error) {
	switch cfg.MailProvider {
	case config.MailResend:
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.MailFrom), nil
	case config.MailSES:
		ses, err := emailPkg.NewSESSender(ctx, cfg.SESRegion, cfg.MailFrom)
		if err != nil {
			return nil, err
		}
		return ses, nil
	}
	if cfg.Production() {
		slog.Warn("email_event", "event", "delivery_disabled", "hint", "set HOUSEHOLD_RESEND_KEY or HOUSEHOLD_SES_REGION")
	}
	return emailPkg.NewNoopSender(), nil
}

// requestStats counts served requests for the shutdown summary.
type requestStats struct {
	total, serverErrors, slow atomic.Int64
}

func (s *requestStats) observe(rt middleware.RequestTiming) {
	s.total.Add(1)
	if rt.Status >= http.StatusInternalServerError {
		s.serverErrors.Add(1)
	}
	if rt.Slow {
		s.slow.Add(1)
	}
}
