package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/bloom-journal/bloom/internal/api"
	"github.com/bloom-journal/bloom/internal/app/dashboard"
	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/app/journal"
	"github.com/bloom-journal/bloom/internal/app/ledger"
	"github.com/bloom-journal/bloom/internal/health"
	"github.com/bloom-journal/bloom/internal/infra/logger"
	"github.com/bloom-journal/bloom/internal/infra/sqlite"
)

// Daemon is the core bloom runtime. It wires together all services.
type Daemon struct {
	Config    Config
	Home      string
	Clock     clockwork.Clock
	Log       *logger.Logger
	DB        *sqlite.DB
	Garden    *engagement.GardenService
	Journal   *journal.Service
	Ledger    *ledger.Service
	Dashboard *dashboard.Dashboard
	Health    *health.Checker
	Server    *api.Server
	cancel    context.CancelFunc
}

// New creates and initializes a Daemon from the on-disk configuration.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration, storing data
// under BLOOM_HOME and using the system clock.
func NewWithConfig(cfg Config) (*Daemon, error) {
	return Open(cfg, bloomHome(), clockwork.NewRealClock())
}

// Open creates a Daemon rooted at home with an explicit clock.
func Open(cfg Config, home string, clock clockwork.Clock) (*Daemon, error) {
	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Open SQLite
	db, err := sqlite.Open(home)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetLogger(log)

	garden := engagement.NewGardenService(db, clock, cfg.Garden.Policy(), log)
	history := ledger.NewService(db)
	records := journal.NewService(db, garden, clock, log)
	dash := dashboard.New(db, clock, log)

	// Initialize API server
	srv := api.NewServer(records, garden, clock, log)
	srv.SetDashboard(dash)
	srv.SetLedger(history)
	checker := health.NewChecker(db, db, home, clock, log)
	srv.SetHealth(checker)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:    cfg,
		Home:      home,
		Clock:     clock,
		Log:       log,
		DB:        db,
		Garden:    garden,
		Journal:   records,
		Ledger:    history,
		Dashboard: dash,
		Health:    checker,
		Server:    srv,
	}, nil
}

// Foreground runs the app-open sequence: create the garden if needed, then
// grant today's daily token if it has not been granted yet.
func (d *Daemon) Foreground(ctx context.Context) error {
	if _, err := d.Garden.EnsureInitialized(ctx); err != nil {
		return err
	}
	g, err := d.Garden.CheckDailyReset(ctx)
	if err != nil {
		return err
	}
	d.Log.Debug("foreground check done", "tokens", g.WaterTokens, "level", g.Level)
	return nil
}

// Serve starts the HTTP server and background jobs, and blocks until
// shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	if err := d.Foreground(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	var sched *Scheduler
	if d.Config.Scheduler.Enabled {
		s, err := NewScheduler(ctx, d.Garden, d.Config.Scheduler.DailyResetAt, d.Clock, d.Log)
		if err != nil {
			return err
		}
		sched = s
		sched.Start()
		if next, err := sched.NextReset(); err == nil {
			d.Log.Info("next daily reset", "at", next)
		}
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	// Graceful shutdown on signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     d.Server.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
		// Live streams end with the daemon instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Dashboard.Run(gctx)
	})
	g.Go(func() error {
		return d.Health.Run(gctx)
	})
	g.Go(func() error {
		// Commits by CLI commands reach the live dashboard through this.
		return d.DB.Watch(gctx, d.Clock, sqlite.WatchInterval)
	})
	g.Go(func() error {
		d.Log.Info("bloom serving", "addr", "http://"+addr, "metrics", d.Config.Telemetry.Prometheus)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.Log.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if sched != nil {
			if err := sched.Shutdown(); err != nil {
				d.Log.Warn("scheduler shutdown", "error", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	d.Log.Sync()
	return err
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		d.Log.Sync()
	}
}
