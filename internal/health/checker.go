// Package health runs periodic checks of the local store and data directory
// and keeps the latest results for /health.
package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/infra/logger"
)

// DefaultInterval is how often Run repeats the checks.
const DefaultInterval = 60 * time.Second

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs health checks on demand and on an interval.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	clock    clockwork.Clock
	log      *logger.Logger
}

// NewChecker creates a checker with the standard checks: store
// connectivity, a writable data directory, and a readable garden row.
func NewChecker(db Pinger, garden domain.GardenStore, dataDir string, clock clockwork.Clock, log *logger.Logger) *Checker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Checker{
		interval: DefaultInterval,
		clock:    clock,
		log:      log.With("component", "health"),
		checks: []Check{
			{Name: "sqlite", CheckFn: db.Ping},
			{Name: "data_dir", CheckFn: func(context.Context) error {
				return checkWritableDir(dataDir)
			}},
			{Name: "garden", CheckFn: func(ctx context.Context) error {
				_, err := garden.GetGardenState(ctx)
				return err
			}},
		},
	}
}

// Run repeats the checks every interval until ctx ends. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) error {
	// Run immediately on start
	c.CheckNow(ctx)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			c.CheckNow(ctx)
		}
	}
}

// CheckNow runs every check, stores and returns the results.
func (c *Checker) CheckNow(ctx context.Context) []Status {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: c.clock.Now(),
			Healthy:   true,
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			c.log.Warn("health check failed", "check", check.Name, "error", err)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()

	result := make([]Status, len(statuses))
	copy(result, statuses)
	return result
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks passed on the last run.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Err runs the checks and joins the failures into one error.
func (c *Checker) Err(ctx context.Context) error {
	var errs []error
	for _, s := range c.CheckNow(ctx) {
		if !s.Healthy {
			errs = append(errs, fmt.Errorf("%s: %s", s.Name, s.Error))
		}
	}
	return errors.Join(errs...)
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
