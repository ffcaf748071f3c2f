// Package driver periodically steps every configured channel, reading raw transforms from a
// source and writing the filtered result back.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go.viam.com/smoother/config"
	"go.viam.com/smoother/logging"
	"go.viam.com/smoother/smoother"
	"go.viam.com/smoother/spatialmath"
	"go.viam.com/smoother/store"
	"go.viam.com/smoother/utils"
)

const (
	// orthonormalTolerance bounds how far an input rotation may drift before it is reported.
	orthonormalTolerance = 1e-6
	// skipLogInterval limits how often a channel waiting on its input is logged.
	skipLogInterval = 5 * time.Second
)

// A Source returns the last transform published under a name. It returns an error wrapping
// store.ErrNotFound if nothing has been published yet.
type Source interface {
	Transform(ctx context.Context, name string) (spatialmath.RigidTransform, error)
}

// A Sink is a Source that can also be written to.
type Sink interface {
	Source
	SetTransform(ctx context.Context, name string, tf spatialmath.RigidTransform) error
}

// Stats counts what the driver has done since it was created.
type Stats struct {
	Ticks   uint64
	Steps   uint64
	Skipped uint64
}

// Driver steps the channels of a config at the config's poll interval.
type Driver struct {
	logger    logging.Logger
	baseLevel logging.Level
	clk       clock.Clock
	sink      Sink
	after     func(ctx context.Context, cfg *config.Config)

	mu       sync.Mutex
	cfg      *config.Config
	workers  *goutils.StoppableWorkers
	pollCh   chan time.Duration
	tickMu   sync.Mutex
	lastTick time.Time

	skipLogsMu sync.Mutex
	skipLogs   map[string]*rate.Sometimes

	ticks   atomic.Uint64
	steps   atomic.Uint64
	skipped atomic.Uint64
}

// An Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clk clock.Clock) Option {
	return func(d *Driver) {
		d.clk = clk
	}
}

// WithAfterTick registers a function run after every tick with the config that tick used.
func WithAfterTick(f func(ctx context.Context, cfg *config.Config)) Option {
	return func(d *Driver) {
		d.after = f
	}
}

// New returns a driver for cfg. It does nothing until Start or Tick is called.
func New(cfg *config.Config, sink Sink, logger logging.Logger, opts ...Option) *Driver {
	d := &Driver{
		logger:    logger,
		baseLevel: logger.GetLevel(),
		clk:       clock.New(),
		sink:      sink,
		cfg:       cfg,
		pollCh:    make(chan time.Duration, 1),

		skipLogs: map[string]*rate.Sometimes{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.applyLogLevel(cfg)
	return d
}

// applyLogLevel switches the logger to DEBUG while cfg.Debug is set and back to the level the
// driver was created with otherwise.
func (d *Driver) applyLogLevel(cfg *config.Config) {
	if cfg.Debug {
		d.logger.SetLevel(logging.DEBUG)
		return
	}
	d.logger.SetLevel(d.baseLevel)
}

// Config returns the config currently in use.
func (d *Driver) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Stats returns the driver's counters.
func (d *Driver) Stats() Stats {
	return Stats{
		Ticks:   d.ticks.Load(),
		Steps:   d.steps.Load(),
		Skipped: d.skipped.Load(),
	}
}

// Reconfigure swaps in a new config. Channels keep their stored outputs, so a channel that is
// modified or reactivated resumes from its last output.
func (d *Driver) Reconfigure(ctx context.Context, cfg *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	diff, err := config.DiffConfigs(*d.cfg, *cfg)
	if err != nil {
		return err
	}
	if diff.Empty() {
		d.logger.Debug("config unchanged")
		return nil
	}
	pollChanged := d.cfg.PollInterval != cfg.PollInterval
	d.cfg = cfg
	d.applyLogLevel(cfg)
	d.logger.Infow("reconfiguring",
		"added", len(diff.Added), "modified", len(diff.Modified), "removed", len(diff.Removed),
		"debug", cfg.Debug)
	d.logger.Debugf("config diff:\n%s", diff)
	if pollChanged && d.workers != nil {
		// drop any interval that has not been picked up yet
		select {
		case <-d.pollCh:
		default:
		}
		d.pollCh <- cfg.PollInterval
	}
	return nil
}

// Start begins ticking in the background. It returns an error if the driver is already running.
// A driver stopped with Close may be started again.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workers != nil {
		return errors.New("driver already started")
	}
	select {
	case <-d.pollCh:
	default:
	}

	ticker := d.clk.Ticker(d.cfg.PollInterval)
	d.workers = goutils.NewStoppableWorkers(ctx)
	d.workers.Add(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case interval := <-d.pollCh:
				d.logger.Debugw("changing poll interval", "interval", interval)
				ticker.Reset(interval)
			case <-ticker.C:
				if err := d.Tick(ctx); err != nil && ctx.Err() == nil {
					d.logger.Errorw("error stepping channels", "error", err)
				}
			}
		}
	})
	return nil
}

// Close stops the background loop started by Start and waits for it to exit.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	workers := d.workers
	d.workers = nil
	d.mu.Unlock()
	if workers == nil {
		return nil
	}

	done := utils.SlowLogger(ctx, d.clk, d.logger, "waiting for driver to stop")
	defer done()
	workers.Stop()
	return nil
}

// Tick steps every channel once. Channels are stepped concurrently; ticks are not. A channel
// whose input has not been published yet is skipped. A channel whose output has not been
// published yet starts from its input.
func (d *Driver) Tick(ctx context.Context) error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	cfg := d.Config()
	dt := d.elapsed(cfg)

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range cfg.Channels {
		g.Go(func() error {
			return d.step(gctx, ch, dt)
		})
	}
	err := g.Wait()
	d.ticks.Inc()

	if d.after != nil {
		d.after(ctx, cfg)
	}
	return err
}

// elapsed returns the dt in seconds for the current tick.
func (d *Driver) elapsed(cfg *config.Config) float64 {
	nominal := cfg.TickInterval.Seconds()
	if !cfg.MeasureElapsed {
		return nominal
	}
	now := d.clk.Now()
	last := d.lastTick
	d.lastTick = now
	if last.IsZero() {
		return nominal
	}
	return now.Sub(last).Seconds()
}

func (d *Driver) skipLog(channel string) *rate.Sometimes {
	d.skipLogsMu.Lock()
	defer d.skipLogsMu.Unlock()
	sometimes, ok := d.skipLogs[channel]
	if !ok {
		sometimes = &rate.Sometimes{Interval: skipLogInterval}
		d.skipLogs[channel] = sometimes
	}
	return sometimes
}

func (d *Driver) step(ctx context.Context, ch smoother.Channel, dt float64) error {
	input, err := d.sink.Transform(ctx, ch.Input)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.skipped.Inc()
			d.skipLog(ch.Name).Do(func() {
				d.logger.Debugw("skipping channel without input", "channel", ch.Name, "input", ch.Input)
			})
			return nil
		}
		return errors.Wrapf(err, "reading input of channel %q", ch.Name)
	}
	if !input.Rotation().IsOrthonormal(orthonormalTolerance) {
		d.logger.Debugw("input rotation is not orthonormal", "channel", ch.Name, "input", ch.Input)
	}

	previous, err := d.sink.Transform(ctx, ch.Output)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return errors.Wrapf(err, "reading output of channel %q", ch.Name)
		}
		d.logger.Debugw("seeding output from input", "channel", ch.Name, "output", ch.Output)
		previous = input
	}

	if err := d.sink.SetTransform(ctx, ch.Output, ch.Step(input, previous, dt)); err != nil {
		return errors.Wrapf(err, "writing output of channel %q", ch.Name)
	}
	d.steps.Inc()
	return nil
}
