package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/smoother/config"
	"go.viam.com/smoother/driver"
	"go.viam.com/smoother/logging"
	"go.viam.com/smoother/smoother"
	"go.viam.com/smoother/store"
)

func serveAction(c *cli.Context, logger logging.Logger) error {
	ctx := c.Context
	cfg, err := config.Read(ctx, c.Path(serveFlagConfig), logger)
	if err != nil {
		return err
	}

	st := store.New()
	out := newOutputWriter(c.App.Writer, st)
	drv := driver.New(cfg, st, logger.Sublogger("driver"), driver.WithAfterTick(out.writeOutputs))

	watcher, err := config.NewWatcher(ctx, cfg.ConfigFilePath, logger.Sublogger("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Errorw("error closing config watcher", "error", err)
		}
	}()

	if err := drv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := drv.Close(context.Background()); err != nil {
			logger.Errorw("error stopping driver", "error", err)
		}
	}()
	logger.Infow("serving", "config", cfg.ConfigFilePath, "channels", len(cfg.Channels),
		"poll_interval", cfg.PollInterval, "tick_interval", cfg.TickInterval)

	// Reading stdin blocks without regard for ctx, so it is not waited on at shutdown.
	inputDone := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(inputDone)
		if err := readInputs(ctx, c.App.Reader, st, logger); err != nil {
			logger.Errorw("error reading inputs", "error", err)
		}
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-inputDone:
			logger.Info("input closed")
			return nil
		case newCfg := <-watcher.Config():
			if err := drv.Reconfigure(ctx, newCfg); err != nil {
				logger.Errorw("error reconfiguring", "error", err)
			}
		}
	}
}

// readInputs stores every sample read from r under its name. Malformed lines are logged and
// skipped.
func readInputs(ctx context.Context, r io.Reader, st *store.Store, logger logging.Logger) error {
	return readSamples(r, func(line int, s sample, err error) error {
		if err != nil {
			logger.Warnw("ignoring malformed sample", "error", err)
			return nil
		}
		if s.Name == "" {
			logger.Warnw("ignoring sample without a name", "line", line)
			return nil
		}
		tf, err := s.transform()
		if err != nil {
			logger.Warnw("ignoring malformed sample", "line", line, "error", err)
			return nil
		}
		return st.SetTransform(ctx, s.Name, tf)
	})
}

// outputWriter prints every channel output after each tick.
type outputWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
	st  *store.Store
}

func newOutputWriter(w io.Writer, st *store.Store) *outputWriter {
	return &outputWriter{enc: json.NewEncoder(w), st: st}
}

func (ow *outputWriter) writeOutputs(ctx context.Context, cfg *config.Config) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	outputs := lo.Uniq(lo.Map(cfg.Channels, func(ch smoother.Channel, _ int) string { return ch.Output }))
	for _, name := range outputs {
		tf, err := ow.st.Transform(ctx, name)
		if err != nil {
			// not written yet
			continue
		}
		//nolint:errcheck
		ow.enc.Encode(newSample(name, tf))
	}
}
