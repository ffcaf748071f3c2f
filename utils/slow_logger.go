package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"

	"go.viam.com/smoother/logging"
)

// slowLogBackoff is the wait before each successive warning. The last entry repeats.
var slowLogBackoff = []time.Duration{2 * time.Second, 3 * time.Second, 5 * time.Second}

// SlowLogger warns with msg and keysAndValues, plus how long it has been waiting, until the
// returned function is called or ctx is done. Use it around waits that should be short, such as
// shutting down. The returned function blocks until no more warnings can be written.
func SlowLogger(
	ctx context.Context,
	clk clock.Clock,
	logger logging.Logger,
	msg string,
	keysAndValues ...interface{},
) func() {
	ctx, cancel := context.WithCancel(ctx)
	start := clk.Now()
	done := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(done)
		for attempt := 0; ; attempt++ {
			timer := clk.Timer(slowLogBackoff[min(attempt, len(slowLogBackoff)-1)])
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			fields := append([]interface{}{"waited", clk.Since(start).Round(time.Second).String()}, keysAndValues...)
			logger.Warnw(msg, fields...)
		}
	})
	return func() {
		cancel()
		<-done
	}
}
