// Package config defines the smoother's configuration file and how it is read, validated and
// watched for changes.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/smoother/smoother"
)

// DefaultPollInterval is how often the driver steps every channel unless configured otherwise.
const DefaultPollInterval = 50 * time.Millisecond

// Config describes a set of filter channels and the cadence they are stepped at.
//
// PollInterval and TickInterval are independent: the first is how often the driver wakes up, the
// second is the dt handed to the filter. MeasureElapsed replaces TickInterval with the measured
// time since the previous tick.
type Config struct {
	PollInterval time.Duration `json:"poll_interval" jsonschema:"oneof_type=string;integer" jsonschema_description:"how often channels are stepped, 50ms when unset"`
	TickInterval time.Duration `json:"tick_interval" jsonschema:"oneof_type=string;integer" jsonschema_description:"dt handed to the filter, 15ms when unset"`

	MeasureElapsed bool               `json:"measure_elapsed" jsonschema_description:"use the measured time between ticks as dt"`
	Debug          bool               `json:"debug" jsonschema_description:"log at debug level"`
	Channels       []smoother.Channel `json:"channels"`

	ConfigFilePath string `json:"-"`
}

// applyDefaults fills in unset intervals.
func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.TickInterval == 0 {
		c.TickInterval = smoother.DefaultTickInterval
	}
}

// Validate ensures all parts of the config are valid. Every problem found is returned, combined.
// Two active channels writing the same output would average into each other with no defined
// weighting, so that is an error; inactive channels may share an output (see SharedOutputs).
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval < 0 {
		errs = append(errs, goutils.NewConfigValidationError("poll_interval",
			errors.Errorf("must not be negative, got %s", c.PollInterval)))
	}
	if c.TickInterval < 0 {
		errs = append(errs, goutils.NewConfigValidationError("tick_interval",
			errors.Errorf("must not be negative, got %s", c.TickInterval)))
	}

	for idx := range c.Channels {
		if err := c.Channels[idx].Validate(fmt.Sprintf("%s.%d", "channels", idx)); err != nil {
			errs = append(errs, err)
		}
	}

	names := lo.FilterMap(c.Channels, func(ch smoother.Channel, _ int) (string, bool) {
		return ch.Name, ch.Name != ""
	})
	for _, dup := range lo.FindDuplicates(names) {
		errs = append(errs, errors.Errorf("duplicate channel name %q", dup))
	}

	activeOutputs := lo.FilterMap(c.Channels, func(ch smoother.Channel, _ int) (string, bool) {
		return ch.Output, ch.Active && ch.Output != ""
	})
	for _, dup := range lo.FindDuplicates(activeOutputs) {
		writers := lo.FilterMap(c.Channels, func(ch smoother.Channel, _ int) (string, bool) {
			return ch.Name, ch.Active && ch.Output == dup
		})
		errs = append(errs, errors.Errorf("output %q is written by more than one active channel: %v", dup, writers))
	}

	return multierr.Combine(errs...)
}

// SharedOutputs returns each output written by more than one channel, active or not, mapped to
// the sorted names of those channels.
func (c *Config) SharedOutputs() map[string][]string {
	writers := lo.GroupBy(c.Channels, func(ch smoother.Channel) string { return ch.Output })
	shared := map[string][]string{}
	for output, chans := range writers {
		if output == "" || len(chans) < 2 {
			continue
		}
		names := lo.Map(chans, func(ch smoother.Channel, _ int) string { return ch.Name })
		slices.Sort(names)
		shared[output] = names
	}
	return shared
}

// FindChannel returns the channel with the given name.
func (c *Config) FindChannel(name string) (smoother.Channel, bool) {
	return lo.Find(c.Channels, func(ch smoother.Channel) bool { return ch.Name == name })
}
