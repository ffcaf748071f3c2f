package smoother

import (
	"math"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/smoother/spatialmath"
)

// Channel configures the filtering of one input transform into one output transform. The
// endpoints are referenced by name only; their values live in whatever store the driver uses.
// The previous output is read back from that store on every tick.
type Channel struct {
	Name     string  `json:"name" jsonschema:"required"`
	Input    string  `json:"input" jsonschema:"required"`
	Output   string  `json:"output" jsonschema:"required"`
	CutoffHz float64 `json:"cutoff_frequency" jsonschema_description:"cutoff frequency in Hz, 7.5 when unset"`
	Active   bool    `json:"filter_activated" jsonschema_description:"filter the input rather than pass it through"`
}

// NewChannel returns an inactive channel with the default cutoff frequency.
func NewChannel(name, input, output string) Channel {
	return Channel{
		Name:     name,
		Input:    input,
		Output:   output,
		CutoffHz: DefaultCutoffHz,
	}
}

// Validate ensures all parts of the channel config are valid.
func (c *Channel) Validate(path string) error {
	if c.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if c.Input == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "input")
	}
	if c.Output == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "output")
	}
	if c.Input == c.Output {
		return goutils.NewConfigValidationError(path, errors.Errorf("input and output must differ, both are %q", c.Input))
	}
	if !(c.CutoffHz > 0) || math.IsInf(c.CutoffHz, 0) {
		return goutils.NewConfigValidationError(path, errors.Errorf("cutoff_frequency must be a positive number, got %v", c.CutoffHz))
	}
	return nil
}

// Step runs Step with this channel's cutoff frequency and activation.
func (c *Channel) Step(input, previousOutput spatialmath.RigidTransform, dt float64) spatialmath.RigidTransform {
	return Step(input, previousOutput, c.CutoffHz, c.Active, dt)
}
