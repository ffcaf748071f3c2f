package main

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"go.viam.com/smoother/spatialmath"
)

// maxLineBytes bounds a single json line; a 16 element matrix with a name is far smaller.
const maxLineBytes = 64 * 1024

// sample is one line of input or output.
type sample struct {
	Name   string    `json:"name,omitempty"`
	Matrix []float64 `json:"matrix"`
}

func newSample(name string, tf spatialmath.RigidTransform) sample {
	return sample{Name: name, Matrix: tf.RowMajor()}
}

func (s sample) transform() (spatialmath.RigidTransform, error) {
	return spatialmath.NewRigidTransformFromRowMajor(s.Matrix)
}

// readSamples calls f with every non-blank line of r decoded as a sample. Decoding errors carry
// the 1-based line number. It stops at the first error from f.
func readSamples(r io.Reader, f func(line int, s sample, err error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var s sample
		err := json.Unmarshal(text, &s)
		if err == nil && len(s.Matrix) != 16 {
			err = errors.Errorf("transform matrix has %d elements, need exactly 16", len(s.Matrix))
		}
		if err != nil {
			err = errors.Wrapf(err, "line %d", line)
		}
		if err := f(line, s, err); err != nil {
			return err
		}
	}
	return scanner.Err()
}
