package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/smoother/logging"
	"go.viam.com/smoother/smoother"
)

// Read reads a config from the given file. Environment variable references such as
// ${TRACKER_NAME} are substituted before the file is parsed.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %q", filePath)
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}

	cfg, err := decode(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode Config")
	}
	cfg.ConfigFilePath = originalPath
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Every load goes through here, including reloads from the watcher, so each config the
	// driver receives has been warned about.
	for output, names := range cfg.SharedOutputs() {
		logger.Warnw("output is shared by several channels; only one of them may be active at a time",
			"output", output, "channels", names)
	}
	return cfg, nil
}

// decode converts generic json into a Config. Channels that leave out their cutoff frequency get
// the default rather than zero.
func decode(raw map[string]interface{}) (*Config, error) {
	if chans, ok := raw["channels"].([]interface{}); ok {
		for _, ch := range chans {
			if attrs, ok := ch.(map[string]interface{}); ok {
				if _, set := attrs["cutoff_frequency"]; !set {
					attrs["cutoff_frequency"] = smoother.DefaultCutoffHz
				}
			}
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      &cfg,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return &cfg, nil
}
