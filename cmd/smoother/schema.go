package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"go.viam.com/smoother/config"
)

func schemaAction(c *cli.Context) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(config.Schema())
}
