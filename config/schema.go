package config

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the config file. Only fields tagged required must be present;
// everything else has a default. Intervals are accepted as Go duration strings such as "50ms" as
// well as integer nanoseconds.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{})
}
