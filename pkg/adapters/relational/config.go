package relational

import (
	"fmt"

	"github.com/leapstack-labs/storagy/pkg/adapter"
)

// Options configures a relational adapter.
// Decoded from adapter.Params using mapstructure.
type Options struct {
	// Dialect selects the backend: sqlserver, postgres, sqlite or duckdb.
	Dialect string `mapstructure:"dialect"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// Schema qualifies unqualified table names. Defaults to the dialect's schema.
	Schema string `mapstructure:"schema"`

	// Table is read by All, FieldList and IsEmpty.
	Table string `mapstructure:"table"`

	// Params are appended to the connection string (e.g. sslmode, encrypt).
	Params map[string]string `mapstructure:"params"`
}

// DefaultOptions returns options for the sqlserver dialect.
func DefaultOptions() Options {
	return Options{Dialect: "sqlserver"}
}

// paramAliases maps short parameter names accepted by the dispatcher to
// the option they set.
var paramAliases = map[string]string{
	"db":  "database",
	"pwd": "password",
}

// resolveAliases returns params with alias keys renamed to their canonical
// names. Setting both an alias and its canonical key is an error.
func resolveAliases(params adapter.Params) (adapter.Params, error) {
	out := make(adapter.Params, len(params))
	for k, v := range params {
		out[k] = v
	}
	for alias, name := range paramAliases {
		v, ok := out[alias]
		if !ok {
			continue
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("invalid params: %q and %q are the same option", alias, name)
		}
		out[name] = v
		delete(out, alias)
	}
	return out, nil
}
