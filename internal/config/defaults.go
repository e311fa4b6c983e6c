package config

// Default configuration values.
const (
	DefaultOutput = OutputAuto
	EnvPrefix     = "STORAGY_"
)

// ConfigFileNames are searched in order in the working directory.
var ConfigFileNames = []string{"storagy.yaml", "storagy.yml"}

func defaults() map[string]any {
	return map[string]any{
		"output":  DefaultOutput,
		"verbose": false,
	}
}

// ApplyDefaults fills unset values of c.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Sources == nil {
		c.Sources = make(map[string]SourceConfig)
	}
}
