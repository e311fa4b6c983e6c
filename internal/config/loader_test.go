package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/storagy/pkg/adapter"

	// Register the drivers referenced by the fixtures
	_ "github.com/leapstack-labs/storagy/pkg/adapters/delimited"
	_ "github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
)

const sampleConfig = `output: table
sources:
  people:
    driver: delimited
    params:
      path: ./data
      filename: people.csv
      has_header: true
  notes:
    driver: flatfile
    params:
      path: ${STORAGY_TEST_DIR}/notes
      filename: notes.txt
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.StringP("output", "o", "", "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadFromDir_NoFile(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.File)
	assert.Empty(t, cfg.Sources)
	assert.NotNil(t, cfg.Sources)
}

func TestLoadFromDir_DiscoversFile(t *testing.T) {
	for _, name := range ConfigFileNames {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, name, sampleConfig)

			cfg, err := LoadFromDir(dir, "", nil)
			require.NoError(t, err)

			assert.Equal(t, path, cfg.File)
			assert.Equal(t, OutputTable, cfg.Output)
			assert.Equal(t, []string{"notes", "people"}, cfg.SourceNames())

			people, err := cfg.Source("people")
			require.NoError(t, err)
			assert.Equal(t, "delimited", people.Driver)
			assert.Equal(t, "people.csv", people.Params["filename"])
			assert.Equal(t, true, people.Params["has_header"])
		})
	}
}

func TestLoadFromDir_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.yaml", "output: json\n")

	cfg, err := LoadFromDir(t.TempDir(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, path, cfg.File)

	_, err = LoadFromDir(dir, filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadFromDir_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "storagy.yaml", sampleConfig)

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("STORAGY_OUTPUT", "yaml")
		t.Setenv("STORAGY_VERBOSE", "true")

		cfg, err := LoadFromDir(dir, "", nil)
		require.NoError(t, err)
		assert.Equal(t, OutputYAML, cfg.Output)
		assert.True(t, cfg.Verbose)
	})

	t.Run("nested env key", func(t *testing.T) {
		t.Setenv("STORAGY_SOURCES__PEOPLE__PARAMS__FILENAME", "staff.csv")

		cfg, err := LoadFromDir(dir, "", nil)
		require.NoError(t, err)
		people, err := cfg.Source("people")
		require.NoError(t, err)
		assert.Equal(t, "staff.csv", people.Params["filename"])
		assert.Equal(t, "./data", people.Params["path"])
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("STORAGY_OUTPUT", "yaml")
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--output", "json", "--config", "ignored.yaml"}))

		cfg, err := LoadFromDir(dir, "", flags)
		require.NoError(t, err)
		assert.Equal(t, OutputJSON, cfg.Output)
	})

	t.Run("unset flags keep file value", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse(nil))

		cfg, err := LoadFromDir(dir, "", flags)
		require.NoError(t, err)
		assert.Equal(t, OutputTable, cfg.Output)
	})
}

func TestLoadFromDir_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "storagy.yaml", sampleConfig)
	t.Setenv("STORAGY_TEST_DIR", "/srv")

	cfg, err := LoadFromDir(dir, "", nil)
	require.NoError(t, err)

	notes, err := cfg.Source("notes")
	require.NoError(t, err)
	assert.Equal(t, "/srv/notes", notes.Params["path"])
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("STORAGY_TEST_USER", "ana")
	t.Setenv("STORAGY_TEST_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no pattern", input: "plain", want: "plain"},
		{name: "whole value", input: "${STORAGY_TEST_USER}", want: "ana"},
		{name: "embedded", input: "user=${STORAGY_TEST_USER};", want: "user=ana;"},
		{name: "set but empty", input: "x${STORAGY_TEST_EMPTY}y", want: "xy"},
		{name: "unset kept", input: "${STORAGY_TEST_UNSET_VAR}", want: "${STORAGY_TEST_UNSET_VAR}"},
		{name: "bare dollar kept", input: "$STORAGY_TEST_USER", want: "$STORAGY_TEST_USER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestExpandParams_Nested(t *testing.T) {
	t.Setenv("STORAGY_TEST_PW", "secret")

	got := expandParams(map[string]any{
		"password": "${STORAGY_TEST_PW}",
		"port":     5432,
		"params":   map[string]any{"app": "${STORAGY_TEST_PW}"},
		"list":     []any{"${STORAGY_TEST_PW}", 1},
	})

	assert.Equal(t, "secret", got["password"])
	assert.Equal(t, 5432, got["port"])
	assert.Equal(t, map[string]any{"app": "secret"}, got["params"])
	assert.Equal(t, []any{"secret", 1}, got["list"])
	assert.Nil(t, expandParams(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr string
	}{
		{
			name: "valid",
			cfg: Config{Output: OutputAuto, Sources: map[string]SourceConfig{
				"people": {Driver: "delimited"},
			}},
		},
		{
			name:      "bad output",
			cfg:       Config{Output: "markdown"},
			wantErr:   true,
			errSubstr: "unknown output format",
		},
		{
			name: "missing driver",
			cfg: Config{Output: OutputAuto, Sources: map[string]SourceConfig{
				"people": {},
			}},
			wantErr:   true,
			errSubstr: `source "people": driver is required`,
		},
		{
			name: "unknown driver",
			cfg: Config{Output: OutputAuto, Sources: map[string]SourceConfig{
				"people": {Driver: "excel"},
			}},
			wantErr:   true,
			errSubstr: `unknown driver "excel"`,
		},
		{
			name: "driver names are case sensitive",
			cfg: Config{Output: OutputAuto, Sources: map[string]SourceConfig{
				"people": {Driver: "Delimited"},
			}},
			wantErr:   true,
			errSubstr: "unknown driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadFromDir_RejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "storagy.yaml", "sources:\n  s:\n    driver: excel\n")

	_, err := LoadFromDir(dir, "", nil)
	require.Error(t, err)

	var unknown *adapter.UnknownDriverError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "excel", unknown.Driver)
	assert.Contains(t, unknown.Available, "delimited")
}

func TestSource_Unknown(t *testing.T) {
	cfg := &Config{Sources: map[string]SourceConfig{"people": {Driver: "delimited"}}}

	_, err := cfg.Source("staff")
	var unknown *UnknownSourceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"people"}, unknown.Available)
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	cfg := FromContext(ctx)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.NotNil(t, GetLogger(ctx))

	stored := &Config{Output: OutputJSON}
	assert.Same(t, stored, FromContext(WithConfig(ctx, stored)))
}
