package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/storagy/internal/cli/commands"
	"github.com/leapstack-labs/storagy/internal/cli/testutil"
	"github.com/leapstack-labs/storagy/internal/config"
	"github.com/leapstack-labs/storagy/pkg/core"
)

// run executes the root command with args against the project's config.
func run(t *testing.T, project string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(project, "storagy.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"all", "doctor", "drivers", "empty", "fields", "sources", "version"}
	for _, name := range want {
		found, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}

	for _, flag := range []string{"config", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestDrivers(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, project, "drivers", "-o", "json")
	require.NoError(t, err)

	var drivers []string
	require.NoError(t, json.Unmarshal([]byte(out), &drivers))
	assert.Equal(t, []string{"delimited", "directory", "flatfile", "relational", "spreadsheet"}, drivers)
}

func TestSources(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, project, "sources", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "people")
	assert.Contains(t, out, "delimited")
	assert.Contains(t, out, "filename=people.csv")
	testutil.AssertNoANSI(t, out)
}

func TestSources_MasksPasswords(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteConfig(t, dir, `sources:
  warehouse:
    driver: relational
    params:
      dialect: postgres
      user: app
      password: hunter2
`)

	out, _, err := run(t, dir, "sources", "-o", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")

	var infos []commands.SourceInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "****", infos[0].Params["password"])
	assert.Equal(t, "app", infos[0].Params["user"])
}

func TestAll(t *testing.T) {
	project := testutil.SetupTestProject(t)

	t.Run("delimited as json", func(t *testing.T) {
		out, _, err := run(t, project, "all", "people", "-o", "json")
		require.NoError(t, err)

		var got commands.RowsOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "people", got.Source)
		assert.Equal(t, []string{"id", "name"}, got.Fields)
		assert.Equal(t, [][]any{{"1", "ana"}, {"2", "bia"}}, got.Rows)
		assert.Equal(t, 2, got.Count)
	})

	t.Run("limit", func(t *testing.T) {
		out, _, err := run(t, project, "all", "people", "--limit", "1", "-o", "json")
		require.NoError(t, err)

		var got commands.RowsOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, [][]any{{"1", "ana"}}, got.Rows)
	})

	t.Run("flatfile as table", func(t *testing.T) {
		out, _, err := run(t, project, "all", "notes", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "COL1")
		assert.Contains(t, out, "second")
		assert.Contains(t, out, "(2 rows)")
	})

	t.Run("directory as yaml", func(t *testing.T) {
		out, _, err := run(t, project, "all", "inbox", "-o", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "source: inbox")
		assert.Contains(t, out, "notes.txt")
		assert.Contains(t, out, "people.csv")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, _, err := run(t, project, "all", "staff")
		var unknown *config.UnknownSourceError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, []string{"inbox", "notes", "people"}, unknown.Available)
	})
}

func TestFields(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, project, "fields", "people", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "- id\n- name\n", out)

	_, _, err = run(t, project, "fields", "notes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupported))
}

func TestEmpty(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, project, "empty", "people", "-o", "json")
	require.NoError(t, err)

	var got commands.EmptyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, commands.EmptyOutput{Source: "people", Empty: false}, got)
}

func TestDoctor(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		project := testutil.SetupTestProject(t)

		out, _, err := run(t, project, "doctor", "-o", "json")
		require.NoError(t, err)

		var got commands.DoctorOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 3, got.Healthy)
		assert.Equal(t, 0, got.Failed)
		require.Len(t, got.Checks, 3)
		assert.Equal(t, "inbox", got.Checks[0].Source)
		assert.Equal(t, "people", got.Checks[2].Source)
		require.NotNil(t, got.Checks[2].Empty)
		assert.False(t, *got.Checks[2].Empty)
	})

	t.Run("missing file fails", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteConfig(t, dir, fmt.Sprintf(`sources:
  ghost:
    driver: delimited
    params:
      path: %[1]s
      filename: missing.csv
  here:
    driver: directory
    params:
      path: %[1]s
`, filepath.ToSlash(dir)))

		out, _, err := run(t, dir, "doctor", "-o", "table")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 sources failed")
		assert.Contains(t, out, "[fail] ghost (delimited)")
		assert.Contains(t, out, "[ok]   here (directory)")
		assert.Contains(t, out, "1 healthy, 1 failed")
	})
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteConfig(t, dir, "sources:\n  s:\n    driver: Delimited\n")

	_, _, err := run(t, dir, "sources")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownDriver))

	_, _, err = run(t, testutil.SetupTestProject(t), "--output", "markdown", "drivers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestVerboseLogsToStderr(t *testing.T) {
	project := testutil.SetupTestProject(t)

	_, errOut, err := run(t, project, "-v", "fields", "people", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "using config file")
}
