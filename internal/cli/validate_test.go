package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: supplier_count
description: "supplier fixture is fully loaded"
requires: [supplier]
steps:
  - query: "SELECT count(*) FROM ${connector}.${keyspace}.supplier"
    expect:
      rows: [[10000]]
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestValidateValidScenarios(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"count.yaml": validScenario, "notes.txt": "ignored"})

	opts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(opts), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios valid (1 files)")
}

func TestValidateValidScenariosJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"count.yaml": validScenario})

	opts := &RootOptions{Format: "json"}
	out, err := execute(t, NewValidateCommand(opts), dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateHarnessTestdata(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata", "convention")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("harness testdata not found")
	}

	opts := &RootOptions{Format: "text"}
	_, err := execute(t, NewValidateCommand(opts), dir)
	require.NoError(t, err)
}

func TestValidateSchemaViolation(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"count.yaml": validScenario,
		"bad.yaml": `
name: Bad-Name
description: "x"
steps: []
`,
	})

	opts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(opts), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ 1 of 2 scenario file(s) invalid")
	assert.Contains(t, out, "bad.yaml: does not match the scenario schema")
}

func TestValidateUnknownFixtureJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"nation.yaml": `
name: nation_count
description: "nation is not a fixture"
requires: [nation]
steps:
  - query: "SELECT 1"
    expect:
      row_count: 1
`})

	opts := &RootOptions{Format: "json"}
	out, err := execute(t, NewValidateCommand(opts), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Contains(t, resp.Data.Errors[0].Message, "nation")
}

func TestValidateDuplicateOfBuiltinName(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"dup.yaml": `
name: select_tuple_type_in_primary_key
description: "clashes with the built-in suite"
steps:
  - query: "SELECT 1"
    expect:
      row_count: 1
`})

	opts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(opts), dir)
	require.Error(t, err)
	assert.Contains(t, out, "select_tuple_type_in_primary_key")
}

func TestValidateEmptyDirectory(t *testing.T) {
	opts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(opts), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no scenario files")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	opts := &RootOptions{Format: "text"}
	_, err := execute(t, NewValidateCommand(opts), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
