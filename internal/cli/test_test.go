package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommand_EmptyDirJSON(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommand_PassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pushes.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ pushes")
	assert.Contains(t, out, "✗ wrong_path")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pushes.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, "test", dir, "--filter", "push*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_GoldenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pushes.yaml", passingScenario)
	goldenDir := filepath.Join(t.TempDir(), "golden")

	out, _, err := execute(t, "test", dir, "--update", "--golden-dir", goldenDir)
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	goldenPath := filepath.Join(goldenDir, "pushes.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"pushes"`)

	_, _, err = execute(t, "test", dir, "--golden-dir", goldenDir)
	require.NoError(t, err)

	// a tampered golden file fails the run
	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"pushes","trace":[]}`), 0644))
	out, _, err = execute(t, "test", dir, "--golden-dir", goldenDir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_DefaultGoldenDirIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pushes.yaml", passingScenario)

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "golden", "pushes.golden"))
	require.NoError(t, err)

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}
