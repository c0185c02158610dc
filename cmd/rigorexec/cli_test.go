package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rigorexec/auditstore"
	"github.com/jonwraymond/rigorexec/code"
)

// execute runs the root command with args and stdin and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunSucceeds(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "x := 2\n__out := x * 21\n", "run", "-o", dir)
	require.NoError(t, err)

	res := decode(t, out)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(42), res["result"])
	assert.Equal(t, "succeeded", res["status"])
	assert.NotEmpty(t, res["script_path"])
}

func TestRunFromFileWithContext(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "mean.go", "__out := stat.Mean(samples, nil)\n")
	vars := writeFile(t, dir, "vars.json", `{"samples": [1, 2, 3, 4]}`)

	out, err := execute(t, "", "run", script, "--context", vars)
	require.NoError(t, err)
	assert.Equal(t, 2.5, decode(t, out)["result"])
}

func TestRunNeedsConfirmation(t *testing.T) {
	src := "data := []float64{1, 2, 3}\n// skip the first point\n__out := len(data[1:])\n"

	out, err := execute(t, src, "run")
	require.ErrorIs(t, err, code.ErrConfirmationRequired)
	res := decode(t, out)
	assert.Equal(t, true, res["needs_confirmation"])
	assert.Equal(t, "pending_confirmation", res["status"])
	assert.Contains(t, res["message"], "confirmed=true")

	out, err = execute(t, src, "run", "--confirmed")
	require.NoError(t, err)
	assert.Equal(t, float64(2), decode(t, out)["result"])
}

func TestRunStrictBlocks(t *testing.T) {
	src := "// skip the first point\n__out := 1\n"
	out, err := execute(t, src, "run", "--rigor-level", "strict", "--confirmed")
	require.ErrorIs(t, err, code.ErrPolicyViolation)
	assert.Equal(t, "blocked", decode(t, out)["status"])
}

func TestRunRaised(t *testing.T) {
	out, err := execute(t, "var xs []int\n__out := xs[3]\n", "run")
	require.ErrorIs(t, err, code.ErrCodeExecution)
	res := decode(t, out)
	assert.Equal(t, "raised", res["status"])
	assert.NotEmpty(t, res["error"])
}

func TestInvalidRigorLevel(t *testing.T) {
	_, err := execute(t, "__out := 1\n", "run", "--rigor-level", "lenient")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "x := 1\n_ = x\n", "validate")
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, out)["valid"])

	out, err = execute(t, "x := \n", "validate")
	require.ErrorIs(t, err, errNotValid)
	assert.Equal(t, false, decode(t, out)["valid"])
}

func TestScan(t *testing.T) {
	src := "result := expected\n"
	out, err := execute(t, src, "scan")
	require.ErrorIs(t, err, errScanFailed)
	res := decode(t, out)
	assert.Equal(t, "standard", res["level"])
	assert.Len(t, res["violations"], 1)

	out, err = execute(t, src, "scan", "-r", "relaxed")
	require.NoError(t, err)
	res = decode(t, out)
	assert.Len(t, res["needs_confirmation"], 1)
	assert.Len(t, res["critical_pending"], 1)

	cfg := writeFile(t, t.TempDir(), "rigor.yaml", `
rigor_level: standard
forbidden_patterns:
  - pattern: 'bootstrap'
    message: 'bootstrapping is not allowed here'
`)
	_, err = execute(t, "n := 10 // bootstrap\n", "scan", "--config", cfg)
	require.ErrorIs(t, err, errScanFailed)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "x := 1\n_ = x\n", "export", "-o", dir, "--name", "final.go")
	require.NoError(t, err)
	res := decode(t, out)
	assert.Equal(t, filepath.Join(dir, "final.go"), res["path"])
	_, err = os.Stat(filepath.Join(dir, "final.go"))
	require.NoError(t, err)

	_, err = execute(t, "x := \n", "export", "-o", dir)
	require.ErrorIs(t, err, errExportFails)
	require.ErrorIs(t, err, code.ErrExportSyntax)

	_, err = execute(t, "x := 1\n_ = x\n", "export")
	require.ErrorIs(t, err, code.ErrNoOutputDir)
}

func TestLogReadsAuditDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "audit.db")
	cfg := writeFile(t, dir, "rigor.toml", "audit_db = \""+filepath.ToSlash(db)+"\"\n")

	_, err := execute(t, "", "log", "--config", cfg)
	require.ErrorIs(t, err, auditstore.ErrSessionNotFound)

	_, err = execute(t, "__out := 7\n", "run", "--config", cfg, "-d", "first")
	require.NoError(t, err)

	out, err := execute(t, "", "log", "--config", cfg)
	require.NoError(t, err)
	res := decode(t, out)
	entries, ok := res["entries"].([]any)
	require.True(t, ok, out)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "__out := 7\n", entry["code"])
	assert.Equal(t, "first", entry["description"])

	out, err = execute(t, "", "log", "--config", cfg, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestLogWithoutAuditDatabase(t *testing.T) {
	_, err := execute(t, "", "log")
	require.True(t, errors.Is(err, errNoAuditDB), "got %v", err)
}

func TestTools(t *testing.T) {
	out, err := execute(t, "", "tools")
	require.NoError(t, err)
	for _, id := range []string{
		"rigor:execute_code",
		"rigor:get_session_log",
		"rigor:save_reproducible_script",
		"rigor:validate_code",
	} {
		assert.Contains(t, out, id)
	}

	out, err = execute(t, "", "tools", "reproducible script")
	require.NoError(t, err)
	assert.Contains(t, out, "rigor:save_reproducible_script")
}
