package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders/violation-issues/pkg/issue"
	"github.com/tsanders/violation-issues/pkg/trend"
	"github.com/tsanders/violation-issues/pkg/ux"
)

type finding struct {
	category string
	line     int
	severity int
	message  string
}

// workspace is a builds directory plus the source tree its reports point at.
type workspace struct {
	root    string
	builds  string
	history string
	source  string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	oldOut, oldNoColor := ux.Out, color.NoColor
	color.NoColor = true
	t.Cleanup(func() { ux.Out, color.NoColor = oldOut, oldNoColor })

	root := t.TempDir()
	w := &workspace{
		root:    root,
		builds:  filepath.Join(root, "builds"),
		history: filepath.Join(root, "history"),
		source:  filepath.Join(root, "src", "Main.java"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(w.source), 0755))
	return w
}

func (w *workspace) writeSource(t *testing.T, header int, lines int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < header; i++ {
		fmt.Fprintf(&b, "// header %d\n", i)
	}
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "call%d();\n", i)
	}
	require.NoError(t, os.WriteFile(w.source, []byte(b.String()), 0644))
}

func (w *workspace) writeBuild(t *testing.T, number int, path string, findings []finding) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "files:\n  Main.java:\n    sourceFile: %s\n    types:\n      checkstyle:\n", path)
	for _, f := range findings {
		fmt.Fprintf(&b, "        - type: %s\n          source: checker-A\n          message: %q\n          line: %d\n          severity: %d\n",
			f.category, f.message, f.line, f.severity)
	}
	dir := filepath.Join(w.builds, fmt.Sprint(number))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "violations.yaml"), []byte(b.String()), 0644))
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCollectCommand(t *testing.T) {
	w := newWorkspace(t)
	w.writeSource(t, 0, 10)
	w.writeBuild(t, 1, w.source, []finding{
		{category: "unused-import", line: 5, severity: 1, message: "Unused import 'foo'"},
		{category: "naming", line: 8, severity: 0, message: "Bad name"},
	})

	t.Run("prints issues for the latest build", func(t *testing.T) {
		out, _, err := run(t, "collect", "--builds", w.builds)
		require.NoError(t, err)
		assert.Contains(t, out, "Unused import 'foo'")
		assert.Contains(t, out, "Main.java:5")
		assert.Contains(t, out, "2 issues (HIGH 1, NORMAL 1, LOW 0)")
	})

	t.Run("writes YAML to stdout", func(t *testing.T) {
		out, stderr, err := run(t, "collect", "--report", filepath.Join(w.builds, "1"), "-o", "-")
		require.NoError(t, err)

		issues, err := issue.ReadYAML(strings.NewReader(out))
		require.NoError(t, err)
		require.Len(t, issues, 2)
		// Report order: by line within the file
		assert.Equal(t, "unused-import", issues[0].Category)
		assert.Equal(t, "naming", issues[1].Category)
		assert.Contains(t, stderr, "Processed 2 findings")
	})

	t.Run("identities are stable between runs", func(t *testing.T) {
		first, _, err := run(t, "collect", "--builds", w.builds, "--build", "1", "-o", "-")
		require.NoError(t, err)
		second, _, err := run(t, "collect", "--builds", w.builds, "--build", "1", "-o", "-")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("report with save needs a build number", func(t *testing.T) {
		history := filepath.Join(w.root, "report-history")
		report := filepath.Join(w.builds, "1")

		_, _, err := run(t, "collect", "--report", report, "--history", history, "--save")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--build")
		assert.NoFileExists(t, trend.SnapshotPath(history, 0))

		_, _, err = run(t, "collect", "--report", report, "--history", history, "--build", "7", "--save")
		require.NoError(t, err)
		snap, err := trend.LoadSnapshot(trend.SnapshotPath(history, 7))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, 7, snap.Build)
		assert.Len(t, snap.Issues, 2)
	})

	t.Run("min priority filters issues", func(t *testing.T) {
		out, _, err := run(t, "collect", "--builds", w.builds, "--min-priority", "high")
		require.NoError(t, err)
		assert.Contains(t, out, "Bad name")
		assert.NotContains(t, out, "Unused import 'foo'")
		assert.Contains(t, out, "1 issues (HIGH 1, NORMAL 0, LOW 0)")

		_, _, err = run(t, "collect", "--builds", w.builds, "--min-priority", "urgent")
		assert.Error(t, err)
	})

	t.Run("build without report", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(w.builds, "2"), 0755))
		out, _, err := run(t, "collect", "--builds", w.builds, "--build", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "No violations report available for build #2")
	})

	t.Run("missing build", func(t *testing.T) {
		_, _, err := run(t, "collect", "--builds", w.builds, "--build", "9")
		assert.Error(t, err)
	})
}

func TestCollectCommand_MissingSourceFile(t *testing.T) {
	w := newWorkspace(t)
	w.writeSource(t, 0, 10)
	w.writeBuild(t, 1, filepath.Join(w.root, "src", "Deleted.java"), []finding{
		{category: "naming", line: 2, severity: 1, message: "gone"},
	})

	t.Run("finding is skipped and reported", func(t *testing.T) {
		out, _, err := run(t, "collect", "--builds", w.builds)
		require.NoError(t, err)
		assert.Contains(t, out, "No issues found")
		assert.Contains(t, out, "Skipped findings")
		assert.Contains(t, out, "Deleted.java:2")
	})

	t.Run("fail-fast turns skips into an error", func(t *testing.T) {
		configPath := filepath.Join(w.root, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("collect:\n  fail-fast: true\n"), 0644))

		_, _, err := run(t, "collect", "--config", configPath, "--builds", w.builds)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 findings could not be converted")
	})
}

func TestTrendCommand(t *testing.T) {
	w := newWorkspace(t)

	// Build 1 is collected and snapshotted against the original source
	w.writeSource(t, 0, 10)
	w.writeBuild(t, 1, w.source, []finding{
		{category: "unused-import", line: 5, severity: 1, message: "Unused import 'foo'"},
		{category: "naming", line: 8, severity: 0, message: "Bad name"},
	})
	_, _, err := run(t, "collect", "--builds", w.builds, "--history", w.history, "--build", "1", "--save")
	require.NoError(t, err)

	snap, err := trend.LoadSnapshot(trend.SnapshotPath(w.history, 1))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Issues, 2)

	// Two header lines push the unused import down to line 7; the naming issue is fixed
	w.writeSource(t, 2, 10)
	w.writeBuild(t, 2, w.source, []finding{
		{category: "unused-import", line: 7, severity: 1, message: "Unused import 'foo'"},
		{category: "header", line: 1, severity: 3, message: "Missing license header"},
	})

	out, _, err := run(t, "trend", "--builds", w.builds, "--history", w.history, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Trend for build #2")
	assert.Contains(t, out, "new: 1")
	assert.Contains(t, out, "fixed: 1")
	assert.Contains(t, out, "persisting: 1")
	assert.Contains(t, out, "Missing license header")
	assert.Contains(t, out, "Bad name")

	saved, err := trend.LoadSnapshot(trend.SnapshotPath(w.history, 2))
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.Build)
}

func TestTrendCommand_FirstBuild(t *testing.T) {
	w := newWorkspace(t)
	w.writeSource(t, 0, 10)
	w.writeBuild(t, 1, w.source, []finding{
		{category: "naming", line: 3, severity: 2, message: "Bad name"},
	})

	out, _, err := run(t, "trend", "--builds", w.builds, "--history", w.history)
	require.NoError(t, err)
	assert.Contains(t, out, "No previous build to compare with")
	assert.Contains(t, out, "new: 1")
}

func TestFingerprintCommand(t *testing.T) {
	w := newWorkspace(t)
	w.writeSource(t, 0, 10)

	out, _, err := run(t, "fingerprint", "--file", w.source, "--line", "5", "--category", "unused-import", "--source", "checker-A", "--severity", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Main.java:5 fingerprint ")
	assert.Contains(t, out, "identity ")
	assert.Contains(t, out, "(NORMAL)")

	_, _, err = run(t, "fingerprint", "--file", filepath.Join(w.root, "missing.java"), "--line", "1")
	assert.Error(t, err)

	_, _, err = run(t, "fingerprint", "--line", "1")
	assert.Error(t, err)
}

func TestInvalidFlags(t *testing.T) {
	newWorkspace(t)

	_, _, err := run(t, "fingerprint", "--file", "x", "--parallelism", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, _, err = run(t, "fingerprint", "--file", "x", "--encoding", "klingon-8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "unknown encoding")

	_, _, err = run(t, "fingerprint", "--file", "x", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
