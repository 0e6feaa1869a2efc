package langprobe_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/langprobe"
)

func TestProbe_Go(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))

	det, ok := langprobe.Probe(dir)
	require.True(t, ok)
	assert.Equal(t, langprobe.LanguageGo, det.Language)
	assert.Equal(t, 1.0, det.Confidence)
}

func TestProbe_PythonMultipleMarkers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(""), 0o644))

	det, ok := langprobe.Probe(dir)
	require.True(t, ok)
	assert.Equal(t, langprobe.LanguagePython, det.Language)
	assert.InDelta(t, 1.0, det.Confidence, 0.01)
}

func TestProbe_TypeScriptPromotion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsconfig.json"), []byte("{}"), 0o644))

	det, ok := langprobe.Probe(dir)
	require.True(t, ok)
	assert.Equal(t, langprobe.LanguageTS, det.Language)
}

func TestProbe_NoMarkers(t *testing.T) {
	dir := t.TempDir()
	_, ok := langprobe.Probe(dir)
	assert.False(t, ok)
}

func TestParseGoTest(t *testing.T) {
	output := "--- PASS: TestA\n--- PASS: TestB\n--- FAIL: TestC\ncoverage: 82.5% of statements\n"
	out := langprobe.ParseGoTest(output)
	assert.Equal(t, 2, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 3, out.Total)
	require.NotNil(t, out.Coverage)
	assert.InDelta(t, 82.5, *out.Coverage, 0.01)
}

func TestParsePytest(t *testing.T) {
	output := "5 passed, 1 failed, 2 skipped in 1.1s\nTOTAL                     100     15    85%\n"
	out := langprobe.ParsePytest(output)
	assert.Equal(t, 5, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 2, out.Skipped)
	require.NotNil(t, out.Coverage)
	assert.InDelta(t, 85, *out.Coverage, 0.01)
}

func TestParseJest(t *testing.T) {
	output := "Tests:       1 failed, 9 passed, 10 total\nAll files | 91.2 |\n"
	out := langprobe.ParseJest(output)
	assert.Equal(t, 9, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 10, out.Total)
	require.NotNil(t, out.Coverage)
}

func TestParseRSpec(t *testing.T) {
	output := "10 examples, 2 failures, 1 pending\n"
	out := langprobe.ParseRSpec(output)
	assert.Equal(t, 10, out.Total)
	assert.Equal(t, 2, out.Failed)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 7, out.Passed)
}

func TestScanForSkips_Go(t *testing.T) {
	src := "func TestFoo(t *testing.T) {\n\tt.Skip(\"flaky\")\n}\n"
	violations := langprobe.ScanForSkips(langprobe.LanguageGo, "foo_test.go", src)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "foo_test.go:2")
}

func TestScanForSkips_Python(t *testing.T) {
	src := "@pytest.mark.skip(reason=\"wip\")\ndef test_x():\n    pass\n"
	violations := langprobe.ScanForSkips(langprobe.LanguagePython, "test_x.py", src)
	require.Len(t, violations, 1)
}

func TestDefaultCommand(t *testing.T) {
	assert.Equal(t, []string{"go", "test", "./..."}, langprobe.DefaultCommand(langprobe.LanguageGo))
	assert.Nil(t, langprobe.DefaultCommand(langprobe.Language("cobol")))
}
