package tactical_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/tactical"
)

func TestMatch_FileAlreadyExists(t *testing.T) {
	// S4 — file-conflict intervention.
	m := tactical.NewMatcher()
	p := m.Match("FileExistsError: File already exists: src/Button.tsx")
	require.NotNil(t, p)
	assert.Equal(t, "file_already_exists", p.ID)
	assert.Equal(t, tactical.StrategyConvertCreateToEdit, p.Strategy)
}

func TestMatch_FileNotFound(t *testing.T) {
	m := tactical.NewMatcher()
	p := m.Match("FileNotFoundError: no such file or directory")
	require.NotNil(t, p)
	assert.Equal(t, "file_not_found", p.ID)
	assert.Equal(t, tactical.StrategyRetryWithContext, p.Strategy)
}

func TestMatch_EmptyInput(t *testing.T) {
	m := tactical.NewMatcher()
	assert.Nil(t, m.Match(""))
}

func TestMatchWithDiagnostics(t *testing.T) {
	m := tactical.NewMatcher()
	p, diag := m.MatchWithDiagnostics("File already exists: x.go")
	require.NotNil(t, p)
	assert.Equal(t, "file_already_exists", diag.MatchedPattern)
	assert.False(t, diag.ErrorMessageEmpty)
	assert.GreaterOrEqual(t, diag.PatternsChecked, 1)
}

func TestAdd_InvalidRegexSkipped(t *testing.T) {
	m := tactical.NewMatcher()
	err := m.Add(&tactical.Pattern{ID: "bad", ErrorRegex: "(unclosed"})
	require.Error(t, err)
	assert.Nil(t, m.Match("anything (unclosed"))
}

func TestExtractFilePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"FileExistsError: File already exists: src/Button.tsx", "src/Button.tsx"},
		{"mkdir failed, directory: 'build/output'", "build/output"},
		{"cannot modify non-existent file: pkg/foo.go", "pkg/foo.go"},
		{"no path information here", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, tactical.ExtractFilePath(c.in))
	}
}
