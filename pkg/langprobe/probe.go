// Package langprobe implements the LanguageProbe and TestRunner: marker-file
// based language detection, command selection, and test execution with
// output parsing. Grounded on the marker-weight table in spec.md §4.9 and,
// for process execution, on lprior-repo-open-swarm's
// internal/temporal/activities_shell.go use of github.com/bitfield/script
// for the "run a command, capture its output" shape.
package langprobe

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Language is a detected project language.
type Language string

const (
	LanguagePython Language = "python"
	LanguageJS     Language = "javascript"
	LanguageTS     Language = "typescript"
	LanguageGo     Language = "go"
	LanguageRust   Language = "rust"
	LanguageJava   Language = "java"
	LanguageRuby   Language = "ruby"
	LanguageCSharp Language = "csharp"
)

// marker is one (file, weight) pair contributing to a language's score.
type marker struct {
	file   string
	weight float64
}

var markerTable = map[Language][]marker{
	LanguagePython: {
		{"pyproject.toml", 1.0},
		{"pytest.ini", 1.0},
		{"setup.py", 0.9},
		{"requirements.txt", 0.7},
	},
	LanguageGo:   {{"go.mod", 1.0}},
	LanguageRust: {{"Cargo.toml", 1.0}},
	LanguageJava: {{"pom.xml", 1.0}, {"build.gradle", 1.0}},
}

// Detection is the result of probing a directory.
type Detection struct {
	Language   Language
	Confidence float64
	Markers    []string // matched marker file names, for diagnostics
}

// Probe ranks candidate languages by presence of marker files under dir
// and returns the highest-confidence Detection. Confidence is the max
// matched marker's weight plus 0.1 per additional matched marker, capped
// at 1.0. Returns ("", 0, nil, false) when no markers matched.
func Probe(dir string) (Detection, bool) {
	var best Detection
	found := false

	for lang, markers := range markerTable {
		var matched []string
		maxWeight := 0.0
		for _, m := range markers {
			if fileExists(filepath.Join(dir, m.file)) {
				matched = append(matched, m.file)
				if m.weight > maxWeight {
					maxWeight = m.weight
				}
			}
		}
		if len(matched) == 0 {
			continue
		}
		confidence := maxWeight + 0.1*float64(len(matched)-1)
		if confidence > 1.0 {
			confidence = 1.0
		}
		if !found || confidence > best.Confidence {
			sort.Strings(matched)
			best = Detection{Language: lang, Confidence: confidence, Markers: matched}
			found = true
		}
	}

	if js, ok := probeJS(dir); ok && (!found || js.Confidence >= best.Confidence) {
		best = js
		found = true
	}
	if rb, ok := probeRuby(dir); ok && (!found || rb.Confidence >= best.Confidence) {
		best = rb
		found = true
	}
	if cs, ok := probeCSharp(dir); ok && (!found || cs.Confidence >= best.Confidence) {
		best = cs
		found = true
	}

	return best, found
}

// probeJS detects package.json by its presence alone (its dependencies
// are not inspected, so no test-framework check is made) and promotes the result to TypeScript when tsconfig.json
// is present alongside it.
func probeJS(dir string) (Detection, bool) {
	pkgPath := filepath.Join(dir, "package.json")
	if !fileExists(pkgPath) {
		return Detection{}, false
	}
	lang := LanguageJS
	markers := []string{"package.json"}
	confidence := 0.8
	if fileExists(filepath.Join(dir, "tsconfig.json")) {
		lang = LanguageTS
		markers = append(markers, "tsconfig.json")
		confidence = 0.9
	}
	return Detection{Language: lang, Confidence: confidence, Markers: markers}, true
}

func probeRuby(dir string) (Detection, bool) {
	if !fileExists(filepath.Join(dir, "Gemfile")) {
		return Detection{}, false
	}
	confidence := 0.6
	markers := []string{"Gemfile"}
	if content, err := os.ReadFile(filepath.Join(dir, "Gemfile")); err == nil {
		if strings.Contains(string(content), "rspec") {
			confidence = 0.9
		}
	}
	return Detection{Language: LanguageRuby, Confidence: confidence, Markers: markers}, true
}

func probeCSharp(dir string) (Detection, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Detection{}, false
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".csproj" {
			return Detection{Language: LanguageCSharp, Confidence: 1.0, Markers: []string{e.Name()}}, true
		}
	}
	return Detection{}, false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
