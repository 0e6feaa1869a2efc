package dependency

import (
	"strings"
)

// ParseDependsOn accepts a raw depends_on value in either of the two forms
// tolerated by upstream callers: a bracketed list "[1,2]" or a bare
// comma-separated list "1,2". The canonical persisted form is a clean
// []string (spec.md §9 leaves the canonical form as an implementation
// choice); this helper exists purely to accept both input syntaxes at the
// boundary (CLI, config, legacy text columns) before tasks reach Build.
func ParseDependsOn(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"'`)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
