package langprobe

import (
	"regexp"
	"strconv"

	"github.com/taskforge/conductor/pkg/domain"
)

// outcomeParser extracts a TestOutcome from a test runner's raw output.
type outcomeParser func(output string) domain.TestOutcome

var (
	pytestSummary  = regexp.MustCompile(`(\d+) passed(?:, (\d+) failed)?(?:, (\d+) skipped)?`)
	pytestCoverage = regexp.MustCompile(`TOTAL\s+\d+\s+\d+\s+(\d+)%`)

	jestSummary  = regexp.MustCompile(`Tests:\s+(?:(\d+) failed, )?(?:(\d+) skipped, )?(\d+) passed, (\d+) total`)
	jestCoverage = regexp.MustCompile(`All files\s*\|\s*([\d.]+)`)

	goSummary  = regexp.MustCompile(`--- (PASS|FAIL|SKIP): `)
	goCoverage = regexp.MustCompile(`coverage:\s+([\d.]+)% of statements`)

	cargoSummary = regexp.MustCompile(`test result: \w+\. (\d+) passed; (\d+) failed; (\d+) ignored`)

	mavenSummary = regexp.MustCompile(`Tests run:\s*(\d+),\s*Failures:\s*(\d+),\s*Errors:\s*(\d+),\s*Skipped:\s*(\d+)`)

	rspecSummary = regexp.MustCompile(`(\d+) examples?, (\d+) failures?(?:, (\d+) pending)?`)

	dotnetSummary = regexp.MustCompile(`Passed:\s*(\d+),\s*Failed:\s*(\d+),\s*Skipped:\s*(\d+),\s*Total:\s*(\d+)`)
)

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func atofOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func computePassRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(passed) / float64(total)
}

// ParsePytest extracts a TestOutcome from pytest's summary line and, if
// present, coverage.py's "TOTAL" report line.
func ParsePytest(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := pytestSummary.FindStringSubmatch(output); m != nil {
		out.Passed = atoiOr(m[1], 0)
		out.Failed = atoiOr(m[2], 0)
		out.Skipped = atoiOr(m[3], 0)
		out.Total = out.Passed + out.Failed + out.Skipped
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	if m := pytestCoverage.FindStringSubmatch(output); m != nil {
		cov := atofOr(m[1], 0)
		out.Coverage = &cov
	}
	return out
}

// ParseJest extracts a TestOutcome from jest's "Tests:" summary line and
// istanbul's "All files" coverage row.
func ParseJest(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := jestSummary.FindStringSubmatch(output); m != nil {
		out.Failed = atoiOr(m[1], 0)
		out.Skipped = atoiOr(m[2], 0)
		out.Passed = atoiOr(m[3], 0)
		out.Total = atoiOr(m[4], out.Passed+out.Failed+out.Skipped)
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	if m := jestCoverage.FindStringSubmatch(output); m != nil {
		cov := atofOr(m[1], 0)
		out.Coverage = &cov
	}
	return out
}

// ParseGoTest extracts a TestOutcome from `go test -v` output by counting
// "--- PASS/FAIL/SKIP:" lines and go test -cover's "coverage:" line.
func ParseGoTest(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	for _, m := range goSummary.FindAllStringSubmatch(output, -1) {
		switch m[1] {
		case "PASS":
			out.Passed++
		case "FAIL":
			out.Failed++
		case "SKIP":
			out.Skipped++
		}
	}
	out.Total = out.Passed + out.Failed + out.Skipped
	out.PassRate = computePassRate(out.Passed, out.Total)
	if m := goCoverage.FindStringSubmatch(output); m != nil {
		cov := atofOr(m[1], 0)
		out.Coverage = &cov
	}
	return out
}

// ParseCargoTest extracts a TestOutcome from `cargo test`'s "test result:" line.
func ParseCargoTest(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := cargoSummary.FindStringSubmatch(output); m != nil {
		out.Passed = atoiOr(m[1], 0)
		out.Failed = atoiOr(m[2], 0)
		out.Skipped = atoiOr(m[3], 0)
		out.Total = out.Passed + out.Failed + out.Skipped
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	return out
}

// ParseMaven extracts a TestOutcome from Surefire's "Tests run:" summary.
func ParseMaven(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := mavenSummary.FindStringSubmatch(output); m != nil {
		total := atoiOr(m[1], 0)
		failures := atoiOr(m[2], 0)
		errors := atoiOr(m[3], 0)
		skipped := atoiOr(m[4], 0)
		out.Total = total
		out.Skipped = skipped
		out.Failed = failures + errors
		out.Passed = total - out.Failed - skipped
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	return out
}

// ParseRSpec extracts a TestOutcome from rspec's "N examples, M failures" line.
func ParseRSpec(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := rspecSummary.FindStringSubmatch(output); m != nil {
		out.Total = atoiOr(m[1], 0)
		out.Failed = atoiOr(m[2], 0)
		out.Skipped = atoiOr(m[3], 0)
		out.Passed = out.Total - out.Failed - out.Skipped
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	return out
}

// ParseDotnetTest extracts a TestOutcome from `dotnet test`'s summary line.
func ParseDotnetTest(output string) domain.TestOutcome {
	output = stripANSI(output)
	out := domain.TestOutcome{RawOutput: output}
	if m := dotnetSummary.FindStringSubmatch(output); m != nil {
		out.Passed = atoiOr(m[1], 0)
		out.Failed = atoiOr(m[2], 0)
		out.Skipped = atoiOr(m[3], 0)
		out.Total = atoiOr(m[4], out.Passed+out.Failed+out.Skipped)
		out.PassRate = computePassRate(out.Passed, out.Total)
	}
	return out
}

// parserByLanguage selects the outcome parser for a detected language.
var parserByLanguage = map[Language]outcomeParser{
	LanguagePython: ParsePytest,
	LanguageJS:     ParseJest,
	LanguageTS:     ParseJest,
	LanguageGo:     ParseGoTest,
	LanguageRust:   ParseCargoTest,
	LanguageJava:   ParseMaven,
	LanguageRuby:   ParseRSpec,
	LanguageCSharp: ParseDotnetTest,
}

// ParseOutcome parses output with the parser registered for lang. Unknown
// languages return a zero-value TestOutcome carrying only RawOutput.
func ParseOutcome(lang Language, output string) domain.TestOutcome {
	if parser, ok := parserByLanguage[lang]; ok {
		return parser(output)
	}
	return domain.TestOutcome{RawOutput: output}
}
