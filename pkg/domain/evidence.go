package domain

// TestOutcome summarizes a single test-suite run as parsed by pkg/langprobe.
type TestOutcome struct {
	Total      int
	Passed     int
	Failed     int
	Skipped    int
	PassRate   float64 // 0..100
	Coverage   *float64 // nil when no coverage data is available
	RawOutput  string
}

// Evidence is the verification envelope produced by pkg/evidence.
type Evidence struct {
	TestOutcome     TestOutcome
	SkipViolations  []string
	QualityMetrics  map[string]float64
	AgentID         string
	TaskDescription string
	Language        string
	Framework       string
	Verified        bool
	Errors          []string
}
