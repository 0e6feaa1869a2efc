package domain

// Issue is a feature-level unit decomposed into 3-8 linearly-dependent Tasks.
type Issue struct {
	ProjectID    string
	IssueNumber  string // hierarchical, e.g. "2.1"
	Title        string
	Description  string
	Priority     int
	WorkflowStep string
}
