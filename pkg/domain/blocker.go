package domain

import "time"

// BlockerKind distinguishes pause-point semantics: SYNC halts its task,
// ASYNC allows the task to continue while awaiting an answer.
type BlockerKind string

const (
	BlockerSync  BlockerKind = "SYNC"
	BlockerAsync BlockerKind = "ASYNC"
)

// Blocker is a persisted pause reason awaiting a human or asynchronous answer.
type Blocker struct {
	ID             string
	ProjectID      string
	Kind           BlockerKind
	Question       string
	TaskNumber     string // optional
	SessionID      string // optional
	Answer         *string
	CreatedAt      time.Time
	AnsweredAt     *time.Time
	ResumeMetadata map[string]any // opaque
}

// IsAnswered reports whether the blocker has already received an answer.
func (b *Blocker) IsAnswered() bool {
	return b.Answer != nil
}
