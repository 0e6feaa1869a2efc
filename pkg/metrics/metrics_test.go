package metrics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge/conductor/pkg/metrics"
)

func TestPublisher_Publish_DoesNotPanic(t *testing.T) {
	p := metrics.NewPublisher()
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), "1.1", "dispatch.completed", nil)
		p.Publish(context.Background(), "1.1", "blocker.raised", nil)
	})
}

func TestRecordTokenUsage_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.RecordTokenUsage(100, 50)
	})
}
