package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/pkg/platform/audit"
	"cohort/pkg/platform/audit/store/memory"
	"cohort/pkg/platform/audit/worker"
)

func TestWorker_DrainsAndPersists(t *testing.T) {
	store := memory.New()
	publisher := audit.NewPublisher(8)
	w := worker.NewWorker(store, publisher.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	publisher.Emit(ctx, audit.Event{Action: audit.ActionResponseCompleted, Subject: "response-1"})
	publisher.Emit(ctx, audit.Event{Action: audit.ActionGatingResolved, Subject: "participant-1"})

	require.Eventually(t, func() bool {
		events, err := store.ListBySubject(context.Background(), "participant-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListBySubject(context.Background(), "response-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionResponseCompleted, events[0].Action)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
