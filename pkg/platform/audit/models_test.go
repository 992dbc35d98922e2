package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/pkg/platform/audit"
)

func TestPublisher_EmitStampsTimestamp(t *testing.T) {
	p := audit.NewPublisher(1)
	p.Emit(context.Background(), audit.Event{Action: audit.ActionFormCreated, Subject: "form-1"})

	select {
	case event := <-p.Inbox():
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, audit.ActionFormCreated, event.Action)
	default:
		require.Fail(t, "expected an event")
	}
}

func TestPublisher_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	p := audit.NewPublisher(1)
	p.Emit(context.Background(), audit.Event{Subject: "first"})
	p.Emit(context.Background(), audit.Event{Subject: "dropped"})

	event := <-p.Inbox()
	assert.Equal(t, "first", event.Subject)
	select {
	case extra := <-p.Inbox():
		require.Failf(t, "unexpected event", "got %s", extra.Subject)
	default:
	}
}

func TestPublisher_NilIsSafe(t *testing.T) {
	var p *audit.Publisher
	p.Emit(context.Background(), audit.Event{Subject: "ignored"})
	assert.Nil(t, p.Inbox())
}
