// Package worker drains the in-process audit inbox into the outbox store,
// keeping the persistence hop for form and gating events off the request path.
package worker

import (
	"context"

	audit "cohort/pkg/platform/audit"
)

// Worker consumes audit events from the publisher's inbox channel and appends
// them to the outbox.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func NewWorker(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run consumes events until ctx is cancelled. An append failure stops the
// worker; the caller decides whether losing the audit trail is fatal.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
