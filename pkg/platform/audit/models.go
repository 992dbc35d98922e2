// Package audit captures key portal actions for compliance review. Events are
// emitted from domain logic onto a channel, drained by a worker, and persisted
// through a Store; keep Event transport-agnostic so stores and sinks can fan
// out.
package audit

import (
	"context"
	"time"
)

// Action names the portal operations worth an audit trail.
type Action string

const (
	ActionFormCreated       Action = "form_created"
	ActionFormRevised       Action = "form_revised"
	ActionResponseSubmitted Action = "response_submitted"
	ActionResponseCompleted Action = "response_completed"
	ActionGatingResolved    Action = "gating_resolved"
)

// Event is one audited action. Subject identifies the affected entity (form or
// response id), Actor the authenticated subject that caused it.
type Event struct {
	Timestamp time.Time
	Action    Action
	Subject   string
	Actor     string
	Detail    string
	RequestID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is the non-blocking front door for emitting events. A nil
// publisher drops everything, which keeps audit optional in tests.
type Publisher struct {
	inbox chan Event
}

// NewPublisher allocates a buffered event channel. Size the buffer for burst
// absorption; the worker drains continuously.
func NewPublisher(buffer int) *Publisher {
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit stamps and enqueues an event. Emission never blocks request handling:
// if the buffer is full the event is dropped.
func (p *Publisher) Emit(_ context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
	}
}

// Inbox exposes the channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	if p == nil {
		return nil
	}
	return p.inbox
}
