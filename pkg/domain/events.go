package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPlanBuilt EventType = "plan_built"
	EventCallStart EventType = "call_start"
	EventCallDone  EventType = "call_done"
	EventList      EventType = "list_children"
	EventRetry     EventType = "retry"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PlanEvent reports a finished planning pass.
type PlanEvent struct {
	EventBase
	Calls int `json:"calls"`
	Nodes int `json:"nodes"`
}

// CallEvent reports one plan entry being applied.
type CallEvent struct {
	EventBase
	Entry    int           `json:"entry"`
	Path     Path          `json:"path"`
	ParentID string        `json:"parent_id"`
	Units    int           `json:"units"`
	Created  []string      `json:"created,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ListEvent reports one page fetched while discovering remote children.
type ListEvent struct {
	EventBase
	ParentID string `json:"parent_id"`
	Cursor   string `json:"cursor,omitempty"`
	Children int    `json:"children"`
	Err      error  `json:"-"`
}

// RetryEvent reports a transient failure about to be retried.
type RetryEvent struct {
	EventBase
	Op      string        `json:"op"`
	Attempt int           `json:"attempt"`
	Delay   time.Duration `json:"delay"`
	Err     error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnPlanBuilt func(context.Context, *PlanEvent)
	OnCallStart func(context.Context, *CallEvent)
	OnCallDone  func(context.Context, *CallEvent)
	OnList      func(context.Context, *ListEvent)
	OnRetry     func(context.Context, *RetryEvent)
}
