package service

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter — surface notifications without a runtime import
// ─────────────────────────────────────────────────────────────

// EventEmitter pushes events toward the drawing surface. The app layer
// implements it over wailsRuntime.EventsEmit; services depend only on this
// interface, so they run headless in tests and in the standalone agent.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter records every emission so tests can assert on event names
// and payloads.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent is one recorded emission.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}
