package resolve

import "fmt"

// EventStatus is the state of one file's batch within a resolution run.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventWorking  EventStatus = "working"
	EventComplete EventStatus = "complete"
	EventFailed   EventStatus = "failed"
)

// Event is emitted as per-file batches move through resolution.
type Event struct {
	FilePath string
	Status   EventStatus
	Message  string
}

// ProgressReporter fans resolution events out through a buffered channel.
type ProgressReporter struct {
	ch chan Event
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan Event, 64)}
}

// Emit sends an event without blocking. If the channel is full, the event is
// silently dropped.
func (pr *ProgressReporter) Emit(event Event) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming events.
func (pr *ProgressReporter) Subscribe() <-chan Event {
	return pr.ch
}

// Close closes the event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatEvent formats an Event as a human-readable status line.
func FormatEvent(event Event) string {
	switch event.Status {
	case EventPending:
		return fmt.Sprintf("  ○ %s (pending)", event.FilePath)
	case EventWorking:
		return fmt.Sprintf("  ● %s...", event.FilePath)
	case EventComplete:
		return fmt.Sprintf("  ✓ %s resolved", event.FilePath)
	case EventFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.FilePath, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.FilePath)
	}
}
