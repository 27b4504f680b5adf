package model

import (
	"strings"
	"time"
)

// FreeSlotText is substituted for events that arrive without a summary.
const FreeSlotText = "free slot"

// Event is a normalized calendar event as delivered by an event source.
// Start and End are local wall-clock times; timezone normalization is the
// source's responsibility. Start <= End is not guaranteed and downstream
// code must tolerate zero or negative durations.
type Event struct {
	Summary     string
	Description string

	Start time.Time
	End   time.Time
}

// Text returns the printable text for the event: the summary, followed by
// the description on its own line when one is present. A missing summary
// falls back to FreeSlotText.
func (e Event) Text() string {
	summary := strings.TrimSpace(e.Summary)
	if summary == "" {
		summary = FreeSlotText
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return summary
	}
	return summary + "\n" + desc
}
