package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Event represents one listing harvested from an events page.
// Every field is optional; nil means the listing did not provide it.
type Event struct {
	Series        *string    `json:"series"`
	Date          *time.Time `json:"date"`
	Title         *string    `json:"title"`
	EventURL      *string    `json:"event_url"`
	StartDateTime *time.Time `json:"start_datetime"`
	EndDateTime   *time.Time `json:"end_datetime"`
	Location      *string    `json:"location"`
	PaperURL      *string    `json:"paper_url"`
	OtherInfo     *string    `json:"other_info"`
}

// HasTimeRange reports whether both the start and end timestamps are known
func (e *Event) HasTimeRange() bool {
	return e.StartDateTime != nil && e.EndDateTime != nil
}

// ID creates a deterministic identifier for an event from the fields that
// identify a talk: title, time range, event page, location and series
func (e *Event) ID() string {
	parts := []string{
		Value(e.Title),
		formatTime(e.StartDateTime),
		formatTime(e.EndDateTime),
		Value(e.EventURL),
		Value(e.Location),
		Value(e.Series),
	}

	h := sha1.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// String returns a pointer to s, or nil when s is empty
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences s, returning "" for nil
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
