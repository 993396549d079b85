package calendar

import (
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/econcal/econ-calendars/internal/event"
	"github.com/econcal/econ-calendars/internal/source"
)

const (
	ProductID    = "-//econ-calendars//Economics Events//EN"
	PublishedTTL = "PT1H"

	fallbackUIDHost = "econ-calendars"
)

// descriptionFields lists the optional fields shown in DESCRIPTION, in order
var descriptionFields = []struct {
	label string
	value func(*event.Event) *string
}{
	{"Event URL", func(e *event.Event) *string { return e.EventURL }},
	{"Paper URL", func(e *event.Event) *string { return e.PaperURL }},
	{"Other Info", func(e *event.Event) *string { return e.OtherInfo }},
}

// Serialize builds the calendar document for src. Events lacking a start or
// end time are skipped.
func Serialize(src source.Source, events []*event.Event) []byte {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(src.Name)
	cal.SetXPublishedTTL(PublishedTTL)

	host := src.Host()
	if host == "" {
		host = fallbackUIDHost
	}

	for _, evt := range events {
		if evt == nil || !evt.HasTimeRange() {
			continue
		}

		vevent := cal.AddEvent(evt.ID() + "@" + host)
		vevent.SetSummary(event.Value(evt.Title))
		vevent.SetDtStampTime(*evt.StartDateTime)
		vevent.SetStartAt(*evt.StartDateTime)
		vevent.SetEndAt(*evt.EndDateTime)

		if evt.Location != nil {
			vevent.SetLocation(*evt.Location)
		}

		if description := Description(evt); description != "" {
			vevent.SetDescription(description)
		}
	}

	return []byte(cal.Serialize(ical.WithNewLineWindows))
}

// Description renders the "<label>: <value>" lines for the fields an event has
func Description(evt *event.Event) string {
	lines := make([]string, 0, len(descriptionFields))
	for _, field := range descriptionFields {
		if v := field.value(evt); v != nil {
			lines = append(lines, field.label+": "+*v)
		}
	}
	return strings.Join(lines, "\n")
}

// Count returns how many of events will appear in a serialized calendar
func Count(events []*event.Event) int {
	n := 0
	for _, evt := range events {
		if evt != nil && evt.HasTimeRange() {
			n++
		}
	}
	return n
}
