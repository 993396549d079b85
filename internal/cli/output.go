package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/econcal/econ-calendars/internal/calendar"
	"github.com/econcal/econ-calendars/internal/event"
	"github.com/econcal/econ-calendars/internal/harvest"
	"github.com/econcal/econ-calendars/internal/source"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// Valid reports whether f is a known format
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatICS:
		return true
	}
	return false
}

// OutputResult contains data to be output
type OutputResult struct {
	Source source.Source  `json:"source"`
	Events []*event.Event `json:"events"`
}

type jsonResult struct {
	Source        source.Source  `json:"source"`
	EventCount    int            `json:"event_count"`
	CalendarCount int            `json:"calendar_count"`
	Events        []*event.Event `json:"events"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		_, err := w.Write(calendar.Serialize(result.Source, result.Events))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonResult{
		Source:        result.Source,
		EventCount:    len(result.Events),
		CalendarCount: calendar.Count(result.Events),
		Events:        result.Events,
	})
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range result.Events {
		title := event.Value(evt.Title)
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%-22s %s\n", when(evt), title)

		if verbose {
			details := []struct {
				label string
				value *string
			}{
				{"Series", evt.Series},
				{"Location", evt.Location},
				{"Event URL", evt.EventURL},
				{"Paper URL", evt.PaperURL},
				{"Other", evt.OtherInfo},
			}
			for _, d := range details {
				if d.value != nil {
					fmt.Fprintf(w, "       %s: %s\n", d.label, *d.value)
				}
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events, %d with a time range\n", len(result.Events), calendar.Count(result.Events))
	return nil
}

// when formats the date and time range of an event for text output
func when(evt *event.Event) string {
	switch {
	case evt.HasTimeRange():
		return evt.StartDateTime.Format("2006-01-02 15:04") + "-" + evt.EndDateTime.Format("15:04")
	case evt.Date != nil:
		return evt.Date.Format("2006-01-02")
	default:
		return "(no date)"
	}
}

// WriteRunSummary prints one line per calendar written by a run
func WriteRunSummary(w io.Writer, results []harvest.Result) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "%s: %d events, %d in calendar -> %s\n",
			res.Source.Key(), res.Extracted, res.Written, res.Path); err != nil {
			return err
		}
	}
	return nil
}
