package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		min     Level
		level   Level
		wantLog bool
	}{
		{"info at info", LevelInfo, LevelInfo, true},
		{"debug below info", LevelInfo, LevelDebug, false},
		{"error above warn", LevelWarn, LevelError, true},
		{"info below error", LevelError, LevelInfo, false},
		{"debug at debug", LevelDebug, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(tt.min, &buf)
			l.log(tt.level, "message", nil, nil)

			if logged := buf.Len() > 0; logged != tt.wantLog {
				t.Errorf("logged = %v, want %v", logged, tt.wantLog)
			}
		})
	}
}

func TestLogger_Entry(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)
	l.now = func() time.Time { return time.Date(2025, time.January, 15, 14, 0, 0, 0, time.UTC) }

	l.Error("harvest failed", Fields{"source": "macro", "events": 3}, errors.New("unexpected status code: 500"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	if entry.Timestamp != "2025-01-15T14:00:00Z" {
		t.Errorf("Timestamp = %q", entry.Timestamp)
	}
	if entry.Level != "ERROR" || entry.Message != "harvest failed" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Error != "unexpected status code: 500" {
		t.Errorf("Error = %q", entry.Error)
	}
	if entry.Fields["source"] != "macro" {
		t.Errorf("Fields = %v", entry.Fields)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("entries should be newline terminated")
	}
}

func TestLogger_UnencodableField(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Info("bad field", Fields{"ch": make(chan int)})

	if !strings.Contains(buf.String(), "marshal error") {
		t.Errorf("expected plain-text fallback, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{" Info ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(New(LevelWarn, &buf))

	Info("hidden", nil)
	Warn("shown", Fields{"source": "macro"})

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info should be filtered by the default logger")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn should reach the default logger")
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrCounter("sources.harvested")
			m.Add("events.extracted", 3)
		}()
	}
	wg.Wait()

	if got := m.Counter("sources.harvested"); got != 10 {
		t.Errorf("sources.harvested = %d, want 10", got)
	}
	if got := m.Counter("events.extracted"); got != 30 {
		t.Errorf("events.extracted = %d, want 30", got)
	}

	m.RecordTiming("source.fetch", 100*time.Millisecond)
	m.RecordTiming("source.fetch", 300*time.Millisecond)

	wantErr := errors.New("boom")
	if err := m.Time("source.total", func() error { return wantErr }); err != wantErr {
		t.Errorf("Time() error = %v, want %v", err, wantErr)
	}

	snap := m.Snapshot()
	timings := snap["timings"].(map[string]map[string]interface{})

	fetch := timings["source.fetch"]
	if fetch["count"] != 2 || fetch["average"] != "200ms" || fetch["max"] != "300ms" {
		t.Errorf("source.fetch stats = %v", fetch)
	}
	if _, ok := timings["source.total"]; !ok {
		t.Error("Time() should record a timing")
	}

	counters := snap["counters"].(map[string]int64)
	m.IncrCounter("sources.harvested")
	if counters["sources.harvested"] != 10 {
		t.Error("snapshot should be a copy")
	}
}
