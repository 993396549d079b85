package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/econcal/econ-calendars/internal/source"
)

func TestFetchEvents(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantError  bool
		wantEvents int
	}{
		{
			name: "successful fetch with events",
			body: `<html><body>
				<article class="node-teaser--event"><h3 class="node-teaser__heading"><a href="/a"><span>One</span></a></h3></article>
				<article class="node-teaser--event"><h3 class="node-teaser__heading"><a href="/b"><span>Two</span></a></h3></article>
			</body></html>`,
			statusCode: http.StatusOK,
			wantEvents: 2,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:       "empty page",
			body:       "<html><body><p>No events</p></body></html>",
			statusCode: http.StatusOK,
			wantEvents: 0,
		},
		{
			name:       "malformed listing",
			body:       `<article class="node-teaser--event"><div class="node-teaser__event-start-date">tomorrow</div></article>`,
			statusCode: http.StatusOK,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "econ-calendars") {
					t.Errorf("User-Agent = %q, should contain 'econ-calendars'", userAgent)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := New()
			events, err := s.FetchEvents(context.Background(), source.Source{ID: "test", URL: server.URL})

			if tt.wantError {
				if err == nil {
					t.Error("FetchEvents() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchEvents() unexpected error: %v", err)
			}
			if len(events) != tt.wantEvents {
				t.Errorf("FetchEvents() returned %d events, want %d", len(events), tt.wantEvents)
			}
		})
	}
}

func TestFetch_Options(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "custom-agent" {
			t.Errorf("User-Agent = %q, want custom-agent", ua)
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	s := New(WithUserAgent("custom-agent"), WithTimeout(2*time.Second))
	if s.client.Timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s", s.client.Timeout)
	}

	body, err := s.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if body != "<html></html>" {
		t.Errorf("Fetch() body = %q", body)
	}
}

func TestFetch_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Fetch(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestFetchEvents_CustomParser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<article class="node-teaser--event"><h3 class="node-teaser__heading"><a href="/talk"><span>Talk</span></a></h3></article>`))
	}))
	defer server.Close()

	s := New(WithParser(NewParser("https://econ.example.edu", time.UTC)))
	events, err := s.FetchEvents(context.Background(), source.Source{ID: "x", URL: server.URL})
	if err != nil {
		t.Fatalf("FetchEvents() unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].EventURL == nil || *events[0].EventURL != "https://econ.example.edu/talk" {
		t.Errorf("unexpected events: %+v", events)
	}
}
