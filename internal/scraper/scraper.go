package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/econcal/econ-calendars/internal/event"
	"github.com/econcal/econ-calendars/internal/source"
)

const (
	UserAgent = "econ-calendars/1.0 (github.com/econcal/econ-calendars)"
	Timeout   = 15 * time.Second
)

// Scraper handles fetching and parsing events pages
type Scraper struct {
	client    *http.Client
	userAgent string
	parser    *Parser
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

// WithParser replaces the default parser
func WithParser(p *Parser) Option {
	return func(s *Scraper) {
		if p != nil {
			s.parser = p
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: UserAgent,
		parser:    DefaultParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads the page at url. Any status other than 200 is an error.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return string(body), nil
}

// FetchEvents fetches the source's page and extracts its events
func (s *Scraper) FetchEvents(ctx context.Context, src source.Source) ([]*event.Event, error) {
	markup, err := s.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseString(markup)
}
