package website

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/econcal/econ-calendars/internal/source"
)

const (
	TimeLayout = "2006-01-02 15:04:05"

	googleCalendarBase = "https://calendar.google.com/calendar/r?cid="
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

// Link is one subscription link shown next to a calendar
type Link struct {
	Label string
	Alt   string
	Icon  string
	Class string
	// Href is trusted: webcal:// would otherwise be rejected by html/template
	Href template.URL
}

// Row is one calendar entry on the index page
type Row struct {
	Name      string
	SourceURL string
	Links     []Link
}

type page struct {
	Rows    []Row
	Updated string
}

// linkKinds lists the links rendered for every calendar, in display order
var linkKinds = []struct {
	label string
	alt   string
	icon  string
	class string
	href  func(icsURL string) string
}{
	{"Apple Calendar", "iCal", "/icons/apple.svg", "icon-circle-link", WebcalURL},
	{"Google Calendar", "Gcal", "/icons/gcal.svg", "icon-circle-link", GoogleCalendarURL},
	{"WebCal ICS URL", "WebCal ICS URL", "/icons/link.svg", "icon-circle-link copy-link-btn", WebcalURL},
	{"Download ICS", "ICS", "/icons/download.svg", "icon-circle-link", func(u string) string { return u }},
}

// WebcalURL swaps the http(s) scheme of a public calendar URL for webcal
func WebcalURL(icsURL string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(icsURL, scheme) {
			return "webcal://" + icsURL[len(scheme):]
		}
	}
	if strings.HasPrefix(icsURL, "webcal://") {
		return icsURL
	}
	return "webcal://" + icsURL
}

// GoogleCalendarURL builds the "add by URL" deep link for Google Calendar
func GoogleCalendarURL(icsURL string) string {
	return googleCalendarBase + WebcalURL(icsURL)
}

// CalendarURL returns the public URL of a source's calendar file
func CalendarURL(publicURL string, src source.Source) string {
	if !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}
	return publicURL + url.PathEscape(src.FileName())
}

// Links returns the subscription links for one calendar file
func Links(icsURL string) []Link {
	links := make([]Link, 0, len(linkKinds))
	for _, kind := range linkKinds {
		links = append(links, Link{
			Label: kind.label,
			Alt:   kind.alt,
			Icon:  kind.icon,
			Class: kind.class,
			Href:  template.URL(kind.href(icsURL)),
		})
	}
	return links
}

// Renderer renders the index page from a template
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer loads the template at path, or the built-in one when path is empty
func NewRenderer(path string) (*Renderer, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if path == "" {
		tmpl, err = template.ParseFS(templateFS, "templates/index.html.tmpl")
	} else {
		tmpl, err = template.New(filepath.Base(path)).ParseFiles(path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the index page listing sources in the given order
func (r *Renderer) Render(w io.Writer, publicURL string, sources []source.Source, now time.Time) error {
	p := page{
		Rows:    make([]Row, 0, len(sources)),
		Updated: now.Format(TimeLayout),
	}
	for _, src := range sources {
		name := src.Name
		if name == "" {
			name = src.Key()
		}
		p.Rows = append(p.Rows, Row{
			Name:      name,
			SourceURL: src.URL,
			Links:     Links(CalendarURL(publicURL, src)),
		})
	}

	if err := r.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	return nil
}
