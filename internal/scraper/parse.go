package scraper

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/PuerkitoBio/goquery"
	"github.com/econcal/econ-calendars/internal/event"
	"golang.org/x/net/html"
)

const (
	// SiteOrigin is prefixed to links that start with "/"
	SiteOrigin = "https://economics.yale.edu"
	// CivilTimezone is the zone the site's wall-clock times are written in
	CivilTimezone = "America/New_York"

	dateLayout = "Jan 2 2006"
	timeLayout = "3:04 PM"

	timePrefix         = "Time:"
	timeSeparator      = "—"
	otherInfoSeparator = " | "
	jointWithLabel     = "Joint with: "
)

// Selectors for the publisher's teaser layout
const (
	selArticle      = "article.node-teaser--event"
	selSeries       = "div.node-teaser__event-series"
	selDate         = "div.node-teaser__event-start-date"
	selTitle        = ".node-teaser__heading a span"
	selEventLink    = ".node-teaser__heading a"
	selTime         = "div.node-teaser__event-date-additional"
	selLocation     = "div.node-teaser__address-label"
	selPaper        = "div.node-teaser__event-paper"
	selNotes        = "div.node-teaser__notes"
	selJointAuthors = "div.node-teaser__joint-authors"
)

var jointWithPattern = regexp.MustCompile(`(?i)joint with:\s*`)

// Parser extracts events from a page of event teasers
type Parser struct {
	Origin   string
	Location *time.Location
}

// NewParser creates a Parser resolving links against origin and reading
// times in loc. A nil loc means UTC.
func NewParser(origin string, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		Origin:   strings.TrimSuffix(origin, "/"),
		Location: loc,
	}
}

// DefaultParser returns a Parser for the economics department site
func DefaultParser() *Parser {
	loc, err := time.LoadLocation(CivilTimezone)
	if err != nil {
		// tzdata is embedded, so this only happens with a broken build
		panic(fmt.Sprintf("loading %s: %v", CivilTimezone, err))
	}
	return NewParser(SiteOrigin, loc)
}

// Extract parses markup with the default parser
func Extract(markup string) ([]*event.Event, error) {
	return DefaultParser().ParseString(markup)
}

// ParseString parses an HTML document held in a string
func (p *Parser) ParseString(markup string) ([]*event.Event, error) {
	return p.Parse(strings.NewReader(markup))
}

// Parse extracts one Event per listing, in document order. A document without
// listings yields an empty slice. The first malformed listing aborts the parse.
func (p *Parser) Parse(r io.Reader) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	events := make([]*event.Event, 0)
	var parseErr error

	doc.Find(selArticle).EachWithBreak(func(i int, article *goquery.Selection) bool {
		evt, err := p.parseArticle(article)
		if err != nil {
			var mf *MalformedFieldError
			if errors.As(err, &mf) {
				mf.Article = i
			}
			parseErr = err
			return false
		}
		events = append(events, evt)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return events, nil
}

// parseArticle builds one record from a listing node
func (p *Parser) parseArticle(article *goquery.Selection) (*event.Event, error) {
	date, err := p.date(article)
	if err != nil {
		return nil, err
	}

	start, end, err := p.timeRange(article, date)
	if err != nil {
		return nil, err
	}

	return &event.Event{
		Series:        series(article),
		Date:          date,
		Title:         title(article),
		EventURL:      p.eventURL(article),
		StartDateTime: start,
		EndDateTime:   end,
		Location:      location(article),
		PaperURL:      p.paperURL(article),
		OtherInfo:     otherInfo(article),
	}, nil
}

func series(article *goquery.Selection) *string {
	return event.String(textOf(article, selSeries))
}

func title(article *goquery.Selection) *string {
	return event.String(textOf(article, selTitle))
}

func location(article *goquery.Selection) *string {
	return event.String(textOf(article, selLocation))
}

func (p *Parser) eventURL(article *goquery.Selection) *string {
	return p.href(first(article, selEventLink))
}

func (p *Parser) paperURL(article *goquery.Selection) *string {
	block := first(article, selPaper)
	if block == nil {
		return nil
	}
	return p.href(first(block, "a"))
}

// date reads the listing's start date, e.g. "Jan 15 2025". The label is often
// split across elements, so its text nodes are joined with spaces.
func (p *Parser) date(article *goquery.Selection) (*time.Time, error) {
	node := first(article, selDate)
	if node == nil {
		return nil, nil
	}

	text := spacedText(node)
	d, err := time.ParseInLocation(dateLayout, text, p.Location)
	if err != nil {
		return nil, malformed("date", text, err)
	}
	return &d, nil
}

// timeRange reads a label like "Time: 2:00 PM—3:30 PM" and anchors both
// ends on date. Equal start and end are allowed.
func (p *Parser) timeRange(article *goquery.Selection, date *time.Time) (*time.Time, *time.Time, error) {
	node := first(article, selTime)
	if node == nil {
		return nil, nil, nil
	}

	raw := cleanText(node)
	text := strings.TrimSpace(strings.TrimPrefix(raw, timePrefix))

	sides := strings.Split(text, timeSeparator)
	if len(sides) != 2 {
		return nil, nil, malformed("time range", raw, fmt.Errorf("expected exactly one %q separator", timeSeparator))
	}
	if date == nil {
		return nil, nil, malformed("time range", raw, errors.New("time range without a date"))
	}

	start, err := p.clockTime(*date, sides[0])
	if err != nil {
		return nil, nil, malformed("time range", raw, err)
	}
	end, err := p.clockTime(*date, sides[1])
	if err != nil {
		return nil, nil, malformed("time range", raw, err)
	}
	if start.After(end) {
		return nil, nil, malformed("time range", raw, errors.New("start is after end"))
	}

	return &start, &end, nil
}

// clockTime combines a 12-hour clock reading with the day of date
func (p *Parser) clockTime(date time.Time, s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, p.Location), nil
}

// otherInfo joins the notes and joint-author fragments that are not empty
func otherInfo(article *goquery.Selection) *string {
	fragments := make([]string, 0, 2)

	if notes := textOf(article, selNotes); notes != "" {
		fragments = append(fragments, notes)
	}

	if authors := textOf(article, selJointAuthors); authors != "" {
		if names := strings.TrimSpace(jointWithPattern.ReplaceAllString(authors, "")); names != "" {
			fragments = append(fragments, jointWithLabel+names)
		}
	}

	if len(fragments) == 0 {
		return nil
	}
	return event.String(strings.Join(fragments, otherInfoSeparator))
}

// href resolves the link target of an anchor, or nil without one
func (p *Parser) href(anchor *goquery.Selection) *string {
	if anchor == nil {
		return nil
	}
	target, ok := anchor.Attr("href")
	if !ok {
		return nil
	}
	return event.String(p.resolveURL(target))
}

// resolveURL prefixes site-relative paths with the origin
func (p *Parser) resolveURL(target string) string {
	if strings.HasPrefix(target, "/") {
		return p.Origin + target
	}
	return target
}

// first returns the first match of selector under sel, or nil
func first(sel *goquery.Selection, selector string) *goquery.Selection {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return nil
	}
	return match
}

// textOf returns the cleaned text of the first match, "" when absent
func textOf(sel *goquery.Selection, selector string) string {
	match := first(sel, selector)
	if match == nil {
		return ""
	}
	return cleanText(match)
}

// cleanText returns visible text with whitespace runs collapsed
func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// spacedText joins every text node below sel with a single space
func spacedText(sel *goquery.Selection) string {
	parts := make([]string, 0)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
