package harvest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/econcal/econ-calendars/internal/calendar"
	"github.com/econcal/econ-calendars/internal/event"
	"github.com/econcal/econ-calendars/internal/logger"
	"github.com/econcal/econ-calendars/internal/scraper"
	"github.com/econcal/econ-calendars/internal/source"
	"github.com/econcal/econ-calendars/internal/storage"
	"github.com/econcal/econ-calendars/internal/website"
)

// Fetcher produces the events of one source
type Fetcher interface {
	FetchEvents(ctx context.Context, src source.Source) ([]*event.Event, error)
}

// Options wires a Harvester. Fetcher, Store and Renderer are required.
type Options struct {
	Fetcher   Fetcher
	Store     *storage.Storage
	Renderer  *website.Renderer
	PublicURL string

	// IndexSources, when set, are listed on the index page instead of the
	// sources of the run
	IndexSources []source.Source

	Location *time.Location
	Logger   *logger.Logger
	Metrics  *logger.Metrics
	Now      func() time.Time
}

// Harvester runs the pipeline for a set of sources
type Harvester struct {
	fetcher   Fetcher
	store     *storage.Storage
	renderer  *website.Renderer
	publicURL string
	indexed   []source.Source
	loc       *time.Location
	log       *logger.Logger
	metrics   *logger.Metrics
	now       func() time.Time
}

// Result describes one written calendar
type Result struct {
	Source    source.Source
	Path      string
	Extracted int
	Written   int
}

// New creates a Harvester from opts
func New(opts Options) (*Harvester, error) {
	if opts.Fetcher == nil || opts.Store == nil || opts.Renderer == nil {
		return nil, errors.New("harvest: fetcher, store and renderer are required")
	}

	h := &Harvester{
		fetcher:   opts.Fetcher,
		store:     opts.Store,
		renderer:  opts.Renderer,
		publicURL: opts.PublicURL,
		indexed:   opts.IndexSources,
		loc:       opts.Location,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.log == nil {
		h.log = logger.Default()
	}
	if h.metrics == nil {
		h.metrics = logger.NewMetrics()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

// Metrics returns the tracker this harvester records into
func (h *Harvester) Metrics() *logger.Metrics {
	return h.metrics
}

// RunSource harvests one source and writes its calendar
func (h *Harvester) RunSource(ctx context.Context, src source.Source) (Result, error) {
	res := Result{Source: src}

	var events []*event.Event
	err := h.metrics.Time("source.fetch", func() error {
		var err error
		events, err = h.fetcher.FetchEvents(ctx, src)
		return err
	})
	if err != nil {
		return res, err
	}

	res.Extracted = len(events)
	res.Written = calendar.Count(events)

	path, err := h.store.SaveCalendar(src, calendar.Serialize(src, events))
	if err != nil {
		return res, err
	}
	res.Path = path

	h.metrics.Add("events.extracted", int64(res.Extracted))
	h.metrics.Add("events.serialized", int64(res.Written))
	h.metrics.Add("events.skipped", int64(res.Extracted-res.Written))
	h.metrics.IncrCounter("sources.harvested")

	h.log.Info("calendar written", logger.Fields{
		"source":    src.Key(),
		"path":      path,
		"extracted": res.Extracted,
		"written":   res.Written,
	})
	return res, nil
}

// Run harvests every source in order, then refreshes the index page.
// It returns the calendars written and the joined errors of failed sources.
func (h *Harvester) Run(ctx context.Context, sources []source.Source) ([]Result, error) {
	results := make([]Result, 0, len(sources))
	var errs []error

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		res, err := h.RunSource(ctx, src)
		h.metrics.RecordTiming("source.total", time.Since(start))

		if err != nil {
			h.metrics.IncrCounter("sources.failed")
			h.log.Error("harvest failed", failureFields(src, err), err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Key(), err))
			continue
		}
		results = append(results, res)
	}

	indexed := sources
	if h.indexed != nil {
		indexed = h.indexed
	}
	if _, err := h.UpdateIndex(indexed); err != nil {
		h.log.Error("index update failed", nil, err)
		errs = append(errs, err)
	}

	return results, errors.Join(errs...)
}

// UpdateIndex renders the index page for sources and writes it
func (h *Harvester) UpdateIndex(sources []source.Source) (string, error) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, h.publicURL, sources, h.now().In(h.loc)); err != nil {
		return "", err
	}

	path, err := h.store.SaveIndex(buf.Bytes())
	if err != nil {
		return "", err
	}

	h.log.Debug("index written", logger.Fields{"path": path, "sources": len(sources)})
	return path, nil
}

// failureFields adds the offending listing to the log entry of a parse failure
func failureFields(src source.Source, err error) logger.Fields {
	fields := logger.Fields{
		"source": src.Key(),
		"url":    src.URL,
	}

	var mf *scraper.MalformedFieldError
	if errors.As(err, &mf) {
		fields["article"] = mf.Article
		fields["field"] = mf.Field
		fields["value"] = mf.Value
	}
	return fields
}
