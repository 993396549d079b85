package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/econcal/econ-calendars/internal/config"
	"github.com/econcal/econ-calendars/internal/harvest"
	"github.com/econcal/econ-calendars/internal/logger"
	"github.com/econcal/econ-calendars/internal/schedule"
	"github.com/econcal/econ-calendars/internal/scraper"
	"github.com/econcal/econ-calendars/internal/source"
	"github.com/econcal/econ-calendars/internal/storage"
	"github.com/econcal/econ-calendars/internal/website"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig   string
	flagVerbose  bool
	flagSources  []string
	flagRunNow   bool
	flagFormat   string
	flagName     string
	flagOrigin   string
	flagTimezone string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "econ-calendars",
		Short: "Publish economics department events as subscribable calendars",
		Long: `Harvests event listings from economics department events pages and publishes
one iCalendar file per page, plus an index page with subscription links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newParseCmd(),
		newIndexCmd(),
	)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest every configured source once",
		Args:  cobra.NoArgs,
		RunE:  runOnce,
	}
	cmd.Flags().StringSliceVar(&flagSources, "source", nil, "Only harvest these source ids or names")
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Harvest at the configured daily run times until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().BoolVar(&flagRunNow, "now", false, "Harvest once immediately before waiting")
	return cmd
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Extract events from a saved events page",
		Long: `Extracts events from a local HTML file (or stdin with "-") and prints them
as text, JSON, or an iCalendar document. No configuration file is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&flagName, "name", "Events", "Calendar name for ics output")
	cmd.Flags().StringVar(&flagOrigin, "origin", scraper.SiteOrigin, "Origin prefixed to site-relative links")
	cmd.Flags().StringVar(&flagTimezone, "timezone", scraper.CivilTimezone, "Timezone of the listed times")
	return cmd
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Regenerate the index page without harvesting",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
	}
}

// app holds what every harvesting command needs
type app struct {
	cfg       *config.Config
	harvester *harvest.Harvester
	log       *logger.Logger
}

// loadApp reads the config and wires logging, scraper, storage and website
func loadApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, os.Stderr)
	logger.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	outputDir, err := config.ExpandPath(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	store, err := storage.New(outputDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	templatePath, err := config.ExpandPath(cfg.IndexTemplate)
	if err != nil {
		return nil, err
	}
	renderer, err := website.NewRenderer(templatePath)
	if err != nil {
		return nil, err
	}

	sc := scraper.New(
		scraper.WithTimeout(cfg.FetchTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithParser(scraper.NewParser(cfg.SiteOrigin, loc)),
	)

	h, err := harvest.New(harvest.Options{
		Fetcher:      sc,
		Store:        store,
		Renderer:     renderer,
		PublicURL:    cfg.PublicURL,
		IndexSources: cfg.Sources,
		Location:     loc,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("effective config", logger.Fields{
		"config":     flagConfig,
		"output_dir": outputDir,
		"public_url": cfg.PublicURL,
		"timezone":   cfg.Timezone,
		"run_times":  cfg.RunTimes,
		"sources":    len(cfg.Sources),
	})

	return &app{cfg: cfg, harvester: h, log: log}, nil
}

// selectSources resolves --source keys against the config
func selectSources(cfg *config.Config, keys []string) ([]source.Source, error) {
	if len(keys) == 0 {
		return cfg.Sources, nil
	}
	selected := make([]source.Source, 0, len(keys))
	for _, key := range keys {
		src, ok := cfg.Source(key)
		if !ok {
			return nil, fmt.Errorf("unknown source: %s", key)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runOnce is the main command logic
func runOnce(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	sources, err := selectSources(a.cfg, flagSources)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	results, runErr := a.harvester.Run(ctx, sources)

	if err := WriteRunSummary(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	a.log.Info("run complete", a.harvester.Metrics().Snapshot())

	return runErr
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	sched, err := schedule.New(a.cfg.RunTimes, loc, schedule.SystemClock{})
	if err != nil {
		return err
	}
	sched.OnWait = func(next time.Time) {
		a.log.Info("waiting for next run", logger.Fields{"next": next.Format(time.RFC3339)})
	}
	sched.OnError = func(err error) {
		a.log.Error("scheduled run failed", nil, err)
	}

	ctx, stop := signalContext()
	defer stop()

	job := func(ctx context.Context) error {
		_, err := a.harvester.Run(ctx, a.cfg.Sources)
		return err
	}

	a.log.Info("watching", logger.Fields{
		"run_times": sched.Times(),
		"timezone":  loc.String(),
		"sources":   len(a.cfg.Sources),
	})

	if flagRunNow {
		if err := job(ctx); err != nil {
			sched.OnError(err)
		}
	}

	err = sched.Run(ctx, job)
	if errors.Is(err, context.Canceled) {
		a.log.Info("shutting down", nil)
		return nil
	}
	return err
}

func runParse(cmd *cobra.Command, args []string) error {
	format := OutputFormat(flagFormat)
	if !format.Valid() {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", flagFormat)
	}

	loc, err := time.LoadLocation(flagTimezone)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening page: %w", err)
		}
		defer f.Close()
		r = f
	}

	events, err := scraper.NewParser(flagOrigin, loc).Parse(r)
	if err != nil {
		return err
	}

	result := &OutputResult{
		Source: source.Source{Name: flagName},
		Events: events,
	}
	return WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	path, err := a.harvester.UpdateIndex(a.cfg.Sources)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Index written to %s\n", path)
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
