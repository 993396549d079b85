// Package cli implements the command-line interface for econ-calendars.
//
// The cli package provides the Cobra-based commands: run harvests every configured
// source once, watch harvests at the configured daily times, parse extracts events
// from a saved page for inspection (text, JSON or iCalendar), and index regenerates
// the index page. It wires the config, scraper, storage, website and harvest packages.
package cli
