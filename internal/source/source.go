// Package source describes an events page that is harvested into one calendar file.
package source

import (
	"errors"
	"net/url"
	"strings"
)

// Source is a read-only descriptor of one events page
type Source struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Key returns the identifier used to name the source's output, falling back to the name
func (s Source) Key() string {
	if id := strings.TrimSpace(s.ID); id != "" {
		return id
	}
	return strings.TrimSpace(s.Name)
}

// FileName returns the calendar file name for the source, e.g. "micro-theory.ics"
func (s Source) FileName() string {
	key := strings.NewReplacer("/", "-", "\\", "-").Replace(s.Key())
	return key + ".ics"
}

// Host returns the host of the source URL, or "" if it cannot be parsed
func (s Source) Host() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Validate checks that the source can be fetched and named
func (s Source) Validate() error {
	if s.Key() == "" {
		return errors.New("source needs an id or a name")
	}
	if s.URL == "" {
		return errors.New("source url is empty")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("source url must be http or https")
	}
	return nil
}
