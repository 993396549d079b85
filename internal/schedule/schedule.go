// Package schedule wakes a job at a fixed set of daily wall-clock times.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Clock abstracts time so the loop can be driven from tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the real wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Job is run at every wake-up
type Job func(ctx context.Context) error

// Scheduler computes wake instants from daily "HH:MM" times in a location
type Scheduler struct {
	times     []string
	schedules []cron.Schedule
	loc       *time.Location
	clock     Clock

	// OnError is called when a job fails; the loop keeps running
	OnError func(err error)
	// OnWait is called with the next wake instant before sleeping
	OnWait func(next time.Time)
}

// New parses the daily times. A nil loc means time.Local, a nil clock the system clock.
func New(times []string, loc *time.Location, clock Clock) (*Scheduler, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("no run times configured")
	}
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = SystemClock{}
	}

	s := &Scheduler{
		loc:   loc,
		clock: clock,
	}
	for _, t := range times {
		spec, err := cronSpec(t)
		if err != nil {
			return nil, err
		}
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("run time %q: %w", t, err)
		}
		s.times = append(s.times, strings.TrimSpace(t))
		s.schedules = append(s.schedules, sched)
	}
	return s, nil
}

// ParseTime validates an "HH:MM" run time and returns its hour and minute
func ParseTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("run time %q must be HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// cronSpec turns "HH:MM" into a daily five-field cron expression
func cronSpec(s string) (string, error) {
	hour, minute, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// Times returns the configured daily times
func (s *Scheduler) Times() []string {
	return append([]string(nil), s.times...)
}

// Next returns the earliest run instant strictly after now
func (s *Scheduler) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	var next time.Time
	for _, sched := range s.schedules {
		candidate := sched.Next(local)
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Run sleeps until each next run time and calls job, until ctx is done.
// Job errors go to OnError and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		next := s.Next(now)
		if s.OnWait != nil {
			s.OnWait(next)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		if err := job(ctx); err != nil && s.OnError != nil {
			s.OnError(err)
		}
	}
}
