package reconcile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"gopkg.in/yaml.v3"
)

var ErrInvalidWindows = errors.New("invalid punch windows")

// Windows splits the punches around a calendar date into an arrival window and a departure window.
// Every bound is an offset from the date's local midnight and every window is half-open [start, end).
// Punches carry no reliable in/out tag, so the split is purely positional.
type Windows struct {
	InStart  time.Duration
	InEnd    time.Duration
	OutStart time.Duration
	OutEnd   time.Duration
}

// DefaultWindows: in [07:15, 11:00), out [11:01, next day 07:14] at minute resolution.
func DefaultWindows() Windows {
	return Windows{
		InStart:  7*time.Hour + 15*time.Minute,
		InEnd:    11 * time.Hour,
		OutStart: 11*time.Hour + 1*time.Minute,
		OutEnd:   24*time.Hour + 7*time.Hour + 15*time.Minute,
	}
}

func (w Windows) Validate() error {
	switch {
	case w.InStart < 0 || w.InStart >= 24*time.Hour:
		return fmt.Errorf("%w: in window must start within the day", ErrInvalidWindows)
	case w.InEnd <= w.InStart:
		return fmt.Errorf("%w: in window must end after it starts", ErrInvalidWindows)
	case w.OutStart < w.InEnd:
		return fmt.Errorf("%w: out window must not overlap the in window", ErrInvalidWindows)
	case w.OutEnd <= w.OutStart:
		return fmt.Errorf("%w: out window must end after it starts", ErrInvalidWindows)
	case w.OutEnd > 24*time.Hour+w.InStart:
		return fmt.Errorf("%w: out window must close before the next day's in window opens", ErrInvalidWindows)
	}
	return nil
}

// In returns the arrival window bounds for date.
func (w Windows) In(date time.Time) (time.Time, time.Time) {
	return at(date, w.InStart), at(date, w.InEnd)
}

// Out returns the departure window bounds for date.
func (w Windows) Out(date time.Time) (time.Time, time.Time) {
	return at(date, w.OutStart), at(date, w.OutEnd)
}

// Span returns the smallest range holding both windows of date. Punch reads for a date use it.
func (w Windows) Span(date time.Time) (time.Time, time.Time) {
	return at(date, w.InStart), at(date, w.OutEnd)
}

// at anchors an offset on date's wall clock so DST shifts don't move the boundary.
func at(date time.Time, offset time.Duration) time.Time {
	days := int(offset / (24 * time.Hour))
	rest := offset - time.Duration(days)*24*time.Hour
	return time.Date(
		date.Year(), date.Month(), date.Day()+days,
		int(rest/time.Hour), int(rest%time.Hour/time.Minute), int(rest%time.Minute/time.Second), 0,
		date.Location(),
	)
}

type windowFile struct {
	InWindow struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"in_window"`
	OutWindow struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"out_window"`
}

// LoadWindows reads a policy file of the form
//
//	in_window:  {start: "07:15", end: "11:00"}   # end exclusive
//	out_window: {start: "11:01", end: "07:14"}   # end inclusive, on the next day
//
// An empty path returns DefaultWindows.
func LoadWindows(path string) (Windows, error) {
	if path == "" {
		return DefaultWindows(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Windows{}, fmt.Errorf("read punch window file: %w", err)
	}

	var f windowFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Windows{}, fmt.Errorf("parse punch window file: %w", err)
	}

	bounds := []struct {
		name  string
		value string
	}{
		{"in_window.start", f.InWindow.Start},
		{"in_window.end", f.InWindow.End},
		{"out_window.start", f.OutWindow.Start},
		{"out_window.end", f.OutWindow.End},
	}
	parsed := make([]time.Duration, len(bounds))
	for i, b := range bounds {
		d, ok := validator.IsValidTimeOfDay(b.value)
		if !ok {
			return Windows{}, fmt.Errorf("%w: %s %q is not a time of day", ErrInvalidWindows, b.name, b.value)
		}
		parsed[i] = d
	}

	w := Windows{
		InStart:  parsed[0],
		InEnd:    parsed[1],
		OutStart: parsed[2],
		OutEnd:   24*time.Hour + parsed[3] + time.Minute,
	}
	if err := w.Validate(); err != nil {
		return Windows{}, err
	}
	return w, nil
}
