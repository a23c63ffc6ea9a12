package preference

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
)

// Frequency is how often a recipient wants to hear on a channel. It is
// stored and returned but not enforced by the filter.
type Frequency string

const (
	Immediate Frequency = "immediate"
	Hourly    Frequency = "hourly"
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
)

// PriorityFilter restricts which priorities get through.
type PriorityFilter string

const (
	All        PriorityFilter = "all"
	HighOnly   PriorityFilter = "high_only"
	UrgentOnly PriorityFilter = "urgent_only"
)

// QuietHours is a daily window given as "HH:MM" strings.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Preference is one recipient's settings for one channel.
type Preference struct {
	Channel        string         `json:"channel"`
	Enabled        bool           `json:"isEnabled"`
	QuietHours     QuietHours     `json:"quietHours"`
	Frequency      Frequency      `json:"frequency"`
	PriorityFilter PriorityFilter `json:"priorityFilter"`
}

// Normalize fills the zero-valued enums with their defaults.
func (p *Preference) Normalize() {
	if p.Frequency == "" {
		p.Frequency = Immediate
	}
	if p.PriorityFilter == "" {
		p.PriorityFilter = All
	}
}

// Validate reports every problem with p.
func (p Preference) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Channel) == "" {
		errs = append(errs, errors.New("channel is required"))
	}
	switch p.Frequency {
	case "", Immediate, Hourly, Daily, Weekly:
	default:
		errs = append(errs, fmt.Errorf("unknown frequency %q", p.Frequency))
	}
	switch p.PriorityFilter {
	case "", All, HighOnly, UrgentOnly:
	default:
		errs = append(errs, fmt.Errorf("unknown priority filter %q", p.PriorityFilter))
	}
	if p.QuietHours.Enabled {
		if _, err := ParseHour(p.QuietHours.Start); err != nil {
			errs = append(errs, fmt.Errorf("quiet hours start: %w", err))
		}
		if _, err := ParseHour(p.QuietHours.End); err != nil {
			errs = append(errs, fmt.Errorf("quiet hours end: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ParseHour returns the hour component of an "HH:MM" clock string.
func ParseHour(s string) (int, error) {
	hh, _, _ := strings.Cut(strings.TrimSpace(s), ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour out of range in %q", s)
	}
	return h, nil
}

// Filter decides whether a recipient should be notified at all.
//
// With WrapQuietHours unset a quiet window matches when
// start <= hour <= end, so an overnight window such as 22:00-08:00 never
// matches. Setting it treats start > end as a window crossing midnight.
type Filter struct {
	WrapQuietHours bool
}

// ShouldSend scans every preference of the recipient; any single entry can
// veto. A recipient with no preferences on file is always notified.
func (f Filter) ShouldSend(p priority.Priority, prefs []Preference, now time.Time) bool {
	hour := now.Hour()
	for _, pref := range prefs {
		if pref.QuietHours.Enabled && f.inQuietHours(pref.QuietHours, hour) && !p.IsUrgent() {
			return false
		}
		switch pref.PriorityFilter {
		case HighOnly:
			if p == priority.Low {
				return false
			}
		case UrgentOnly:
			if !p.IsUrgent() {
				return false
			}
		}
	}
	return true
}

func (f Filter) inQuietHours(q QuietHours, hour int) bool {
	start, err := ParseHour(q.Start)
	if err != nil {
		slog.Debug("quiet hours skipped", "err", err)
		return false
	}
	end, err := ParseHour(q.End)
	if err != nil {
		slog.Debug("quiet hours skipped", "err", err)
		return false
	}
	if f.WrapQuietHours && start > end {
		return hour >= start || hour <= end
	}
	return hour >= start && hour <= end
}
