package utils

import (
	"fmt"
	"strings"
	"time"
)

// DisplayZone is the fixed UTC-5 offset used for every operator-facing
// label. It deliberately ignores daylight saving.
var DisplayZone = time.FixedZone("ET", -5*60*60)

// ISOLayout is the persisted scheduled_at format: UTC, no zone suffix.
const ISOLayout = "2006-01-02T15:04:05"

const (
	slotStep      = 2 * time.Hour
	slotCount     = 6
	slotMinOffset = 30 * time.Minute
	slotMaxOffset = 12 * time.Hour
)

// Slot is a candidate publish time offered to the operator.
type Slot struct {
	Label string    `json:"label"`
	ISO   string    `json:"iso"`
	At    time.Time `json:"-"`
}

// GenerateSlots returns up to six publish slots on even UTC hours, each
// between 30 minutes and 12 hours after now, in increasing order. An empty
// result means no slot is available.
func GenerateSlots(now time.Time) []Slot {
	now = now.UTC()
	base := nextEvenHour(now)

	slots := make([]Slot, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		at := base.Add(time.Duration(i) * slotStep)
		offset := at.Sub(now)
		if offset > slotMaxOffset {
			break
		}
		if offset < slotMinOffset {
			continue
		}
		slots = append(slots, Slot{
			Label: slotLabel(at, now),
			ISO:   at.Format(ISOLayout),
			At:    at,
		})
	}
	return slots
}

// nextEvenHour rounds up to the next even UTC hour. Only a time sitting
// exactly on an even hour is returned unchanged.
func nextEvenHour(now time.Time) time.Time {
	hourStart := now.Truncate(time.Hour)
	even := now.Hour()%2 == 0
	switch {
	case even && now.Equal(hourStart):
		return now
	case even:
		return hourStart.Add(2 * time.Hour)
	default:
		return hourStart.Add(time.Hour)
	}
}

func slotLabel(at, now time.Time) string {
	day := "Tomorrow"
	if sameDisplayDay(at, now) {
		day = "Today"
	}
	return fmt.Sprintf("%s at %s ET", day, at.In(DisplayZone).Format("3:04 PM"))
}

func sameDisplayDay(a, b time.Time) bool {
	ay, am, ad := a.In(DisplayZone).Date()
	by, bm, bd := b.In(DisplayZone).Date()
	return ay == by && am == bm && ad == bd
}

// ParseScheduledTime reads a persisted scheduled_at value. Values without
// a zone are UTC.
func ParseScheduledTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{ISOLayout, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("malformed schedule time %q", raw)
}

// FormatScheduledTime labels an already scheduled timestamp relative to now
// using the display zone: Today, Tomorrow, Yesterday, or the weekday and date.
func FormatScheduledTime(iso string, now time.Time) (string, error) {
	at, err := ParseScheduledTime(iso)
	if err != nil {
		return "", err
	}
	return LabelFor(at, now), nil
}

// LabelFor is FormatScheduledTime for a parsed time.
func LabelFor(at, now time.Time) string {
	clock := at.In(DisplayZone).Format("3:04 PM")
	switch displayDayDiff(at, now) {
	case 0:
		return fmt.Sprintf("Today at %s ET", clock)
	case 1:
		return fmt.Sprintf("Tomorrow at %s ET", clock)
	case -1:
		return fmt.Sprintf("Yesterday at %s ET", clock)
	default:
		return fmt.Sprintf("%s at %s ET", at.In(DisplayZone).Format("Mon Jan 2"), clock)
	}
}

func displayDayDiff(at, now time.Time) int {
	a := StartOfDisplayDay(at)
	b := StartOfDisplayDay(now)
	return int(a.Sub(b).Hours() / 24)
}

// StartOfDisplayDay returns midnight of t's display-zone day.
func StartOfDisplayDay(t time.Time) time.Time {
	l := t.In(DisplayZone)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, DisplayZone)
}

// IsDisplayWeekend reports whether t falls on Saturday or Sunday in the display zone.
func IsDisplayWeekend(t time.Time) bool {
	switch t.In(DisplayZone).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// agent run times in the display zone: scraper, comment drafting, then research
var agentRunClock = []struct{ hour, minute int }{
	{6, 0}, {6, 30},
	{2, 0}, {6, 0}, {10, 0}, {14, 0}, {18, 0}, {22, 0},
}

// NextAgentRun returns the next pipeline agent run strictly after now.
func NextAgentRun(now time.Time) time.Time {
	local := now.In(DisplayZone)
	var next time.Time
	for _, c := range agentRunClock {
		t := time.Date(local.Year(), local.Month(), local.Day(), c.hour, c.minute, 0, 0, DisplayZone)
		if !t.After(local) {
			t = t.AddDate(0, 0, 1)
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// FormatCountdown renders a duration as "3h 5m" or "45m".
func FormatCountdown(d time.Duration) string {
	mins := int(d.Minutes())
	h, m := mins/60, mins%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
