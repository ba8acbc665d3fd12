package executor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// parseWhen resolves a user-facing time expression against now. It accepts
// ISO layouts plus the small relative vocabulary models actually emit:
// "today", "tomorrow", "in N days", each with an optional HH:MM suffix.
func parseWhen(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}

	lower := strings.ToLower(s)
	base, rest, ok := relativeDay(lower, now)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized time expression %q", raw)
	}
	if rest == "" {
		return base, nil
	}
	return withClock(base, rest)
}

// relativeDay resolves the date part of an expression and returns the
// remaining clock portion, if any.
func relativeDay(s string, now time.Time) (time.Time, string, bool) {
	day := startOfDay(now)

	switch {
	case s == "now":
		return now, "", true
	case strings.HasPrefix(s, "today"):
		return day, strings.TrimSpace(strings.TrimPrefix(s, "today")), true
	case strings.HasPrefix(s, "tomorrow"):
		return day.AddDate(0, 0, 1), strings.TrimSpace(strings.TrimPrefix(s, "tomorrow")), true
	case strings.HasPrefix(s, "in "):
		fields := strings.Fields(s)
		if len(fields) < 3 {
			return time.Time{}, "", false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return time.Time{}, "", false
		}
		rest := strings.Join(fields[3:], " ")
		switch strings.TrimSuffix(fields[2], "s") {
		case "day":
			return day.AddDate(0, 0, n), rest, true
		case "week":
			return day.AddDate(0, 0, 7*n), rest, true
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), rest, true
		}
		return time.Time{}, "", false
	}

	if wd, rest, ok := weekdayPrefix(s); ok {
		delta := (int(wd) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return day.AddDate(0, 0, delta), rest, true
	}
	return time.Time{}, "", false
}

func weekdayPrefix(s string) (time.Weekday, string, bool) {
	s = strings.TrimPrefix(s, "next ")
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if strings.HasPrefix(s, name) {
			return wd, strings.TrimSpace(strings.TrimPrefix(s, name)), true
		}
	}
	return 0, "", false
}

// withClock applies an "HH:MM", "3pm" or "15:04" suffix to a day.
func withClock(day time.Time, clock string) (time.Time, error) {
	clock = strings.TrimPrefix(clock, "at ")

	for _, layout := range []string{"15:04", "15", "3pm", "3:04pm", "3PM", "3:04PM"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized clock %q", clock)
}
