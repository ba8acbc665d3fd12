package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"concord/internal/platform"
	"concord/internal/tools"
)

func (e *Executor) createEvent(ctx context.Context, args map[string]any) *tools.ToolResult {
	start, err := parseWhen(argString(args, "start_time", ""), e.now())
	if err != nil {
		return tools.Failure("", tools.KindInvalidArguments, "parameter %q: %v", "start_time", err)
	}

	eventType := argString(args, "event_type", "online")
	channelID := argString(args, "channel_id", "")
	if (eventType == "voice" || eventType == "stage") && channelID == "" {
		return tools.Failure("", tools.KindInvalidArguments, "parameter %q is required for %s events", "channel_id", eventType)
	}

	duration := argFloat(args, "duration_hours", 1.0)
	if duration <= 0 {
		return tools.Failure("", tools.KindInvalidArguments, "parameter %q must be positive", "duration_hours")
	}

	created, err := e.api.CreateEvent(ctx, platform.EventCreate{
		Name:        argString(args, "name", ""),
		Description: argString(args, "description", ""),
		Location:    argString(args, "location", "online"),
		ChannelID:   channelID,
		Type:        eventType,
		Start:       start,
		End:         start.Add(time.Duration(duration * float64(time.Hour))),
	})
	if err != nil {
		return platformFailure(err)
	}

	return success(
		fmt.Sprintf("Created event %q starting %s.", created.Name, created.Start.Format("Mon, 2 Jan 2006 15:04")),
		map[string]any{"event": created},
	)
}

func (e *Executor) listUpcomingEvents(ctx context.Context, args map[string]any) *tools.ToolResult {
	now := e.now()
	from := now
	to := time.Time{}

	if preset := argString(args, "timeframe", ""); preset != "" {
		from, to = presetRange(preset, now)
	}
	if days := argInt(args, "days_ahead", 0); days > 0 {
		to = now.AddDate(0, 0, days)
	}
	if raw := argString(args, "from_date", ""); raw != "" {
		parsed, err := parseWhen(raw, now)
		if err != nil {
			return tools.Failure("", tools.KindInvalidArguments, "parameter %q: %v", "from_date", err)
		}
		from = parsed
	}
	if raw := argString(args, "to_date", ""); raw != "" {
		parsed, err := parseWhen(raw, now)
		if err != nil {
			return tools.Failure("", tools.KindInvalidArguments, "parameter %q: %v", "to_date", err)
		}
		to = endOfDay(parsed)
	}

	return e.listEvents(ctx, from, to, argString(args, "location", ""),
		clampInt(argInt(args, "limit", 0), 50, 200), argBool(args, "group_by_days", false))
}

func (e *Executor) listEventsOnDay(ctx context.Context, args map[string]any) *tools.ToolResult {
	now := e.now()
	day, err := parseWhen(argString(args, "from_date", ""), now)
	if err != nil {
		return tools.Failure("", tools.KindInvalidArguments, "parameter %q: %v", "from_date", err)
	}
	from := startOfDay(day)
	to := endOfDay(day)
	if raw := argString(args, "to_date", ""); raw != "" {
		parsed, err := parseWhen(raw, now)
		if err != nil {
			return tools.Failure("", tools.KindInvalidArguments, "parameter %q: %v", "to_date", err)
		}
		to = endOfDay(parsed)
	}

	return e.listEvents(ctx, from, to, argString(args, "location", ""),
		clampInt(argInt(args, "limit", 0), 50, 200), false)
}

// listEvents fetches, filters, and formats events in [from, to).
func (e *Executor) listEvents(ctx context.Context, from, to time.Time, location string, limit int, groupByDays bool) *tools.ToolResult {
	events, err := e.api.ListEvents(ctx)
	if err != nil {
		return platformFailure(err)
	}

	var matched []platform.Event
	for _, ev := range events {
		if ev.Start.Before(from) {
			continue
		}
		if !to.IsZero() && !ev.Start.Before(to) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(ev.Location), strings.ToLower(location)) {
			continue
		}
		matched = append(matched, ev)
		if len(matched) >= limit {
			break
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Start.Before(matched[j].Start) })

	if len(matched) == 0 {
		return success("No events found in that range.", map[string]any{"events": []platform.Event{}, "count": 0})
	}

	var b strings.Builder
	if groupByDays {
		currentDay := ""
		for _, ev := range matched {
			day := ev.Start.Format("Monday, 2 Jan 2006")
			if day != currentDay {
				fmt.Fprintf(&b, "%s:\n", day)
				currentDay = day
			}
			fmt.Fprintf(&b, "  - %s (%s", ev.Name, ev.Start.Format("15:04"))
			if ev.Location != "" {
				fmt.Fprintf(&b, ", %s", ev.Location)
			}
			b.WriteString(")\n")
		}
	} else {
		for _, ev := range matched {
			fmt.Fprintf(&b, "- %s: %s", ev.Start.Format("Mon 2 Jan 15:04"), ev.Name)
			if ev.Location != "" {
				fmt.Fprintf(&b, " (%s)", ev.Location)
			}
			b.WriteString("\n")
		}
	}

	return success(strings.TrimRight(b.String(), "\n"), map[string]any{
		"events": matched,
		"count":  len(matched),
	})
}

func (e *Executor) deleteEventByName(ctx context.Context, args map[string]any) *tools.ToolResult {
	name := argString(args, "event_name", "")
	events, err := e.api.ListEvents(ctx)
	if err != nil {
		return platformFailure(err)
	}

	for _, ev := range events {
		if strings.EqualFold(ev.Name, name) {
			if err := e.api.DeleteEvent(ctx, ev.ID); err != nil {
				return platformFailure(err)
			}
			return success(fmt.Sprintf("Deleted event %q.", ev.Name), map[string]any{"event_id": ev.ID})
		}
	}
	return tools.Failure("", tools.KindExecutionFailed, "no event named %q found", name)
}

func (e *Executor) updateEvent(ctx context.Context, args map[string]any) *tools.ToolResult {
	eventID := argString(args, "event_id", "")
	updates := argObject(args, "updates")
	if len(updates) == 0 {
		return tools.Failure("", tools.KindInvalidArguments, "parameter %q must not be empty", "updates")
	}

	// start_time updates arrive in natural language like everything else.
	if raw, ok := updates["start_time"].(string); ok {
		parsed, err := parseWhen(raw, e.now())
		if err != nil {
			return tools.Failure("", tools.KindInvalidArguments, "updates.start_time: %v", err)
		}
		updates["start_time"] = parsed.Format(time.RFC3339)
	}

	updated, err := e.api.UpdateEvent(ctx, eventID, updates)
	if err != nil {
		return platformFailure(err)
	}
	return success(fmt.Sprintf("Updated event %q.", updated.Name), map[string]any{"event": updated})
}

func presetRange(preset string, now time.Time) (time.Time, time.Time) {
	switch preset {
	case "today":
		return startOfDay(now), endOfDay(now)
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		return startOfDay(t), endOfDay(t)
	case "week":
		return now, now.AddDate(0, 0, 7)
	case "2weeks":
		return now, now.AddDate(0, 0, 14)
	case "month":
		return now, now.AddDate(0, 1, 0)
	default:
		return now, time.Time{}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}
