package tools

import (
	"fmt"
	"time"
)

// dateContext gives the model an anchor for natural-language times like
// "tomorrow 3pm". Injected into the event tool descriptions because models
// otherwise resolve relative dates against their training cutoff.
func dateContext(now time.Time) string {
	tomorrow := now.AddDate(0, 0, 1)
	return fmt.Sprintf("Current date: %s (%s). 'Today' = %s, 'tomorrow' = %s.",
		now.Format("2 January 2006"), now.Weekday(),
		now.Format("2006-01-02"), tomorrow.Format("2006-01-02"))
}

// Catalog returns the full tool catalog of the assistant. The set is closed:
// these are the only operations the model can request, and the executor
// dispatches them through a matching closed switch.
func Catalog(now time.Time) []ToolDefinition {
	dates := dateContext(now)

	return []ToolDefinition{
		{
			Name:        "create_event",
			Description: "Creates a scheduled event on the server. " + dates,
			MinRole:     RoleWriter,
			Params: []Param{
				{Name: "name", Type: TypeString, Description: "Event name", Required: true},
				{Name: "start_time", Type: TypeString, Description: "Start time, natural language ('tomorrow 3pm', 'next Monday 10:00') or ISO format", Required: true},
				{Name: "description", Type: TypeString, Description: "Event description"},
				{Name: "duration_hours", Type: TypeNumber, Description: "Duration in hours (default: 1.0)"},
				{Name: "location", Type: TypeString, Description: "Event location (default: online)"},
				{Name: "event_type", Type: TypeString, Description: "Event type (default: 'online')", Enum: []string{"online", "voice", "stage"}},
				{Name: "channel_id", Type: TypeString, Description: "Channel ID for voice/stage events"},
			},
		},
		{
			Name:        "list_upcoming_events",
			Description: "Lists upcoming events for a time RANGE (next week, next N days, from/to dates). " + dates,
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "limit", Type: TypeInteger, Description: "Maximum number of events (default: 50)"},
				{Name: "days_ahead", Type: TypeInteger, Description: "Events within the next N days (e.g. 7 for next week)"},
				{Name: "from_date", Type: TypeString, Description: "Range start (ISO YYYY-MM-DD or natural language)"},
				{Name: "to_date", Type: TypeString, Description: "Range end (ISO YYYY-MM-DD or natural language)"},
				{Name: "location", Type: TypeString, Description: "Filter by location"},
				{Name: "group_by_days", Type: TypeBoolean, Description: "Group events by day (default: false)"},
				{Name: "timeframe", Type: TypeString, Description: "Range preset", Enum: []string{"today", "tomorrow", "week", "2weeks", "month"}},
			},
		},
		{
			Name:        "list_events_on_specific_day",
			Description: "Lists events on ONE SPECIFIC DAY (in 14 days, on the 25th, tomorrow). " + dates,
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "from_date", Type: TypeString, Description: "Day, natural language ('in 14 days', 'November 25', 'tomorrow')", Required: true},
				{Name: "to_date", Type: TypeString, Description: "End date (default: same day)"},
				{Name: "location", Type: TypeString, Description: "Filter by location"},
				{Name: "limit", Type: TypeInteger, Description: "Maximum number of events (default: 50)"},
			},
		},
		{
			Name:        "delete_event_by_name",
			Description: "Deletes an event by its name.",
			MinRole:     RoleAdmin,
			Params: []Param{
				{Name: "event_name", Type: TypeString, Description: "Name of the event to delete", Required: true},
			},
		},
		{
			Name:        "update_event",
			Description: "Updates an existing event (name, description, start_time etc).",
			MinRole:     RoleWriter,
			Params: []Param{
				{Name: "event_id", Type: TypeString, Description: "Event ID", Required: true},
				{Name: "updates", Type: TypeObject, Description: "Fields to update (e.g. name, description, start_time)", Required: true},
			},
		},
		{
			Name:        "send_message",
			Description: "Sends a message to a channel. channel_id may be a channel NAME (e.g. 'general').",
			MinRole:     RoleWriter,
			Params: []Param{
				{Name: "channel_id", Type: TypeString, Description: "Channel ID or channel name", Required: true},
				{Name: "content", Type: TypeString, Description: "Message content", Required: true},
				{Name: "mentions", Type: TypeArray, Description: "User IDs to mention"},
			},
		},
		{
			Name:        "get_server_info",
			Description: "Fetches server information (name, member count etc).",
			MinRole:     RoleReader,
		},
		{
			Name:        "list_channels",
			Description: "Lists all channels on the server.",
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "channel_type", Type: TypeString, Description: "Channel type filter (default: 'all')", Enum: []string{"all", "text", "voice"}},
			},
		},
		{
			Name:        "get_online_members_count",
			Description: "Returns the number of members currently online.",
			MinRole:     RoleReader,
		},
		{
			Name:        "list_online_members",
			Description: "Lists online members by name.",
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "limit", Type: TypeInteger, Description: "Maximum members to list (default: 20)"},
			},
		},
		{
			Name:        "delete_message",
			Description: "Deletes a message from a channel, by message_id or by content search. channel_id may be a channel name.",
			MinRole:     RoleAdmin,
			Params: []Param{
				{Name: "channel_id", Type: TypeString, Description: "Channel ID or channel name", Required: true},
				{Name: "message_id", Type: TypeString, Description: "Direct message ID"},
				{Name: "content", Type: TypeString, Description: "Message text to search for and delete"},
			},
		},
		{
			Name:        "delete_last_message",
			Description: "Deletes the most recent message in a channel.",
			MinRole:     RoleAdmin,
			Params: []Param{
				{Name: "channel_id", Type: TypeString, Description: "Channel ID or channel name", Required: true},
			},
		},
		{
			Name:        "get_channel_messages",
			Description: "Shows the most recent messages of a channel. channel_id may be a channel name (e.g. 'general').",
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "channel_id", Type: TypeString, Description: "Channel ID or channel name", Required: true},
				{Name: "limit", Type: TypeInteger, Description: "Number of messages (default: 5, max: 100)"},
			},
		},
		{
			Name:        "summarize_channel",
			Description: "Summarizes the most recent messages of a channel. For 'what is channel X about?'",
			MinRole:     RoleReader,
			Params: []Param{
				{Name: "channel_id", Type: TypeString, Description: "Channel ID or channel name", Required: true},
				{Name: "limit", Type: TypeInteger, Description: "Messages to summarize (default: 10, max: 50)"},
			},
		},
	}
}
