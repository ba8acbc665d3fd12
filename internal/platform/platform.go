// Package platform holds the narrow interface to the chat/voice platform.
// The tool executor is its sole caller; everything behind it (transport,
// authentication against the platform, retries) is the platform client's
// concern.
package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that the referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// APIError is a typed failure from the platform API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API error %d: %s", e.Status, e.Message)
}

// Channel is one text or voice channel.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Message is one channel message.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Member is one server member.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// ServerInfo is the server-level summary.
type ServerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	OnlineCount int    `json:"online_count"`
}

// Event is one scheduled event.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Type        string    `json:"type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// EventCreate carries the fields for a new scheduled event.
type EventCreate struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Type        string    `json:"type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// API is the platform collaborator contract. Implementations must return
// ErrNotFound or *APIError for platform-side failures; they never panic
// across this boundary.
type API interface {
	ServerInfo(ctx context.Context) (*ServerInfo, error)
	ListChannels(ctx context.Context) ([]Channel, error)
	// ResolveChannel maps a channel ID or channel name to a channel ID.
	ResolveChannel(ctx context.Context, ref string) (string, error)

	SendMessage(ctx context.Context, channelID, content string, mentions []string) (*Message, error)
	ChannelMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	ListMembers(ctx context.Context) ([]Member, error)

	CreateEvent(ctx context.Context, ev EventCreate) (*Event, error)
	UpdateEvent(ctx context.Context, eventID string, updates map[string]any) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListEvents(ctx context.Context) ([]Event, error)
}
