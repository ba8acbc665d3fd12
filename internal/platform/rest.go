package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"concord/internal/logging"
)

const channelCacheSize = 256

// RESTClient talks to the platform's HTTP API with a bot credential.
//
// The platform accepts one logical connection per bot, so calls are
// serialized behind a mutex rather than issued concurrently. Channel-name
// resolutions are cached; a cache hit skips the channel list round trip.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  logging.Logger

	mu sync.Mutex // serializes platform calls

	channels *lru.Cache[string, string] // channel name -> ID
}

// RESTConfig configures the REST client.
type RESTConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  logging.Logger
}

// NewRESTClient builds a client for the platform API at cfg.BaseURL.
func NewRESTClient(cfg RESTConfig) (*RESTClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cache, err := lru.New[string, string](channelCacheSize)
	if err != nil {
		return nil, err
	}
	return &RESTClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logging.OrNop(cfg.Logger),
		channels: cache,
	}, nil
}

// do issues one serialized request and decodes the JSON response into out.
func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("platform call: %s %s", method, path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode platform response: %w", err)
	}
	return nil
}

func (c *RESTClient) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := c.do(ctx, http.MethodGet, "/server", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RESTClient) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.do(ctx, http.MethodGet, "/channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// ResolveChannel accepts either a channel ID or a channel name. Numeric-only
// references are treated as IDs; anything else is matched case-insensitively
// against the channel list and the resolution is cached.
func (c *RESTClient) ResolveChannel(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty channel reference", ErrNotFound)
	}
	if isNumeric(ref) {
		return ref, nil
	}

	key := strings.ToLower(strings.TrimPrefix(ref, "#"))
	if id, ok := c.channels.Get(key); ok {
		return id, nil
	}

	channels, err := c.ListChannels(ctx)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		c.channels.Add(strings.ToLower(ch.Name), ch.ID)
	}
	if id, ok := c.channels.Get(key); ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: channel %q", ErrNotFound, ref)
}

func (c *RESTClient) SendMessage(ctx context.Context, channelID, content string, mentions []string) (*Message, error) {
	payload := map[string]any{"content": content}
	if len(mentions) > 0 {
		payload["mentions"] = mentions
	}
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *RESTClient) ChannelMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	path := fmt.Sprintf("/channels/%s/messages?limit=%d", url.PathEscape(channelID), limit)
	var messages []Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *RESTClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := "/channels/" + url.PathEscape(channelID) + "/messages/" + url.PathEscape(messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *RESTClient) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := c.do(ctx, http.MethodGet, "/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *RESTClient) CreateEvent(ctx context.Context, ev EventCreate) (*Event, error) {
	var created Event
	if err := c.do(ctx, http.MethodPost, "/events", ev, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RESTClient) UpdateEvent(ctx context.Context, eventID string, updates map[string]any) (*Event, error) {
	var updated Event
	if err := c.do(ctx, http.MethodPatch, "/events/"+url.PathEscape(eventID), updates, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *RESTClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(eventID), nil, nil)
}

func (c *RESTClient) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
