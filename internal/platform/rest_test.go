package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*RESTClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewRESTClient(RESTConfig{BaseURL: server.URL, Token: "bot-token"})
	if err != nil {
		t.Fatalf("NewRESTClient: %v", err)
	}
	return client, server
}

func TestResolveChannelByName(t *testing.T) {
	var listCalls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		listCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"111","name":"general","type":"text"},{"id":"222","name":"lab-x","type":"voice"}]`))
	}))

	ctx := context.Background()
	id, err := client.ResolveChannel(ctx, "general")
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if id != "111" {
		t.Fatalf("expected 111, got %s", id)
	}

	// Second resolution hits the cache, not the API.
	if _, err := client.ResolveChannel(ctx, "#Lab-X"); err != nil {
		t.Fatalf("resolve cached name: %v", err)
	}
	if got := listCalls.Load(); got != 1 {
		t.Fatalf("expected one channel list call, got %d", got)
	}

	// Numeric references pass through without a lookup.
	id, err = client.ResolveChannel(ctx, "987654")
	if err != nil || id != "987654" {
		t.Fatalf("numeric reference: id=%s err=%v", id, err)
	}

	if _, err := client.ResolveChannel(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown channel: expected ErrNotFound, got %v", err)
	}
}

func TestDoMapsStatusCodes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/1/messages/404":
			w.WriteHeader(http.StatusNotFound)
		case "/channels/1/messages/403":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("missing permission"))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	ctx := context.Background()
	if err := client.DeleteMessage(ctx, "1", "404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err := client.DeleteMessage(ctx, "1", "403")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "missing permission" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}

	if err := client.DeleteMessage(ctx, "1", "ok"); err != nil {
		t.Fatalf("204 delete should succeed: %v", err)
	}
}

func TestSendMessageSetsAuthHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bot bot-token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1","channel_id":"111","content":"hi"}`))
	}))

	msg, err := client.SendMessage(context.Background(), "111", "hi", nil)
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.ID != "m1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
