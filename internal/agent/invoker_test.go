package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concord/internal/audit"
	"concord/internal/executor"
	"concord/internal/platform"
	"concord/internal/tools"
)

// stubPlatform serves only get_server_info; everything else is absent.
type stubPlatform struct{}

func (stubPlatform) ServerInfo(ctx context.Context) (*platform.ServerInfo, error) {
	return &platform.ServerInfo{ID: "srv", Name: "stub", MemberCount: 1, OnlineCount: 1}, nil
}
func (stubPlatform) ListChannels(ctx context.Context) ([]platform.Channel, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) ResolveChannel(ctx context.Context, ref string) (string, error) {
	return "", platform.ErrNotFound
}
func (stubPlatform) SendMessage(ctx context.Context, channelID, content string, mentions []string) (*platform.Message, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) ChannelMessages(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return platform.ErrNotFound
}
func (stubPlatform) ListMembers(ctx context.Context) ([]platform.Member, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) CreateEvent(ctx context.Context, ev platform.EventCreate) (*platform.Event, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) UpdateEvent(ctx context.Context, eventID string, updates map[string]any) (*platform.Event, error) {
	return nil, platform.ErrNotFound
}
func (stubPlatform) DeleteEvent(ctx context.Context, eventID string) error {
	return platform.ErrNotFound
}
func (stubPlatform) ListEvents(ctx context.Context) ([]platform.Event, error) {
	return nil, platform.ErrNotFound
}

// failingStore refuses every write.
type failingStore struct {
	audit.Store
}

func (failingStore) Record(ctx context.Context, rec audit.Record) error {
	return fmt.Errorf("%w: disk full", audit.ErrWriteFailed)
}

func TestLocalInvokerAuditFailureKeepsResult(t *testing.T) {
	reg, err := tools.NewRegistry(tools.Catalog(time.Now())...)
	require.NoError(t, err)
	exec, err := executor.New(executor.Config{Registry: reg, Platform: stubPlatform{}})
	require.NoError(t, err)

	inv := NewLocalInvoker(exec, failingStore{}, "tester", nil)

	res := inv.Invoke(context.Background(), tools.ToolCall{ID: "c1", Name: "get_server_info"})
	require.True(t, res.Success, "executed result must survive an audit write failure")
	assert.Empty(t, res.Kind)
	assert.Contains(t, res.Content, "stub")
}

func TestLocalInvokerRecordsOutcomes(t *testing.T) {
	reg, err := tools.NewRegistry(tools.Catalog(time.Now())...)
	require.NoError(t, err)
	exec, err := executor.New(executor.Config{Registry: reg, Platform: stubPlatform{}})
	require.NoError(t, err)

	store := audit.NewMemoryStore()
	inv := NewLocalInvoker(exec, store, "tester", nil)

	res := inv.Invoke(context.Background(), tools.ToolCall{ID: "c1", Name: "get_server_info"})
	require.True(t, res.Success, res.Error)

	res = inv.Invoke(context.Background(), tools.ToolCall{ID: "c2", Name: "launch_rockets"})
	require.False(t, res.Success)

	recs, err := store.Query(context.Background(), audit.Filter{ClientID: "tester"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, audit.OutcomeOK, recs[0].Outcome)
	assert.Equal(t, "get_server_info", recs[0].Tool)
	assert.Equal(t, audit.OutcomeError, recs[1].Outcome)
}
