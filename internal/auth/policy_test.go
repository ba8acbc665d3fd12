package auth

import (
	"errors"
	"testing"
	"time"

	"concord/internal/tools"
)

func testPolicy(limit int, window time.Duration) (*Policy, *time.Time) {
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(PolicyConfig{Limit: limit, Window: window})
	p.now = func() time.Time { return clock }
	return p, &clock
}

var (
	readTool  = tools.ToolDefinition{Name: "get_server_info", MinRole: tools.RoleReader}
	writeTool = tools.ToolDefinition{Name: "send_message", MinRole: tools.RoleWriter}
	adminTool = tools.ToolDefinition{Name: "delete_message", MinRole: tools.RoleAdmin}
)

func TestAuthorizeRoleFloor(t *testing.T) {
	p, _ := testPolicy(10, time.Minute)
	reader := Identity{ClientID: "r", Role: tools.RoleReader}

	if err := p.Authorize(reader, readTool); err != nil {
		t.Fatalf("reader on reader tool: %v", err)
	}
	if err := p.Authorize(reader, writeTool); !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("reader on writer tool: expected ErrInsufficientRole, got %v", err)
	}
	if err := p.Authorize(reader, adminTool); !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("reader on admin tool: expected ErrInsufficientRole, got %v", err)
	}

	admin := Identity{ClientID: "a", Role: tools.RoleAdmin}
	for _, def := range []tools.ToolDefinition{readTool, writeTool, adminTool} {
		if err := p.Authorize(admin, def); err != nil {
			t.Fatalf("admin on %s: %v", def.Name, err)
		}
	}
}

func TestAuthorizeRateWindow(t *testing.T) {
	p, clock := testPolicy(3, time.Minute)
	id := Identity{ClientID: "w", Role: tools.RoleWriter}

	for i := 0; i < 3; i++ {
		if err := p.Authorize(id, writeTool); err != nil {
			t.Fatalf("call %d within budget failed: %v", i+1, err)
		}
	}
	if err := p.Authorize(id, writeTool); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("4th call: expected ErrRateLimited, got %v", err)
	}

	// Fixed-bucket rollover: once the window elapses the count resets.
	*clock = clock.Add(61 * time.Second)
	if err := p.Authorize(id, writeTool); err != nil {
		t.Fatalf("call after window rollover failed: %v", err)
	}
}

func TestRoleDenialDoesNotConsumeToolBudget(t *testing.T) {
	p, _ := testPolicy(2, time.Minute)
	id := Identity{ClientID: "r", Role: tools.RoleReader}

	// Denied-role attempts must not eat into the tool budget.
	for i := 0; i < 2; i++ {
		if err := p.Authorize(id, writeTool); !errors.Is(err, ErrInsufficientRole) {
			t.Fatalf("expected ErrInsufficientRole, got %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := p.Authorize(id, readTool); err != nil {
			t.Fatalf("read call %d should still fit the budget: %v", i+1, err)
		}
	}
}

func TestRepeatedDenialsAreRateLimited(t *testing.T) {
	p, _ := testPolicy(2, time.Minute)
	id := Identity{ClientID: "probe", Role: tools.RoleReader}

	// Denial budget is 2x the tool budget.
	for i := 0; i < 4; i++ {
		if err := p.Authorize(id, adminTool); !errors.Is(err, ErrInsufficientRole) {
			t.Fatalf("denial %d: expected ErrInsufficientRole, got %v", i+1, err)
		}
	}
	if err := p.Authorize(id, adminTool); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("probing past denial budget: expected ErrRateLimited, got %v", err)
	}
}

func TestExhaustedDenialWindowDoesNotBlockAllowedCalls(t *testing.T) {
	p, _ := testPolicy(2, time.Minute)
	id := Identity{ClientID: "probe", Role: tools.RoleReader}

	// Burn through the denial budget and past it.
	for i := 0; i < 5; i++ {
		_ = p.Authorize(id, adminTool)
	}
	if err := p.Authorize(id, adminTool); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("denial window should be exhausted, got %v", err)
	}

	// The role is ranked first, so calls the role admits still go through
	// on the untouched tool budget.
	for i := 0; i < 2; i++ {
		if err := p.Authorize(id, readTool); err != nil {
			t.Fatalf("allowed call %d after exhausted denial window: %v", i+1, err)
		}
	}
}

func TestNoteAuthFailure(t *testing.T) {
	p, clock := testPolicy(2, time.Minute)

	for i := 0; i < 4; i++ {
		if err := p.NoteAuthFailure("10.0.0.9"); err != nil {
			t.Fatalf("failure %d within denial budget: %v", i+1, err)
		}
	}
	if err := p.NoteAuthFailure("10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after denial budget, got %v", err)
	}

	*clock = clock.Add(2 * time.Minute)
	if err := p.NoteAuthFailure("10.0.0.9"); err != nil {
		t.Fatalf("failure after rollover: %v", err)
	}
}

func TestBudgetsAreKeyedPerIdentity(t *testing.T) {
	p, _ := testPolicy(1, time.Minute)
	a := Identity{ClientID: "a", Role: tools.RoleWriter}
	b := Identity{ClientID: "b", Role: tools.RoleWriter}

	if err := p.Authorize(a, writeTool); err != nil {
		t.Fatalf("a's first call: %v", err)
	}
	if err := p.Authorize(b, writeTool); err != nil {
		t.Fatalf("b must have its own budget: %v", err)
	}
	if err := p.Authorize(a, writeTool); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("a's second call: expected ErrRateLimited, got %v", err)
	}
}
