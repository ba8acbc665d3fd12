package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"concord/internal/audit"
	"concord/internal/auth"
	"concord/internal/executor"
	"concord/internal/logging"
	"concord/internal/tools"
)

const defaultIdleTimeout = 5 * time.Minute

// ServerConfig wires a Server.
type ServerConfig struct {
	Addr string

	Tokens   *auth.TokenStore
	Policy   *auth.Policy
	Registry *tools.Registry
	Executor *executor.Executor
	Auditor  audit.Store

	// IdleTimeout closes connections with no inbound frames (default 5m).
	IdleTimeout time.Duration

	Logger logging.Logger
	Debug  bool
}

// Server exposes the tool pipeline over websocket plus a small HTTP
// surface for health, metrics, and audit review. Every call runs the same
// pipeline: resolve identity, authorize, execute, audit, respond.
type Server struct {
	cfg     ServerConfig
	engine  *gin.Engine
	metrics *Metrics
	logger  logging.Logger

	upgrader websocket.Upgrader

	httpServer *http.Server
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("server requires a token store")
	}
	if cfg.Policy == nil {
		return nil, errors.New("server requires an authorization policy")
	}
	if cfg.Registry == nil || cfg.Executor == nil {
		return nil, errors.New("server requires a registry and executor")
	}
	if cfg.Auditor == nil {
		return nil, errors.New("server requires an audit store")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowWebSockets = true
	engine.Use(cors.New(corsConfig))

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: NewMetrics(),
		logger:  logging.OrNop(cfg.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	engine.GET("/ws", s.handleWS)

	api := engine.Group("/api", s.requireRole(tools.RoleAdmin))
	api.GET("/audit", s.handleAuditQuery)

	return s, nil
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe blocks until the context ends or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.cfg.Addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()
	s.logger.Info("tool server listening on %s", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tools": s.cfg.Registry.Len()})
}

// bearerToken extracts the credential from the Authorization header, with
// a query fallback for websocket clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("access_token")
}

// authenticate resolves the peer's identity, counting failures against the
// peer address so unauthenticated probing is bounded.
func (s *Server) authenticate(c *gin.Context) (auth.Identity, bool) {
	id, err := s.cfg.Tokens.Resolve(bearerToken(c))
	if err != nil {
		s.metrics.authFailures.Inc()
		status := http.StatusUnauthorized
		if errors.Is(s.cfg.Policy.NoteAuthFailure(c.ClientIP()), auth.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		s.logger.Warn("authentication failed from %s", c.ClientIP())
		c.AbortWithStatusJSON(status, gin.H{"error": "authentication failed"})
		return auth.Identity{}, false
	}
	return id, true
}

func (s *Server) requireRole(min tools.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.authenticate(c)
		if !ok {
			return
		}
		if !id.Role.Allows(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Set("identity", id)
	}
}

// handleAuditQuery serves the audit trail to admins.
func (s *Server) handleAuditQuery(c *gin.Context) {
	filter := audit.Filter{
		ClientID: c.Query("client_id"),
		Tool:     c.Query("tool"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = t
	}

	records, err := s.cfg.Auditor.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// conn is one authenticated websocket session.
type conn struct {
	ws       *websocket.Conn
	identity auth.Identity

	// writeMu serializes frame writes; call handlers run concurrently.
	writeMu sync.Mutex
}

func (cn *conn) writeFrame(f Frame) error {
	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	return cn.ws.WriteJSON(f)
}

func (s *Server) handleWS(c *gin.Context) {
	identity, ok := s.authenticate(c)
	if !ok {
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()
	defer ws.Close() //nolint:errcheck

	s.logger.Info("client %s connected (role %s)", identity.ClientID, identity.Role)

	cn := &conn{ws: ws, identity: identity}
	ctx := c.Request.Context()

	var calls sync.WaitGroup
	defer calls.Wait()

	for {
		if err := ws.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}

		var frame Frame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("client %s read error: %v", identity.ClientID, err)
			}
			return
		}

		if frame.Type != FrameCall {
			_ = cn.writeFrame(errorFrame(frame.ID, tools.KindInvalidArguments, "unexpected frame type %q", frame.Type))
			continue
		}
		if frame.ID == "" || frame.Tool == "" {
			_ = cn.writeFrame(errorFrame(frame.ID, tools.KindInvalidArguments, "call frames require id and tool"))
			continue
		}

		calls.Add(1)
		go func(f Frame) {
			defer calls.Done()
			result := s.runCall(ctx, cn.identity, tools.ToolCall{ID: f.ID, Name: f.Tool, Args: f.Args})
			if err := cn.writeFrame(resultFrame(result)); err != nil {
				s.logger.Warn("client %s write failed: %v", cn.identity.ClientID, err)
			}
		}(frame)
	}
}

// runCall is the trust pipeline for one call: lookup, authorize, execute,
// audit. Denied calls never reach the executor but are still recorded.
func (s *Server) runCall(ctx context.Context, id auth.Identity, call tools.ToolCall) *tools.ToolResult {
	def, err := s.cfg.Registry.Lookup(call.Name)
	if err != nil {
		res := tools.Failure(call.ID, tools.KindUnknownTool, "unknown tool: %s", call.Name)
		s.record(ctx, id, call, audit.OutcomeError, res.Error)
		s.metrics.observeCall(call.Name, string(tools.KindUnknownTool), -1)
		return res
	}

	if err := s.cfg.Policy.Authorize(id, def); err != nil {
		kind := tools.KindInsufficientRole
		if errors.Is(err, auth.ErrRateLimited) {
			kind = tools.KindRateLimited
		}
		res := tools.Failure(call.ID, kind, "%s: %v", call.Name, err)
		s.record(ctx, id, call, audit.OutcomeDenied, res.Error)
		s.metrics.observeCall(call.Name, "denied", -1)
		s.logger.Warn("denied %s for client %s: %v", call.Name, id.ClientID, err)
		return res
	}

	start := time.Now()
	result := s.cfg.Executor.Execute(ctx, call)
	elapsed := time.Since(start).Seconds()

	outcome := audit.OutcomeOK
	detail := audit.Summarize(result.Content)
	metricOutcome := "ok"
	if !result.Success {
		outcome = audit.OutcomeError
		detail = result.Error
		metricOutcome = string(result.Kind)
	}
	s.metrics.observeCall(call.Name, metricOutcome, elapsed)

	// The executed result stands even when the audit write fails; the
	// broken trail is logged, not propagated.
	s.record(ctx, id, call, outcome, detail)
	return result
}

func (s *Server) record(ctx context.Context, id auth.Identity, call tools.ToolCall, outcome audit.Outcome, detail string) {
	if err := s.recordErr(ctx, id, call, outcome, detail); err != nil {
		s.logger.Error("audit write failed for %s: %v", call.Name, err)
	}
}

func (s *Server) recordErr(ctx context.Context, id auth.Identity, call tools.ToolCall, outcome audit.Outcome, detail string) error {
	return s.cfg.Auditor.Record(ctx, audit.Record{
		ClientID: id.ClientID,
		Tool:     call.Name,
		Args:     call.Args,
		Outcome:  outcome,
		Detail:   detail,
	})
}
