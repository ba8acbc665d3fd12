package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    client_id  TEXT NOT NULL,
    tool       TEXT NOT NULL,
    args       JSONB,
    outcome    TEXT NOT NULL,
    detail     TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log (created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_client ON audit_log (client_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_tool ON audit_log (tool, created_at);
`

// PostgresStore is the durable audit log used by the gateway.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the audit schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit store: %w", err)
	}
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	var args []byte
	if rec.Args != nil {
		encoded, err := json.Marshal(rec.Args)
		if err != nil {
			return fmt.Errorf("%w: encode args: %v", ErrWriteFailed, err)
		}
		args = encoded
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, created_at, client_id, tool, args, outcome, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Time, rec.ClientID, rec.Tool, args, string(rec.Outcome), Summarize(rec.Detail),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ClientID != "" {
		add("client_id = $%d", filter.ClientID)
	}
	if filter.Tool != "" {
		add("tool = $%d", filter.Tool)
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at < $%d", filter.To)
	}

	query := `SELECT id, created_at, client_id, tool, args, outcome, detail FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			rawArgs []byte
			outcome string
		)
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.ClientID, &rec.Tool, &rawArgs, &outcome, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		if len(rawArgs) > 0 {
			if err := json.Unmarshal(rawArgs, &rec.Args); err != nil {
				return nil, fmt.Errorf("decode audit args: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
