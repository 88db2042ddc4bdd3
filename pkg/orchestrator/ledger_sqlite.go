package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
)

// SQLiteLedger persists request records in SQLite with the same retention
// contract as the in-memory ring.
type SQLiteLedger struct {
	db     *sql.DB
	policy RetentionPolicy
}

// OpenSQLiteLedger opens a SQLite-backed ledger at path. An empty path
// opens an in-memory database.
func OpenSQLiteLedger(path string, policy RetentionPolicy) (*SQLiteLedger, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable, "open ledger database", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	ledger, err := NewSQLiteLedger(db, policy)
	if err != nil {
		db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewSQLiteLedger wraps an open database handle and ensures schema.
func NewSQLiteLedger(db *sql.DB, policy RetentionPolicy) (*SQLiteLedger, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "ledger db is nil", nil)
	}
	if err := ensureLedgerSchema(db); err != nil {
		return nil, errors.New(errors.CodeUnavailable, "ensure ledger schema", err)
	}
	return &SQLiteLedger{db: db, policy: policy}, nil
}

// Append stores one request record and trims the table back to capacity.
func (l *SQLiteLedger) Append(ctx context.Context, rec core.RequestRecord) error {
	response, err := encodeResponse(rec.Response)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO request_ledger (
			request_id, query, status, started_at, duration_ns, response_json, error_text
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Query,
		string(rec.Status),
		rec.StartedAt.UTC(),
		int64(rec.Duration),
		string(response),
		rec.Error,
	)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
		DELETE FROM request_ledger
		WHERE id NOT IN (SELECT id FROM request_ledger ORDER BY id DESC LIMIT ?)
	`, l.policy.capacity())
	return err
}

// Recent returns the newest records up to limit, oldest first among them.
func (l *SQLiteLedger) Recent(ctx context.Context, limit int) ([]core.RequestRecord, error) {
	query := `
		SELECT request_id, query, status, started_at, duration_ns, response_json, error_text
		FROM request_ledger
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []core.RequestRecord
	for rows.Next() {
		var (
			rec        core.RequestRecord
			status     string
			started    sql.NullTime
			durationNS int64
			response   string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Query,
			&status,
			&started,
			&durationNS,
			&response,
			&rec.Error,
		); err != nil {
			return nil, err
		}
		rec.Status = core.RequestStatus(status)
		if started.Valid {
			rec.StartedAt = started.Time.UTC()
		}
		rec.Duration = time.Duration(durationNS)
		if response != "" {
			if out, err := decodeResponse([]byte(response)); err == nil {
				rec.Response = out
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// newest-first from the query, callers want oldest-first
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// Len reports the number of retained records.
func (l *SQLiteLedger) Len(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM request_ledger`).Scan(&n)
	return n, err
}

// Prune drops records older than the policy's MaxAge. With no MaxAge it
// keeps everything.
func (l *SQLiteLedger) Prune(ctx context.Context) (int, error) {
	if l.policy.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-l.policy.MaxAge)
	res, err := l.db.ExecContext(ctx, `DELETE FROM request_ledger WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close releases the underlying database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func ensureLedgerSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS request_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			duration_ns INTEGER NOT NULL,
			response_json TEXT,
			error_text TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_request_ledger_started ON request_ledger(started_at);
	`)
	return err
}

func encodeResponse(response any) ([]byte, error) {
	if response == nil {
		return []byte("null"), nil
	}
	return json.Marshal(response)
}

func decodeResponse(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
