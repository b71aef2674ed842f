package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/metrics"
)

const (
	defaultSQLiteDSN    = "file:defense.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	defaultPostgresDSN  = "postgres://localhost:5432/defense?sslmode=disable"
	defaultQueryTimeout = 5 * time.Second
)

// SQLStore keeps sessions in a single table. The session body is the export
// document, so a row can be copied out and imported as-is.
type SQLStore struct {
	db           *sql.DB
	driver       string
	queryTimeout time.Duration
	maxOpenConns int
}

// OpenSQL opens a sqlite or postgres database and ensures the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{driver: driver, queryTimeout: defaultQueryTimeout}
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		// One writer avoids SQLITE_BUSY between autosave workers.
		s.maxOpenConns = 1
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	s.db = db

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := db.PingContext(qctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := s.ensureSchema(qctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *SQLStore) SaveIfNewer(ctx context.Context, sess *model.Session) (bool, error) {
	if sess == nil {
		return false, ErrNilSession
	}
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("save", sinceMs(start)) }()

	var body bytes.Buffer
	if err := document.Encode(&body, sess); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id,revision,student_name,department,body,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET revision=excluded.revision, student_name=excluded.student_name,
			department=excluded.department, body=excluded.body, updated_at=excluded.updated_at
		WHERE sessions.revision < excluded.revision`,
		sess.ID, sess.Revision, sess.Student.Name, sess.Student.Department, body.String(),
		sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli())
	if err != nil {
		metrics.RecordErrorByComponent("repository", "save_failed")
		return false, fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	if n > 0 {
		metrics.UpdateStoreRecords(s.Count(ctx))
	}
	return n > 0, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*model.Session, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("get", sinceMs(start)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var (
		body             string
		revision         int64
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body,revision,created_at,updated_at FROM sessions WHERE id=$1`, id).
		Scan(&body, &revision, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	doc, err := document.Decode(bytes.NewBufferString(body))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	sess := doc.Session(id)
	sess.Revision = revision
	sess.CreatedAt = time.UnixMilli(created).UTC()
	sess.UpdatedAt = time.UnixMilli(updated).UTC()
	return sess, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	metrics.UpdateStoreRecords(s.Count(ctx))
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("list", sinceMs(start)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,revision,student_name,department,updated_at FROM sessions ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			updated int64
		)
		if err := rows.Scan(&r.ID, &r.Revision, &r.Student, &r.Department, &updated); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		r.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Count(ctx context.Context) int {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count_failed")
		return 0
	}
	return n
}

func (s *SQLStore) Close() error { return s.db.Close() }

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  revision INTEGER NOT NULL,
  student_name TEXT NOT NULL DEFAULT '',
  department TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  revision BIGINT NOT NULL,
  student_name TEXT NOT NULL DEFAULT '',
  department TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
`
