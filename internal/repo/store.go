package repo

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

// Store persists completed analyses in a relational database. The driver is
// selectable between sqlite3 (default, single-node) and postgres.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured backend and ensures the schema exists.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if driver == "sqlite3" {
		// sqlite best practice for simple services
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies store reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	sample_rate DOUBLE PRECISION NOT NULL,
	channel_count INTEGER NOT NULL,
	original_count INTEGER NOT NULL,
	after_peak_count INTEGER NOT NULL,
	final_count INTEGER NOT NULL,
	removal_rate DOUBLE PRECISION NOT NULL,
	result TEXT NOT NULL
	);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// StoreAnalysis persists one analysis result and returns its generated ID.
func (s *Store) StoreAnalysis(ctx context.Context, result models.AnalysisResult) (string, error) {
	id, err := newUUIDv4()
	if err != nil {
		return "", fmt.Errorf("generate analysis id: %w", err)
	}
	result.AnalysisID = id

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}

	q := s.rebind(`INSERT INTO analyses
	(id, session_id, created_at, sample_rate, channel_count, original_count, after_peak_count, final_count, removal_rate, result)
	VALUES (?,?,?,?,?,?,?,?,?,?)`)
	_, err = s.db.ExecContext(ctx, q,
		id,
		result.SessionID,
		result.CreatedAt,
		result.SampleRate,
		len(result.Channels),
		result.Stats.Original,
		result.Stats.AfterPeakFilter,
		result.Stats.Final,
		result.Stats.RemovalRate,
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis fetches one stored analysis by ID; sql.ErrNoRows when absent.
func (s *Store) GetAnalysis(ctx context.Context, id string) (models.AnalysisResult, error) {
	q := s.rebind(`SELECT result FROM analyses WHERE id = ?`)

	var payload string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&payload); err != nil {
		return models.AnalysisResult{}, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return result, nil
}

// ListAnalyses returns stored analyses, newest first.
func (s *Store) ListAnalyses(ctx context.Context, req models.ListAnalysesRequest) ([]models.AnalysisResult, error) {
	limit := req.Limit
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT result FROM analyses`
	args := make([]any, 0, 2)
	if req.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, req.SessionID)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisResult, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("decode stored analysis: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// Summary aggregates stored analyses for reporting.
func (s *Store) Summary(ctx context.Context) (models.AnalysisSummary, error) {
	var summary models.AnalysisSummary

	row := s.db.QueryRowContext(ctx, `SELECT
	COUNT(*),
	COUNT(DISTINCT session_id),
	COALESCE(SUM(final_count), 0),
	COALESCE(AVG(final_count), 0),
	COALESCE(AVG(removal_rate), 0)
	FROM analyses`)
	if err := row.Scan(
		&summary.TotalAnalyses,
		&summary.UniqueSessions,
		&summary.TotalEvents,
		&summary.MeanFinalCount,
		&summary.MeanRemoval,
	); err != nil {
		return models.AnalysisSummary{}, fmt.Errorf("summarise analyses: %w", err)
	}
	return summary, nil
}

// rebind converts ? placeholders to $n for postgres; sqlite3 uses ? natively.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newUUIDv4() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant
	hexStr := hex.EncodeToString(b[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", hexStr[0:8], hexStr[8:12], hexStr[12:16], hexStr[16:20], hexStr[20:32]), nil
}
