// Package store persists processed posts and opportunities in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matheuskafuri/dropwatch/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			author     TEXT NOT NULL DEFAULT '',
			text       TEXT NOT NULL,
			link       TEXT NOT NULL DEFAULT '',
			published  DATETIME NOT NULL,
			fetched_at DATETIME NOT NULL,
			retweet    INTEGER NOT NULL DEFAULT 0,
			reply      INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_posts_published ON posts(published);

		CREATE TABLE IF NOT EXISTS opportunities (
			source_id           TEXT PRIMARY KEY,
			project_name        TEXT,
			token_symbol        TEXT,
			description         TEXT,
			deadline            DATETIME,
			participation_steps TEXT,
			source_url          TEXT NOT NULL,
			confidence_score    REAL NOT NULL,
			kind                TEXT NOT NULL DEFAULT 'other',
			source              TEXT NOT NULL,
			author              TEXT NOT NULL DEFAULT '',
			text                TEXT NOT NULL,
			published           DATETIME NOT NULL,
			created_at          DATETIME NOT NULL,
			notified            INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_opportunities_score ON opportunities(confidence_score DESC, published DESC);
		CREATE INDEX IF NOT EXISTS idx_opportunities_source ON opportunities(source);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// SavePosts records posts as processed. Posts already stored are left as is.
func (s *Store) SavePosts(posts []Post) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO posts (id, source, author, text, link, published, fetched_at, retweet, reply)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		_, err := stmt.Exec(p.ID, p.Source, p.Author, p.Text, p.Link,
			p.Published.UTC(), p.FetchedAt.UTC(), p.Retweet, p.Reply)
		if err != nil {
			return fmt.Errorf("saving post %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// UnseenPosts returns the posts whose IDs are not stored yet, keeping input
// order and dropping duplicates within posts.
func (s *Store) UnseenPosts(posts []Post) ([]Post, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	for i, p := range posts {
		placeholders[i] = "?"
		args[i] = p.ID
	}

	rows, err := s.readDB.Query("SELECT id FROM posts WHERE id IN ("+strings.Join(placeholders, ",")+")", args...) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("querying seen posts: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning post id: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unseen []Post
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		unseen = append(unseen, p)
	}
	return unseen, nil
}

// SaveOpportunities upserts opportunities. Re-saving an opportunity refreshes
// its fields and score but keeps its notified flag and creation time.
func (s *Store) SaveOpportunities(ops []Opportunity) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO opportunities (
			source_id, project_name, token_symbol, description, deadline, participation_steps,
			source_url, confidence_score, kind, source, author, text, published, created_at, notified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			project_name = excluded.project_name,
			token_symbol = excluded.token_symbol,
			description = excluded.description,
			deadline = excluded.deadline,
			participation_steps = excluded.participation_steps,
			confidence_score = excluded.confidence_score,
			kind = excluded.kind
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, o := range ops {
		created := o.CreatedAt
		if created.IsZero() {
			created = now
		}
		_, err := stmt.Exec(
			o.SourceID, nullString(o.ProjectName), nullString(o.TokenSymbol), nullString(o.Description),
			nullTime(o.Deadline), nullString(o.ParticipationSteps),
			o.SourceURL, o.ConfidenceScore, o.Kind, o.Source, o.Author, o.Text,
			o.Published.UTC(), created.UTC(), o.Notified,
		)
		if err != nil {
			return fmt.Errorf("saving opportunity %s: %w", o.SourceID, err)
		}
	}

	return tx.Commit()
}

const opportunityColumns = `source_id, project_name, token_symbol, description, deadline, participation_steps,
	source_url, confidence_score, kind, source, author, text, published, created_at, notified`

// GetOpportunities returns opportunities matching opts, highest score first
// and newest first among equal scores.
func (s *Store) GetOpportunities(opts QueryOpts) ([]Opportunity, error) {
	var (
		where []string
		args  []any
	)

	if !opts.Since.IsZero() {
		where = append(where, "published >= ?")
		args = append(args, opts.Since.UTC())
	}

	if opts.MinScore > 0 {
		where = append(where, "confidence_score >= ?")
		args = append(args, opts.MinScore)
	}

	if len(opts.Sources) > 0 {
		placeholders := make([]string, len(opts.Sources))
		for i, src := range opts.Sources {
			placeholders[i] = "?"
			args = append(args, src)
		}
		where = append(where, "source IN ("+strings.Join(placeholders, ",")+")") //nolint:gosec
	}

	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}

	if opts.Search != "" {
		where = append(where, "(project_name LIKE ? OR token_symbol LIKE ? OR text LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term, term)
	}

	if opts.Unnotified {
		where = append(where, "notified = 0")
	}

	query := "SELECT " + opportunityColumns + " FROM opportunities"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY confidence_score DESC, published DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying opportunities: %w", err)
	}
	defer rows.Close()

	var ops []Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, rows.Err()
}

// GetOpportunity returns the opportunity built from the post with id.
func (s *Store) GetOpportunity(id string) (Opportunity, error) {
	row := s.readDB.QueryRow("SELECT "+opportunityColumns+" FROM opportunities WHERE source_id = ?", id)
	o, err := scanOpportunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Opportunity{}, fmt.Errorf("opportunity %s: %w", id, ErrNotFound)
	}
	return o, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(sc scanner) (Opportunity, error) {
	var (
		o                           Opportunity
		project, token, desc, steps sql.NullString
		deadline                    sql.NullTime
	)
	err := sc.Scan(
		&o.SourceID, &project, &token, &desc, &deadline, &steps,
		&o.SourceURL, &o.ConfidenceScore, &o.Kind, &o.Source, &o.Author, &o.Text,
		&o.Published, &o.CreatedAt, &o.Notified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Opportunity{}, err
		}
		return Opportunity{}, fmt.Errorf("scanning opportunity: %w", err)
	}
	o.ProjectName = stringPtr(project)
	o.TokenSymbol = stringPtr(token)
	o.Description = stringPtr(desc)
	o.ParticipationSteps = stringPtr(steps)
	if deadline.Valid {
		d := deadline.Time.UTC()
		o.Deadline = &d
	}
	return o, nil
}

// MarkNotified flags the given opportunities as alerted.
func (s *Store) MarkNotified(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	_, err := s.writeDB.Exec("UPDATE opportunities SET notified = 1 WHERE source_id IN ("+strings.Join(placeholders, ",")+")", args...) //nolint:gosec
	if err != nil {
		return fmt.Errorf("marking notified: %w", err)
	}
	return nil
}

// Prune deletes opportunities and processed posts published before the
// retention window and reclaims disk space. It returns the number of
// opportunities removed.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()

	tx, err := s.writeDB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM opportunities WHERE published < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning opportunities: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("DELETE FROM posts WHERE published < ?", cutoff); err != nil {
		return 0, fmt.Errorf("pruning posts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if _, err := s.writeDB.Exec("VACUUM"); err != nil {
		return deleted, fmt.Errorf("vacuum: %w", err)
	}
	return deleted, nil
}

// Stats reports row counts and the on-disk size of the database at dbPath.
func (s *Store) Stats(dbPath string) (Stats, error) {
	var st Stats
	err := s.readDB.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM opportunities),
			(SELECT COUNT(*) FROM opportunities WHERE notified = 1)
	`).Scan(&st.Posts, &st.Opportunities, &st.Notified)
	if err != nil {
		return Stats{}, fmt.Errorf("counting rows: %w", err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return Stats{}, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	st.Size = info.Size()
	return st, nil
}

// NeedsRun reports whether the last completed scan is older than interval.
func (s *Store) NeedsRun(interval time.Duration) bool {
	last, ok := s.LastRun()
	if !ok {
		return true
	}
	return time.Since(last) > interval
}

// LastRun returns the time of the last completed scan.
func (s *Store) LastRun() (time.Time, bool) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_run'").Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Store) SetLastRun() error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_run', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().UTC().Format(time.RFC3339))
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// FromCandidate wraps a freshly built candidate with its post's metadata.
func FromCandidate(c domain.Candidate, p Post, kind string) Opportunity {
	return Opportunity{
		Candidate: c,
		Kind:      kind,
		Source:    p.Source,
		Author:    p.Author,
		Text:      p.Text,
		Published: p.Published,
	}
}
