// Package sqlstore implements contacts.Store on PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Connection pool settings for Postgres.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

// Dialect selects placeholder style, migrations and scan ordering.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// ContactRepo implements contacts.Store against a SQL database.
type ContactRepo struct {
	db      *sql.DB
	dialect Dialect
}

var _ contacts.Store = (*ContactRepo)(nil)

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, d Dialect) *ContactRepo { return &ContactRepo{db: db, dialect: d} }

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, dsn string) (*ContactRepo, error) {
	if dsn == "" {
		return nil, errors.New("database DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	return open(ctx, db, Postgres)
}

// OpenSQLite creates the parent directory if needed, then opens and migrates.
func OpenSQLite(ctx context.Context, path string) (*ContactRepo, error) {
	if path == "" {
		return nil, errors.New("sqlite path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return open(ctx, db, SQLite)
}

func open(ctx context.Context, db *sql.DB, d Dialect) (*ContactRepo, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	r := New(db, d)
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// DB exposes the handle, e.g. for advisory locks.
func (r *ContactRepo) DB() *sql.DB { return r.db }

// Close closes the underlying database.
func (r *ContactRepo) Close() error { return r.db.Close() }

// Migrate creates the schema if it does not exist.
func (r *ContactRepo) Migrate(ctx context.Context) error {
	m := postgresMigrations
	if r.dialect == SQLite {
		m = sqliteMigrations
	}
	if _, err := r.db.ExecContext(ctx, m); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $1..$n for Postgres.
func (r *ContactRepo) rebind(q string) string {
	if r.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

const contactColumns = `id, url, title, contact_email, source, category, segment, scraped_at,
	sequence_step, first_email_sent_at, last_email_sent_at, last_email_subject, last_email_body,
	sequence_completed, do_not_contact, stop_sequence, bounce_detected, abandoned, abandoned_at,
	manually_replied, manually_replied_at`

func (r *ContactRepo) Lookup(ctx context.Context, id string) (contacts.Existence, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT 1 FROM contacts WHERE id = ?`), id).Scan(&one)
	if err == sql.ErrNoRows {
		return contacts.Absent, nil
	}
	if err != nil {
		return contacts.Unknown, fmt.Errorf("lookup contact: %w", err)
	}
	return contacts.Present, nil
}

func (r *ContactRepo) Get(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`), id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, contacts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	q := `INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, r.rebind(q),
		c.ID, c.URL, c.Title, c.ContactEmail, c.Source, c.Category, c.Segment, unixOrNull(&c.ScrapedAt),
		c.SequenceStep, unixOrNull(c.FirstEmailSentAt), unixOrNull(c.LastEmailSentAt), c.LastEmailSubject, c.LastEmailBody,
		c.SequenceCompleted, c.DoNotContact, c.StopSequence, c.BounceDetected, c.Abandoned, unixOrNull(c.AbandonedAt),
		c.ManuallyReplied, unixOrNull(c.ManuallyRepliedAt),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	if n == 0 {
		return contacts.ErrAlreadyExists
	}
	return nil
}

// Update applies ch in one statement. When nothing matched, a follow-up
// lookup tells a missing row from a step conflict.
func (r *ContactRepo) Update(ctx context.Context, id string, ch contacts.Changes) error {
	if ch.Empty() {
		return errors.New("sqlstore: empty contact update")
	}

	var (
		sets []string
		args []interface{}
	)
	set := func(expr string, v interface{}) {
		sets = append(sets, expr)
		args = append(args, v)
	}
	if ch.SequenceStep != nil {
		set("sequence_step = ?", *ch.SequenceStep)
	}
	if ch.LastEmailSentAt != nil {
		set("last_email_sent_at = ?", ch.LastEmailSentAt.Unix())
	}
	if ch.FirstEmailSentAt != nil {
		set("first_email_sent_at = COALESCE(first_email_sent_at, ?)", ch.FirstEmailSentAt.Unix())
	}
	if ch.LastEmailSubject != nil {
		set("last_email_subject = ?", *ch.LastEmailSubject)
	}
	if ch.LastEmailBody != nil {
		set("last_email_body = ?", *ch.LastEmailBody)
	}
	if ch.SequenceCompleted != nil {
		set("sequence_completed = ?", *ch.SequenceCompleted)
	}
	if ch.Abandoned != nil {
		set("abandoned = ?", *ch.Abandoned)
	}
	if ch.AbandonedAt != nil {
		set("abandoned_at = ?", ch.AbandonedAt.Unix())
	}

	q := `UPDATE contacts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if ch.IfStep != nil {
		q += ` AND sequence_step = ?`
		args = append(args, *ch.IfStep)
	}

	res, err := r.db.ExecContext(ctx, r.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if n > 0 {
		return nil
	}

	ex, err := r.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if ex == contacts.Absent {
		return contacts.ErrNotFound
	}
	return contacts.ErrConflict
}

// Scan returns every contact in insertion order.
func (r *ContactRepo) Scan(ctx context.Context) ([]domain.Contact, error) {
	order := "seq"
	if r.dialect == SQLite {
		order = "rowid"
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY `+order)
	if err != nil {
		return nil, fmt.Errorf("scan contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(s rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	var scraped, first, last, abandonedAt, replied sql.NullInt64
	err := s.Scan(
		&c.ID, &c.URL, &c.Title, &c.ContactEmail, &c.Source, &c.Category, &c.Segment, &scraped,
		&c.SequenceStep, &first, &last, &c.LastEmailSubject, &c.LastEmailBody,
		&c.SequenceCompleted, &c.DoNotContact, &c.StopSequence, &c.BounceDetected, &c.Abandoned, &abandonedAt,
		&c.ManuallyReplied, &replied,
	)
	if err != nil {
		return nil, err
	}
	if t := fromUnix(scraped); t != nil {
		c.ScrapedAt = *t
	}
	c.FirstEmailSentAt = fromUnix(first)
	c.LastEmailSentAt = fromUnix(last)
	c.AbandonedAt = fromUnix(abandonedAt)
	c.ManuallyRepliedAt = fromUnix(replied)
	return &c, nil
}

func unixOrNull(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Unix()
}

func fromUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
