package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	id                   uuid PRIMARY KEY,
	source_url           text NOT NULL,
	title                text NOT NULL,
	description          text NOT NULL DEFAULT '',
	responsibilities     text NOT NULL DEFAULT '',
	requirements         text NOT NULL DEFAULT '',
	salary               text NOT NULL DEFAULT '',
	work_schedule        text NOT NULL DEFAULT '',
	work_shift           text NOT NULL DEFAULT '',
	benefits             text NOT NULL DEFAULT '',
	work_location        text NOT NULL DEFAULT '',
	hiring_process_steps text NOT NULL DEFAULT '',
	client               text NOT NULL DEFAULT '',
	category             text NOT NULL DEFAULT '',
	product              text NOT NULL DEFAULT '',
	site                 text NOT NULL DEFAULT '',
	extracted_at         timestamptz NOT NULL,
	created_at           timestamptz NOT NULL,
	updated_at           timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS job_postings_created_at_idx ON job_postings (created_at DESC);`

const columns = `id::text, source_url, title, description, responsibilities, requirements,
	salary, work_schedule, work_shift, benefits, work_location, hiring_process_steps,
	client, category, product, site, extracted_at, created_at, updated_at`

// Postgres is a Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres wraps pool. Call EnsureSchema once before use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the postings table when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, in posting.NewPosting) (*posting.Posting, error) {
	p, err := newRecord(in, s.now())
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO job_postings (id, source_url, title, description, responsibilities, requirements,
			salary, work_schedule, work_shift, benefits, work_location, hiring_process_steps,
			client, category, product, site, extracted_at, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		p.ID.String(), p.SourceURL, p.Title, p.Description, p.Responsibilities, p.Requirements,
		p.Salary, p.WorkSchedule, p.WorkShift, p.Benefits, p.WorkLocation, p.HiringProcessSteps,
		p.Client, p.Category, p.Product, p.Site, p.ExtractedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create posting: %w", err)
	}
	return p, nil
}

func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM job_postings WHERE id = $1::uuid`, id.String())
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return p, nil
}

// List returns matching postings, newest first.
func (s *Postgres) List(ctx context.Context, f Filter) ([]posting.Posting, error) {
	query, args := listQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list postings query: %w", err)
	}
	defer rows.Close()

	out := make([]posting.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("list postings scan: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return out, nil
}

func listQuery(f Filter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Site != "" {
		add("site = ?", f.Site)
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if f.Client != "" {
		add("lower(client) = lower(?)", f.Client)
	}
	q := `SELECT ` + columns + ` FROM job_postings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	q += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))
	return q, args
}

func scanPosting(row pgx.Row) (*posting.Posting, error) {
	var p posting.Posting
	var id string
	if err := row.Scan(
		&id, &p.SourceURL, &p.Title, &p.Description, &p.Responsibilities, &p.Requirements,
		&p.Salary, &p.WorkSchedule, &p.WorkShift, &p.Benefits, &p.WorkLocation, &p.HiringProcessSteps,
		&p.Client, &p.Category, &p.Product, &p.Site, &p.ExtractedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	p.ID = parsed
	return &p, nil
}
