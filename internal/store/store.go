// SPDX-License-Identifier: MIT

// Package store persists the story dataset in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/ManuGH/asfstats/internal/catalog"
)

// Store provides SQLite persistence for the story dataset. Refreshes
// replace the whole table in one transaction, so readers always see a
// complete dataset.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite store and runs migrations. The pragmas ride
// in the DSN so they apply to every connection in the pool.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		month TEXT NOT NULL,
		month_idx INTEGER NOT NULL,
		title TEXT NOT NULL,
		published_as TEXT NOT NULL,
		author TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stories_author ON stories(author);
	CREATE INDEX IF NOT EXISTS idx_stories_year ON stories(year);
	CREATE INDEX IF NOT EXISTS idx_stories_author_year ON stories(author, year);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ReplaceAll swaps the dataset for the given stories in one transaction.
// Listing order is preserved through the autoincrement id.
func (s *Store) ReplaceAll(ctx context.Context, stories []catalog.Story) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stories`); err != nil {
		return fmt.Errorf("clear stories: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO stories (year, month, month_idx, title, published_as, author)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, story := range stories {
		idx, ok := catalog.MonthIndex(story.Month)
		if !ok {
			return fmt.Errorf("insert %q: unknown month %q", story.Title, story.Month)
		}
		if _, err := stmt.ExecContext(ctx, story.Year, story.Month, idx, story.Title, story.PublishedAs, story.Author); err != nil {
			return fmt.Errorf("insert %q: %w", story.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Filter narrows story queries. Zero values mean no constraint.
type Filter struct {
	Author string
	Year   int
}

// Stories returns stories in listing order, optionally filtered.
func (s *Store) Stories(ctx context.Context, f Filter) ([]catalog.Story, error) {
	query := `SELECT year, month, title, published_as, author FROM stories`
	var (
		conds []string
		args  []any
	)
	if f.Author != "" {
		conds = append(conds, `author = ?`)
		args = append(args, f.Author)
	}
	if f.Year != 0 {
		conds = append(conds, `year = ?`)
		args = append(args, f.Year)
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stories []catalog.Story
	for rows.Next() {
		var st catalog.Story
		if err := rows.Scan(&st.Year, &st.Month, &st.Title, &st.PublishedAs, &st.Author); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

// Count returns the number of stories in the dataset.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stories: %w", err)
	}
	return n, nil
}

// Authors returns every canonical author name in alphabetical order.
func (s *Store) Authors(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT author FROM stories ORDER BY author`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var authors []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// AuthorCount pairs an author with a story count.
type AuthorCount struct {
	Author  string `json:"author"`
	Stories int    `json:"stories"`
}

// AuthorTotals returns story counts per author, most prolific first, ties
// broken alphabetically.
func (s *Store) AuthorTotals(ctx context.Context) ([]AuthorCount, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT author, COUNT(*) AS cnt FROM stories
	GROUP BY author
	ORDER BY cnt DESC, author ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query author totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []AuthorCount
	for rows.Next() {
		var ac AuthorCount
		if err := rows.Scan(&ac.Author, &ac.Stories); err != nil {
			return nil, fmt.Errorf("scan author total: %w", err)
		}
		totals = append(totals, ac)
	}
	return totals, rows.Err()
}

// TopAuthors returns the n most prolific authors.
func (s *Store) TopAuthors(ctx context.Context, n int) ([]AuthorCount, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT author, COUNT(*) AS cnt FROM stories
	GROUP BY author
	ORDER BY cnt DESC, author ASC
	LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query top authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var top []AuthorCount
	for rows.Next() {
		var ac AuthorCount
		if err := rows.Scan(&ac.Author, &ac.Stories); err != nil {
			return nil, fmt.Errorf("scan top author: %w", err)
		}
		top = append(top, ac)
	}
	return top, rows.Err()
}

// AuthorYearCounts returns one author's story count per year. Years
// without stories are absent; callers zero-fill over the era.
func (s *Store) AuthorYearCounts(ctx context.Context, author string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT year, COUNT(*) FROM stories
	WHERE author = ?
	GROUP BY year
	`, author)
	if err != nil {
		return nil, fmt.Errorf("query author years: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var year, cnt int
		if err := rows.Scan(&year, &cnt); err != nil {
			return nil, fmt.Errorf("scan author year: %w", err)
		}
		counts[year] = cnt
	}
	return counts, rows.Err()
}

// YearMatrix returns story counts by author and year for the pivot view.
func (s *Store) YearMatrix(ctx context.Context) (map[string]map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT author, year, COUNT(*) FROM stories
	GROUP BY author, year
	`)
	if err != nil {
		return nil, fmt.Errorf("query year matrix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matrix := make(map[string]map[int]int)
	for rows.Next() {
		var (
			author    string
			year, cnt int
		)
		if err := rows.Scan(&author, &year, &cnt); err != nil {
			return nil, fmt.Errorf("scan year matrix: %w", err)
		}
		if matrix[author] == nil {
			matrix[author] = make(map[int]int)
		}
		matrix[author][year] = cnt
	}
	return matrix, rows.Err()
}

// Stats summarizes the dataset for the about view.
type Stats struct {
	Years   int `json:"years"`
	Issues  int `json:"issues"`
	Stories int `json:"stories"`
	Authors int `json:"authors"`
}

// Stats returns dataset-level counts: distinct years, distinct issues
// (year + month pairs), stories and canonical authors.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
	SELECT
		COUNT(DISTINCT year),
		COUNT(DISTINCT year || '-' || month),
		COUNT(*),
		COUNT(DISTINCT author)
	FROM stories
	`).Scan(&st.Years, &st.Issues, &st.Stories, &st.Authors)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
