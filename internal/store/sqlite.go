package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Options connection pool limits
type Options struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SQLiteStore read-only SQLite dataset store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the dataset file read-only. It never creates the file.
func NewSQLiteStore(ctx context.Context, dbPath string, opts Options) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrDataUnavailable, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrDataUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// Query runs a read and materializes all rows
func (s *SQLiteStore) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %w", ErrDataUnavailable, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read columns: %w", ErrDataUnavailable, err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %w", ErrDataUnavailable, err)
		}
		// driver buffers are reused between rows
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		result = append(result, Row(values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate rows: %w", ErrDataUnavailable, err)
	}

	return result, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
