package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultTable is the table the cleaned messages are persisted to.
const DefaultTable = "messages"

// RunsTable is the ETL run ledger. The messages table may not use its name.
const RunsTable = "etl_runs"

// DefaultBatchSize is the number of rows inserted per prepared-statement batch.
const DefaultBatchSize = 500

// SQLiteStorage persists the cleaned message table and the ETL run ledger in SQLite.
type SQLiteStorage struct {
	db        *sql.DB
	dbPath    string
	table     string
	batchSize int
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithTable overrides the name of the messages table.
func WithTable(name string) Option {
	return func(s *SQLiteStorage) {
		if name != "" {
			s.table = name
		}
	}
}

// WithBatchSize sets how many rows are inserted between progress logs.
func WithBatchSize(n int) Option {
	return func(s *SQLiteStorage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:        db,
		dbPath:    dbPath,
		table:     DefaultTable,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Table returns the name of the messages table.
func (s *SQLiteStorage) Table() string {
	return s.table
}
