/* Copyright 2025 Parishkeep Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the SQLite-backed local storage used by the
// record cache
package database

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoTransaction is an error for a transaction operation on a plain
// connection
var ErrNoTransaction = errors.New("not in a transaction")

// DB is a database connection or an open transaction. Functions that accept
// a *DB work the same against either.
type DB struct {
	db *sql.DB
	tx *sql.Tx
}

// Open opens a database connection at the given path, creating parent
// directories as needed
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating database directory at %s", dir)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	ret := &DB{db: db}
	if err := ret.ensureSchema(); err != nil {
		return nil, errors.Wrap(err, "ensuring schema")
	}

	return ret, nil
}

// ensureSchema runs the embedded schema on a fresh database
func (d *DB) ensureSchema() error {
	var count int
	err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'system'").Scan(&count)
	if err != nil {
		return errors.Wrap(err, "checking for system table")
	}

	if count > 0 {
		return nil
	}

	if _, err := d.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "running schema sql")
	}

	return nil
}

// Begin starts a transaction. The returned DB routes all calls through the
// transaction until Commit or Rollback.
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("already in a transaction")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{db: d.db, tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.tx == nil {
		return ErrNoTransaction
	}

	return d.tx.Commit()
}

// Rollback aborts the transaction
func (d *DB) Rollback() error {
	if d.tx == nil {
		return ErrNoTransaction
	}

	return d.tx.Rollback()
}

// Close closes the underlying connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Exec executes the given query
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.db.Exec(query, args...)
}

// Query runs the given query returning rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.db.Query(query, args...)
}

// QueryRow runs the given query returning a single row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.db.QueryRow(query, args...)
}
