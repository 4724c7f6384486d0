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

// Package localstore is the durable on-device cache of records plus the
// pending-mutation queue. It performs no network I/O and is safe to call
// from any goroutine. Each record is replaced atomically; the store never
// mutates a stored record field by field.
package localstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
)

// ErrNotFound is an error for a record that is not in the store
var ErrNotFound = errors.New("record not found")

// StorageError wraps a local I/O failure. It is never masked; callers decide
// whether to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// DecodeFunc decodes a stored payload of the given kind
type DecodeFunc func(kind string, data []byte) (entity.Payload, error)

// Store is the local record store
type Store struct {
	db     *database.DB
	decode DecodeFunc
}

// New returns a store over the given database. decode is used to revive
// stored payloads into their concrete kinds.
func New(db *database.DB, decode DecodeFunc) *Store {
	return &Store{db: db, decode: decode}
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Put atomically replaces the stored record and reconciles the pending
// queue with the record's status
func (s *Store) Put(rec entity.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}

	if err := putTx(tx, rec); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing", err)
	}

	return nil
}

func putTx(tx *database.DB, rec entity.Record) error {
	if err := rec.Validate(); err != nil {
		return errors.Wrapf(err, "validating record %s", rec.ID)
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return errors.Wrapf(err, "marshalling payload for %s", rec.ID)
	}

	var conflictData interface{}
	if rec.Conflict != nil {
		b, err := json.Marshal(rec.Conflict)
		if err != nil {
			return errors.Wrapf(err, "marshalling conflict data for %s", rec.ID)
		}
		conflictData = string(b)
	}

	_, err = tx.Exec(`INSERT INTO records (id, kind, payload, version, local_updated_at, last_updated_server, sync_status, conflict_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			version = excluded.version,
			local_updated_at = excluded.local_updated_at,
			last_updated_server = excluded.last_updated_server,
			sync_status = excluded.sync_status,
			conflict_data = excluded.conflict_data`,
		rec.ID, rec.Payload.Kind(), string(payload), rec.Version, rec.LocalUpdatedAt, rec.LastUpdatedServer, string(rec.Status), conflictData)
	if err != nil {
		return storageErr(fmt.Sprintf("replacing record %s", rec.ID), err)
	}

	switch rec.Status {
	case entity.StatusPending, entity.StatusError:
		if _, err := tx.Exec("INSERT OR IGNORE INTO pending (record_id) VALUES (?)", rec.ID); err != nil {
			return storageErr(fmt.Sprintf("queueing record %s", rec.ID), err)
		}
	case entity.StatusSynced, entity.StatusConflicted:
		if _, err := tx.Exec("DELETE FROM pending WHERE record_id = ?", rec.ID); err != nil {
			return storageErr(fmt.Sprintf("dequeueing record %s", rec.ID), err)
		}
	}
	// StatusSyncing keeps its queue entry: the mutation is not pushed yet

	return nil
}

// Get returns the record with the given id
func (s *Store) Get(id string) (entity.Record, error) {
	return getTx(s.db, s.decode, id)
}

func getTx(db *database.DB, decode DecodeFunc, id string) (entity.Record, error) {
	row := db.QueryRow(`SELECT id, kind, payload, version, local_updated_at, last_updated_server, sync_status, conflict_data
		FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan, decode)
	if err == sql.ErrNoRows {
		return entity.Record{}, ErrNotFound
	}
	if err != nil {
		return entity.Record{}, errors.Wrapf(err, "getting record %s", id)
	}

	return rec, nil
}

type scanFunc func(dest ...interface{}) error

func scanRecord(scan scanFunc, decode DecodeFunc) (entity.Record, error) {
	var rec entity.Record
	var kind, payload, status string
	var conflictData sql.NullString

	err := scan(&rec.ID, &kind, &payload, &rec.Version, &rec.LocalUpdatedAt, &rec.LastUpdatedServer, &status, &conflictData)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, storageErr("scanning record row", err)
	}

	rec.Status, err = entity.ParseStatus(status)
	if err != nil {
		return rec, err
	}

	rec.Payload, err = decode(kind, []byte(payload))
	if err != nil {
		return rec, errors.Wrap(err, "decoding payload")
	}

	if conflictData.Valid {
		var cd entity.ConflictData
		if err := json.Unmarshal([]byte(conflictData.String), &cd); err != nil {
			return rec, errors.Wrap(err, "unmarshalling conflict data")
		}
		rec.Conflict = &cd
	}

	return rec, nil
}

// ListPending returns the records waiting to be pushed, in the order their
// mutations were queued
func (s *Store) ListPending() ([]entity.Record, error) {
	rows, err := s.db.Query(`SELECT r.id, r.kind, r.payload, r.version, r.local_updated_at, r.last_updated_server, r.sync_status, r.conflict_data
		FROM pending p
		JOIN records r ON r.id = p.record_id
		ORDER BY p.seq ASC`)
	if err != nil {
		return nil, storageErr("listing pending records", err)
	}
	defer rows.Close()

	return s.collect(rows)
}

// List returns records of the given kind ordered by id. An empty kind
// returns every record.
func (s *Store) List(kind string) ([]entity.Record, error) {
	query := `SELECT id, kind, payload, version, local_updated_at, last_updated_server, sync_status, conflict_data
		FROM records`
	var args []interface{}

	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("listing records", err)
	}
	defer rows.Close()

	return s.collect(rows)
}

func (s *Store) collect(rows *sql.Rows) ([]entity.Record, error) {
	var ret []entity.Record

	for rows.Next() {
		rec, err := scanRecord(rows.Scan, s.decode)
		if err != nil {
			return nil, err
		}
		ret = append(ret, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating record rows", err)
	}

	return ret, nil
}

// MarkSynced transitions the record to synced at the given server timestamp
// and removes it from the pending queue
func (s *Store) MarkSynced(id string, serverTimestamp int64) error {
	return s.transition(id, func(rec entity.Record) (entity.Record, error) {
		return rec.WithServerTimestamp(serverTimestamp), nil
	})
}

// MarkConflicted freezes the record as conflicted with the given conflict
// data and removes it from the pending queue
func (s *Store) MarkConflicted(id string, cd entity.ConflictData) error {
	return s.transition(id, func(rec entity.Record) (entity.Record, error) {
		return rec.WithConflict(cd), nil
	})
}

// MarkStatus transitions the record to the given status without touching
// the pending queue entry of a queued record
func (s *Store) MarkStatus(id string, status entity.SyncStatus) error {
	return s.transition(id, func(rec entity.Record) (entity.Record, error) {
		return rec.WithStatus(status), nil
	})
}

func (s *Store) transition(id string, mutate func(entity.Record) (entity.Record, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}

	rec, err := getTx(tx, s.decode, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	next, err := mutate(rec)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := putTx(tx, next); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing", err)
	}

	return nil
}
