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

// Package entity defines the versioned envelope that every synchronizable
// record is wrapped in, along with its sync metadata. Envelope methods are
// pure: they return new values and perform no I/O.
package entity

import (
	"time"

	"github.com/pkg/errors"
)

// Payload is the capability a record kind implements in order to be
// synchronized. Implementations must be immutable value types.
type Payload interface {
	// Kind returns the record kind, e.g. "attendance_report"
	Kind() string
	// ConflictFields returns the fields eligible for conflict comparison,
	// keyed by field name. Immutable identifiers and denormalized display
	// fields are excluded.
	ConflictFields() map[string]interface{}
	// CriticalFields returns the subset of conflict field names whose
	// divergence is never auto-merged
	CriticalFields() map[string]bool
	// ApplyFields returns a new payload with the given field values merged
	// over the current ones. Unknown field names are an error.
	ApplyFields(fields map[string]interface{}) (Payload, error)
}

// FieldDiff describes one field that differs between the local and the
// remote copy of a record
type FieldDiff struct {
	Name     string      `json:"name"`
	Local    interface{} `json:"local"`
	Remote   interface{} `json:"remote"`
	Critical bool        `json:"critical"`
}

// ConflictData is the frozen server-side snapshot captured when a record is
// classified as conflicted. It is preserved until an explicit resolution.
type ConflictData struct {
	Diff            []FieldDiff            `json:"diff"`
	LocalFields     map[string]interface{} `json:"local_fields"`
	RemoteFields    map[string]interface{} `json:"remote_fields"`
	RemoteVersion   int                    `json:"remote_version"`
	RemoteTimestamp int64                  `json:"remote_timestamp"`
	DetectedAt      int64                  `json:"detected_at"`
}

// Envelope wraps a domain payload with version counters and sync metadata.
// Timestamps are unix milliseconds; zero means absent.
type Envelope[T Payload] struct {
	ID      string
	Payload T
	// Version increments exactly once per successful local mutation
	Version int
	// LocalUpdatedAt is the timestamp of the last local mutation
	LocalUpdatedAt int64
	// LastUpdatedServer is the timestamp assigned by the remote store's clock
	// on the last write it actually accepted
	LastUpdatedServer int64
	Status            SyncStatus
	Conflict          *ConflictData
}

// Record is an envelope over any payload kind. The coordinator and the local
// store operate on records; typed call sites narrow with AsKind.
type Record = Envelope[Payload]

// ErrStatusConflictMismatch is an error for an envelope whose conflict data
// does not agree with its status
var ErrStatusConflictMismatch = errors.New("conflict data does not match sync status")

// New returns an envelope for a record created locally: version 1, pending.
func New[T Payload](id string, payload T, now time.Time) Envelope[T] {
	return Envelope[T]{
		ID:             id,
		Payload:        payload,
		Version:        1,
		LocalUpdatedAt: now.UnixMilli(),
		Status:         StatusPending,
	}
}

// Hydrated returns an envelope for a record adopted from the remote store.
func Hydrated[T Payload](id string, payload T, version int, serverTimestamp int64) Envelope[T] {
	return Envelope[T]{
		ID:                id,
		Payload:           payload,
		Version:           version,
		LastUpdatedServer: serverTimestamp,
		Status:            StatusSynced,
	}
}

// WithLocalUpdate returns a new envelope carrying the given payload with the
// version bumped and the status set to pending. The caller must persist the
// result.
func (e Envelope[T]) WithLocalUpdate(payload T, now time.Time) Envelope[T] {
	e.Payload = payload
	e.Version = e.Version + 1
	e.LocalUpdatedAt = now.UnixMilli()
	e.Status = StatusPending
	e.Conflict = nil

	return e
}

// WithStatus returns a new envelope with the given status. Conflict data is
// cleared for any status other than conflicted.
func (e Envelope[T]) WithStatus(status SyncStatus) Envelope[T] {
	e.Status = status
	if status != StatusConflicted {
		e.Conflict = nil
	}

	return e
}

// WithConflict returns a new envelope frozen as conflicted with the given
// conflict data.
func (e Envelope[T]) WithConflict(cd ConflictData) Envelope[T] {
	e.Status = StatusConflicted
	e.Conflict = &cd

	return e
}

// WithResolvedConflict returns a new envelope with the resolved field values
// merged over the current payload, the version bumped, conflict data cleared,
// and the server timestamp recorded.
func (e Envelope[T]) WithResolvedConflict(resolvedFields map[string]interface{}, serverTimestamp int64) (Envelope[T], error) {
	merged, err := e.Payload.ApplyFields(resolvedFields)
	if err != nil {
		return e, errors.Wrap(err, "applying resolved fields")
	}

	payload, ok := merged.(T)
	if !ok {
		return e, errors.Errorf("payload kind changed during merge: %s", merged.Kind())
	}

	e.Payload = payload
	e.Version = e.Version + 1
	e.LastUpdatedServer = serverTimestamp
	e.Status = StatusSynced
	e.Conflict = nil

	return e, nil
}

// WithUserResolution returns a new envelope carrying an explicit human
// resolution of a conflicted record: the chosen field values merged over the
// current payload, the version bumped, the status back to pending, and the
// record re-based onto the remote timestamp the conflict was detected
// against, so the resolution pushes cleanly when the remote is unchanged.
func (e Envelope[T]) WithUserResolution(chosenFields map[string]interface{}, now time.Time) (Envelope[T], error) {
	if e.Conflict == nil {
		return e, errors.New("record is not conflicted")
	}

	merged, err := e.Payload.ApplyFields(chosenFields)
	if err != nil {
		return e, errors.Wrap(err, "applying chosen fields")
	}

	payload, ok := merged.(T)
	if !ok {
		return e, errors.Errorf("payload kind changed during merge: %s", merged.Kind())
	}

	remoteTS := e.Conflict.RemoteTimestamp

	e.Payload = payload
	e.Version = e.Version + 1
	e.LocalUpdatedAt = now.UnixMilli()
	e.LastUpdatedServer = remoteTS
	e.Status = StatusPending
	e.Conflict = nil

	return e, nil
}

// WithServerTimestamp returns a new envelope marked synced at the given
// server timestamp. The version is not bumped: a push does not constitute a
// local mutation.
func (e Envelope[T]) WithServerTimestamp(serverTimestamp int64) Envelope[T] {
	e.LastUpdatedServer = serverTimestamp
	e.Status = StatusSynced
	e.Conflict = nil

	return e
}

// Generalize widens a typed envelope into a Record
func (e Envelope[T]) Generalize() Record {
	return Record{
		ID:                e.ID,
		Payload:           e.Payload,
		Version:           e.Version,
		LocalUpdatedAt:    e.LocalUpdatedAt,
		LastUpdatedServer: e.LastUpdatedServer,
		Status:            e.Status,
		Conflict:          e.Conflict,
	}
}

// AsKind narrows a Record to an envelope of a concrete payload type
func AsKind[T Payload](r Record) (Envelope[T], error) {
	payload, ok := r.Payload.(T)
	if !ok {
		return Envelope[T]{}, errors.Errorf("record %s is of kind %s", r.ID, r.Payload.Kind())
	}

	return Envelope[T]{
		ID:                r.ID,
		Payload:           payload,
		Version:           r.Version,
		LocalUpdatedAt:    r.LocalUpdatedAt,
		LastUpdatedServer: r.LastUpdatedServer,
		Status:            r.Status,
		Conflict:          r.Conflict,
	}, nil
}

// Validate checks the envelope's metadata invariants
func (e Envelope[T]) Validate() error {
	if e.Status == StatusConflicted && e.Conflict == nil {
		return errors.Wrap(ErrStatusConflictMismatch, "conflicted without conflict data")
	}
	if e.Status != StatusConflicted && e.Conflict != nil {
		return errors.Wrapf(ErrStatusConflictMismatch, "%s with conflict data", e.Status)
	}
	if e.Version < 1 {
		return errors.Errorf("version %d is below 1", e.Version)
	}

	return nil
}
