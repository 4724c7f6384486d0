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

// Package repo is the surface the command layer talks to. It owns the
// create/edit/resolve transitions over stored records and exposes the
// coordinator's status stream.
package repo

import (
	"github.com/google/uuid"
	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/sync/coordinator"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/localstore"
	"github.com/pkg/errors"
)

// ErrNotConflicted is an error for resolving a record that is not conflicted
var ErrNotConflicted = errors.New("record is not conflicted")

// Repository mediates record access for commands and observers
type Repository struct {
	store *localstore.Store
	clock clock.Clock
	coord *coordinator.Coordinator
}

// New returns a repository. coord may be nil for commands that never watch
// status.
func New(store *localstore.Store, c clock.Clock, coord *coordinator.Coordinator) *Repository {
	return &Repository{store: store, clock: c, coord: coord}
}

// Load returns the record with the given id
func (r *Repository) Load(id string) (entity.Record, error) {
	return r.store.Get(id)
}

// List returns records of the given kind, or all records for an empty kind
func (r *Repository) List(kind string) ([]entity.Record, error) {
	return r.store.List(kind)
}

// ListPending returns the records queued for push, oldest mutation first
func (r *Repository) ListPending() ([]entity.Record, error) {
	return r.store.ListPending()
}

// Create stores a brand new record with the given payload and returns it
func (r *Repository) Create(payload entity.Payload) (entity.Record, error) {
	rec := entity.New(uuid.NewString(), payload, r.clock.Now())
	if err := r.store.Put(rec); err != nil {
		return entity.Record{}, errors.Wrap(err, "storing new record")
	}

	return rec, nil
}

// Update records a local mutation of an existing record. The new payload
// replaces the old one whole; the record queues for the next sync cycle.
func (r *Repository) Update(id string, payload entity.Payload) (entity.Record, error) {
	rec, err := r.store.Get(id)
	if err != nil {
		return entity.Record{}, err
	}

	next := rec.WithLocalUpdate(payload, r.clock.Now())
	if err := r.store.Put(next); err != nil {
		return entity.Record{}, errors.Wrap(err, "storing updated record")
	}

	return next, nil
}

// Resolve applies an explicit human resolution to a conflicted record. The
// chosen field values are merged over the local payload and the record is
// queued for push.
func (r *Repository) Resolve(id string, chosenFields map[string]interface{}) (entity.Record, error) {
	rec, err := r.store.Get(id)
	if err != nil {
		return entity.Record{}, err
	}

	if rec.Status != entity.StatusConflicted || rec.Conflict == nil {
		return entity.Record{}, ErrNotConflicted
	}

	next, err := rec.WithUserResolution(chosenFields, r.clock.Now())
	if err != nil {
		return entity.Record{}, err
	}

	if err := r.store.Put(next); err != nil {
		return entity.Record{}, errors.Wrap(err, "storing resolved record")
	}

	if r.coord != nil {
		r.coord.Trigger()
	}

	return next, nil
}

// WatchStatus subscribes to sync-status changes. The second return value
// unsubscribes.
func (r *Repository) WatchStatus() (<-chan coordinator.Event, func(), error) {
	if r.coord == nil {
		return nil, nil, errors.New("repository has no coordinator")
	}

	ch, cancel := r.coord.Subscribe()
	return ch, cancel, nil
}
