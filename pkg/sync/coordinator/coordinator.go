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

// Package coordinator drives sync cycles. It pulls remote state, classifies
// each pending record, resolves, and pushes, translating every failure into a
// sync status that observers can watch. Per-record work runs across a bounded
// worker pool; writes to a single record are serialized by id.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/sync/detect"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/localstore"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/parishkeep/parishkeep/pkg/sync/resolve"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Defaults for Params fields left zero
const (
	DefaultWorkers                   = 4
	DefaultMaxNetworkAttempts        = 5
	DefaultBackoffBase               = 250 * time.Millisecond
	DefaultBackoffCap                = 8 * time.Second
	DefaultMaxVersionConflictRetries = 3
)

// ErrIrrecoverable marks a record whose retries were exhausted. The record is
// set to the error status with its pending mutation preserved.
var ErrIrrecoverable = errors.New("sync retries exhausted")

// Params configures a Coordinator
type Params struct {
	Store    *localstore.Store
	Remote   remote.Store
	Clock    clock.Clock
	Strategy resolve.Strategy

	// EncodeFields flattens a payload into the remote document field map
	EncodeFields func(payload entity.Payload) (map[string]interface{}, error)
	// DecodeFields revives a remote document field map into a payload
	DecodeFields func(kind string, fields map[string]interface{}) (entity.Payload, error)

	Workers                   int
	MaxNetworkAttempts        int
	BackoffBase               time.Duration
	BackoffCap                time.Duration
	MaxVersionConflictRetries int
}

// Coordinator orchestrates sync cycles against a local store and a remote
// store
type Coordinator struct {
	store    *localstore.Store
	remote   remote.Store
	clock    clock.Clock
	strategy resolve.Strategy

	encodeFields func(payload entity.Payload) (map[string]interface{}, error)
	decodeFields func(kind string, fields map[string]interface{}) (entity.Payload, error)

	workers            int
	maxNetworkAttempts int
	backoffBase        time.Duration
	backoffCap         time.Duration
	maxVCRetries       int

	locks   *keyedMutex
	trigger chan struct{}
	cron    *cron.Cron

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// New creates a coordinator, filling zero params with defaults
func New(p Params) *Coordinator {
	if p.Workers == 0 {
		p.Workers = DefaultWorkers
	}
	if p.MaxNetworkAttempts == 0 {
		p.MaxNetworkAttempts = DefaultMaxNetworkAttempts
	}
	if p.BackoffBase == 0 {
		p.BackoffBase = DefaultBackoffBase
	}
	if p.BackoffCap == 0 {
		p.BackoffCap = DefaultBackoffCap
	}
	if p.MaxVersionConflictRetries == 0 {
		p.MaxVersionConflictRetries = DefaultMaxVersionConflictRetries
	}

	return &Coordinator{
		store:              p.Store,
		remote:             p.Remote,
		clock:              p.Clock,
		strategy:           p.Strategy,
		encodeFields:       p.EncodeFields,
		decodeFields:       p.DecodeFields,
		workers:            p.Workers,
		maxNetworkAttempts: p.MaxNetworkAttempts,
		backoffBase:        p.BackoffBase,
		backoffCap:         p.BackoffCap,
		maxVCRetries:       p.MaxVersionConflictRetries,
		locks:              newKeyedMutex(),
		trigger:            make(chan struct{}, 1),
		subs:               map[int]chan Event{},
	}
}

// Sync runs one sync cycle over every queued record. Individual record
// failures become error statuses and events; they do not abort the cycle.
// Cross-record ordering is unspecified, but queue order is preserved for the
// records a single worker picks up.
func (c *Coordinator) Sync(ctx context.Context) error {
	pending, err := c.store.ListPending()
	if err != nil {
		return errors.Wrap(err, "listing pending records")
	}

	ids := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range ids {
				c.syncRecord(ctx, id)
			}
		}()
	}

	for _, rec := range pending {
		select {
		case ids <- rec.ID:
		case <-ctx.Done():
			close(ids)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(ids)
	wg.Wait()

	return ctx.Err()
}

// SyncAll runs a full cycle: it first re-pulls every settled record,
// adopting newer remote state, then reconciles the queued records as Sync
// does
func (c *Coordinator) SyncAll(ctx context.Context) error {
	recs, err := c.store.List("")
	if err != nil {
		return errors.Wrap(err, "listing records")
	}

	for _, rec := range recs {
		if rec.Status != entity.StatusSynced {
			continue
		}
		if err := c.pullRecord(ctx, rec.ID); err != nil {
			// a failed pull leaves the settled record as it is; the next
			// cycle will try again
			c.publish(Event{RecordID: rec.ID, Status: rec.Status, Err: err})
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return c.Sync(ctx)
}

func (c *Coordinator) pullRecord(ctx context.Context, id string) error {
	unlock := c.locks.lock(id)
	defer unlock()

	rec, err := c.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Status != entity.StatusSynced {
		return nil
	}

	doc, exists, err := c.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !exists || doc.ServerTimestamp == rec.LastUpdatedServer {
		return nil
	}

	return c.adopt(doc)
}

// syncRecord reconciles one record end to end. It re-fetches and re-runs on a
// version conflict, up to the retry bound, and never leaves the record half
// written: the local row is replaced once per decision, inside a transaction.
func (c *Coordinator) syncRecord(ctx context.Context, id string) {
	unlock := c.locks.lock(id)
	defer unlock()

	for attempt := 0; attempt <= c.maxVCRetries; attempt++ {
		rec, err := c.store.Get(id)
		if err == localstore.ErrNotFound {
			return
		}
		if err != nil {
			c.markError(id, err)
			return
		}

		// a record resolved or synced since it was queued needs no work
		if !rec.Status.InPendingSet() && rec.Status != entity.StatusSyncing {
			return
		}

		if rec.Status != entity.StatusSyncing {
			if err := c.store.MarkStatus(id, entity.StatusSyncing); err != nil {
				c.markError(id, err)
				return
			}
			c.publish(Event{RecordID: id, Status: entity.StatusSyncing})
		}

		retry, err := c.reconcile(ctx, rec)
		if err == nil {
			return
		}
		if !retry {
			c.markError(id, err)
			return
		}
		// version conflict: loop around, re-fetch and re-run
	}

	c.markError(id, ErrIrrecoverable)
}

// reconcile runs one fetch-classify-resolve-push pass. It returns retry=true
// only for a version conflict, which the caller counts.
func (c *Coordinator) reconcile(ctx context.Context, rec entity.Record) (retry bool, err error) {
	doc, exists, err := c.fetch(ctx, rec.ID)
	if err != nil {
		return false, err
	}

	res := detect.Classify(rec, doc, exists)

	switch res.Classification {
	case detect.PullOnly:
		return false, c.adopt(doc)

	case detect.PushOnly:
		return c.push(ctx, rec, rec.Payload, nil, doc, exists)

	default:
		out, err := c.strategy.Resolve(rec, res)
		if err != nil {
			return false, err
		}

		switch out.Kind {
		case resolve.UserChoice:
			cd := res.ConflictData(rec, c.clock.Now().UnixMilli())
			if err := c.store.MarkConflicted(rec.ID, cd); err != nil {
				return false, err
			}
			c.publish(Event{RecordID: rec.ID, Status: entity.StatusConflicted})
			return false, nil

		case resolve.AdoptRemote:
			return false, c.adopt(doc)

		default: // resolve.WriteFields
			merged, err := rec.Payload.ApplyFields(out.Fields)
			if err != nil {
				return false, err
			}
			return c.push(ctx, rec, merged, out.Fields, doc, exists)
		}
	}
}

// push writes the given payload remotely with the server timestamp captured
// at fetch time as the write condition, then commits the outcome locally.
// A non-nil resolvedFields marks a merge outcome, which bumps the local
// version.
func (c *Coordinator) push(ctx context.Context, rec entity.Record, payload entity.Payload, resolvedFields map[string]interface{}, doc remote.Document, exists bool) (retry bool, err error) {
	fields, err := c.encodeFields(payload)
	if err != nil {
		return false, err
	}

	version := rec.Version
	if resolvedFields != nil {
		version++
	}

	out := remote.Document{
		ID:      rec.ID,
		Kind:    payload.Kind(),
		Fields:  fields,
		Version: version,
	}

	var expected int64
	if exists {
		expected = doc.ServerTimestamp
	}

	ts, err := c.write(ctx, out, expected)
	if err == remote.ErrVersionConflict {
		return true, err
	}
	if err != nil {
		return false, err
	}

	if resolvedFields != nil {
		next, err := rec.WithResolvedConflict(resolvedFields, ts)
		if err != nil {
			return false, err
		}
		if err := c.store.Put(next); err != nil {
			return false, err
		}
	} else {
		if err := c.store.MarkSynced(rec.ID, ts); err != nil {
			return false, err
		}
	}

	c.publish(Event{RecordID: rec.ID, Status: entity.StatusSynced})
	return false, nil
}

// adopt replaces the local record with the remote state
func (c *Coordinator) adopt(doc remote.Document) error {
	payload, err := c.decodeFields(doc.Kind, doc.Fields)
	if err != nil {
		return err
	}

	rec := entity.Hydrated(doc.ID, payload, doc.Version, doc.ServerTimestamp)
	if err := c.store.Put(rec); err != nil {
		return err
	}

	c.publish(Event{RecordID: doc.ID, Status: entity.StatusSynced})
	return nil
}

// fetch reads the remote document with network backoff. A missing document
// is not an error.
func (c *Coordinator) fetch(ctx context.Context, id string) (doc remote.Document, exists bool, err error) {
	err = c.withBackoff(ctx, func() error {
		var ferr error
		doc, ferr = c.remote.Fetch(ctx, id)
		if ferr == remote.ErrNotFound {
			exists = false
			return nil
		}
		if ferr != nil {
			return ferr
		}

		exists = true
		return nil
	})

	return doc, exists, err
}

// write performs a conditional remote write with network backoff. A version
// conflict is returned immediately: it is a concurrency signal, not a
// transient failure.
func (c *Coordinator) write(ctx context.Context, doc remote.Document, expected int64) (int64, error) {
	var ts int64

	err := c.withBackoff(ctx, func() error {
		var werr error
		ts, werr = c.remote.Write(ctx, doc, expected)
		return werr
	})

	return ts, err
}

// withBackoff retries f on transient failures with exponential delays up to
// the attempt bound. Version conflicts and context cancellation are never
// retried.
func (c *Coordinator) withBackoff(ctx context.Context, f func() error) error {
	var err error

	delay := c.backoffBase
	for attempt := 0; attempt < c.maxNetworkAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}

			delay *= 2
			if delay > c.backoffCap {
				delay = c.backoffCap
			}
		}

		err = f()
		if err == nil || err == remote.ErrVersionConflict || err == ctx.Err() {
			return err
		}
	}

	return errors.Wrap(err, "retries exhausted")
}

// markError parks the record in the error status. The pending mutation stays
// queued for a later cycle or a manual retry.
func (c *Coordinator) markError(id string, cause error) {
	if err := c.store.MarkStatus(id, entity.StatusError); err != nil {
		cause = errors.Wrapf(cause, "additionally failed to record error status: %v", err)
	}

	c.publish(Event{RecordID: id, Status: entity.StatusError, Err: cause})
}
