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

package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/parishkeep/parishkeep/pkg/assert"
	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/parishkeep/parishkeep/pkg/records"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/localstore"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/parishkeep/parishkeep/pkg/sync/resolve"
	"github.com/pkg/errors"
)

type harness struct {
	store  *localstore.Store
	remote *remote.MemStore
	clock  *clock.Mock
	coord  *Coordinator
}

func setup(t *testing.T, strategy resolve.Strategy) *harness {
	t.Helper()

	c := clock.NewMock()
	c.SetNow(time.UnixMilli(10000))

	store := localstore.New(database.InitTestMemoryDB(t), records.Decode)
	rem := remote.NewMemStore(c)

	coord := New(Params{
		Store:        store,
		Remote:       rem,
		Clock:        c,
		Strategy:     strategy,
		EncodeFields: records.EncodeFields,
		DecodeFields: records.DecodeFields,
		Workers:      1,
		// keep retry sleeps out of test time
		BackoffBase: time.Millisecond,
		BackoffCap:  4 * time.Millisecond,
	})

	return &harness{store: store, remote: rem, clock: c, coord: coord}
}

func testOffering(amount int64, notes string) records.OfferingReport {
	return records.OfferingReport{
		ServiceDate: "2025-11-02",
		Fund:        "general",
		Amount:      amount,
		Currency:    "USD",
		Notes:       notes,
	}
}

// seed creates a record that both sides agree on and returns the local
// synced copy along with the remote timestamp
func seed(t *testing.T, h *harness, id string, p records.OfferingReport) (entity.Record, int64) {
	t.Helper()

	fields, err := records.EncodeFields(p)
	assert.Nil(t, err, "encoding seed fields")

	ts, err := h.remote.Write(context.Background(), remote.Document{
		ID:      id,
		Kind:    p.Kind(),
		Fields:  fields,
		Version: 1,
	}, 0)
	assert.Nil(t, err, "seeding remote")

	rec := entity.Hydrated(id, entity.Payload(p), 1, ts)
	err = h.store.Put(rec)
	assert.Nil(t, err, "seeding local")

	return rec, ts
}

func TestSyncPushNew(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec := entity.New("rec-1", entity.Payload(testOffering(125000, "")), h.clock.Now())
	err := h.store.Put(rec)
	assert.Nil(t, err, "putting record")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")
	assert.Equal(t, got.Version, 1, "version mismatch")
	assert.NotEqual(t, got.LastUpdatedServer, int64(0), "server timestamp missing")

	doc, err := h.remote.Fetch(ctx, "rec-1")
	assert.Nil(t, err, "fetching remote")
	assert.Equal(t, doc.Fields["amount"], float64(125000), "remote amount mismatch")

	pending, err := h.store.ListPending()
	assert.Nil(t, err, "listing pending")
	assert.Equal(t, len(pending), 0, "pending should be empty")
}

func TestSyncPushEdit(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, ts := seed(t, h, "rec-1", testOffering(125000, ""))

	h.clock.SetNow(time.UnixMilli(12000))
	edited := rec.WithLocalUpdate(entity.Payload(testOffering(125000, "late count")), h.clock.Now())
	err := h.store.Put(edited)
	assert.Nil(t, err, "putting edit")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")
	// the push carried the bumped local version but did not bump it again
	assert.Equal(t, got.Version, 2, "version mismatch")

	doc, err := h.remote.Fetch(ctx, "rec-1")
	assert.Nil(t, err, "fetching remote")
	assert.Equal(t, doc.Fields["notes"], "late count", "remote notes mismatch")
	assert.NotEqual(t, doc.ServerTimestamp, ts, "remote timestamp should advance")
	assert.Equal(t, got.LastUpdatedServer, doc.ServerTimestamp, "timestamps should agree")
}

func TestSyncPullOnly(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, ts := seed(t, h, "rec-1", testOffering(125000, ""))

	// another device edits while this one queues an identical no-op edit
	h.clock.SetNow(time.UnixMilli(11000))
	fields, err := records.EncodeFields(testOffering(125000, ""))
	assert.Nil(t, err, "encoding fields")
	_, err = h.remote.Write(ctx, remote.Document{ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 2}, ts)
	assert.Nil(t, err, "remote edit")

	h.clock.SetNow(time.UnixMilli(12000))
	err = h.store.Put(rec.WithLocalUpdate(rec.Payload, h.clock.Now()))
	assert.Nil(t, err, "putting edit")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")
	assert.Equal(t, got.Version, 2, "version adopted from remote")
}

func TestSyncAutoMerge(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, ts := seed(t, h, "rec-1", testOffering(125000, ""))

	// remote gains a non-critical edit, then local gains a later one
	h.clock.SetNow(time.UnixMilli(11000))
	fields, err := records.EncodeFields(testOffering(125000, "recounted"))
	assert.Nil(t, err, "encoding fields")
	remoteTS, err := h.remote.Write(ctx, remote.Document{ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 2}, ts)
	assert.Nil(t, err, "remote edit")

	h.clock.SetNow(time.UnixMilli(12000))
	err = h.store.Put(rec.WithLocalUpdate(entity.Payload(testOffering(125000, "late count")), h.clock.Now()))
	assert.Nil(t, err, "putting edit")

	h.clock.SetNow(time.UnixMilli(13000))
	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")

	// last writer wins: the later local edit overrode the remote one
	doc, err := h.remote.Fetch(ctx, "rec-1")
	assert.Nil(t, err, "fetching remote")
	assert.Equal(t, doc.Fields["notes"], "late count", "remote notes mismatch")
	assert.NotEqual(t, doc.ServerTimestamp, remoteTS, "remote timestamp should advance")
}

func TestSyncConflict(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, ts := seed(t, h, "rec-1", testOffering(125000, ""))

	// both sides change the amount, a critical field
	h.clock.SetNow(time.UnixMilli(11000))
	fields, err := records.EncodeFields(testOffering(120000, ""))
	assert.Nil(t, err, "encoding fields")
	remoteTS, err := h.remote.Write(ctx, remote.Document{ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 2}, ts)
	assert.Nil(t, err, "remote edit")

	h.clock.SetNow(time.UnixMilli(12000))
	err = h.store.Put(rec.WithLocalUpdate(entity.Payload(testOffering(130000, "")), h.clock.Now()))
	assert.Nil(t, err, "putting edit")

	h.clock.SetNow(time.UnixMilli(13000))
	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusConflicted, "status mismatch")
	assert.NotNil(t, got.Conflict, "conflict data missing")
	assert.Equal(t, got.Conflict.RemoteTimestamp, remoteTS, "remote timestamp mismatch")
	assert.Equal(t, got.Conflict.DetectedAt, int64(13000), "detected at mismatch")
	assert.Equal(t, got.Conflict.LocalFields["amount"], int64(130000), "local snapshot mismatch")
	assert.Equal(t, got.Conflict.RemoteFields["amount"], float64(120000), "remote snapshot mismatch")

	// the record leaves the automatic cycle until resolved
	pending, err := h.store.ListPending()
	assert.Nil(t, err, "listing pending")
	assert.Equal(t, len(pending), 0, "pending should be empty")

	// the remote is untouched
	doc, err := h.remote.Fetch(ctx, "rec-1")
	assert.Nil(t, err, "fetching remote")
	assert.Equal(t, doc.ServerTimestamp, remoteTS, "remote should be untouched")
}

func TestSyncUserResolution(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, ts := seed(t, h, "rec-1", testOffering(125000, ""))

	h.clock.SetNow(time.UnixMilli(11000))
	fields, err := records.EncodeFields(testOffering(120000, ""))
	assert.Nil(t, err, "encoding fields")
	_, err = h.remote.Write(ctx, remote.Document{ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 2}, ts)
	assert.Nil(t, err, "remote edit")

	h.clock.SetNow(time.UnixMilli(12000))
	err = h.store.Put(rec.WithLocalUpdate(entity.Payload(testOffering(130000, "")), h.clock.Now()))
	assert.Nil(t, err, "putting edit")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "first sync")

	// the treasurer decides the local figure stands
	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting conflicted record")

	h.clock.SetNow(time.UnixMilli(14000))
	resolved, err := got.WithUserResolution(map[string]interface{}{"amount": int64(130000)}, h.clock.Now())
	assert.Nil(t, err, "resolving")
	err = h.store.Put(resolved)
	assert.Nil(t, err, "putting resolution")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "second sync")

	final, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, final.Status, entity.StatusSynced, "status mismatch")

	doc, err := h.remote.Fetch(ctx, "rec-1")
	assert.Nil(t, err, "fetching remote")
	assert.Equal(t, doc.Fields["amount"], float64(130000), "remote amount mismatch")
	assert.Equal(t, final.LastUpdatedServer, doc.ServerTimestamp, "timestamps should agree")
}

func TestSyncVersionConflictRetries(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	rec, _ := seed(t, h, "rec-1", testOffering(125000, ""))

	h.clock.SetNow(time.UnixMilli(12000))
	err := h.store.Put(rec.WithLocalUpdate(entity.Payload(testOffering(125000, "edited")), h.clock.Now()))
	assert.Nil(t, err, "putting edit")

	// every conditional write loses the race
	h.remote.SetWriteErr(remote.ErrVersionConflict)

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusError, "status mismatch")
	// the edit is preserved for a later cycle
	assert.Equal(t, got.Payload.ConflictFields()["notes"], "edited", "edit lost")

	pending, err := h.store.ListPending()
	assert.Nil(t, err, "listing pending")
	assert.Equal(t, len(pending), 1, "pending should be preserved")

	// the contention clears and the next cycle succeeds
	h.remote.SetWriteErr(nil)
	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "retry sync")

	got, err = h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")
}

func TestSyncNetworkFailure(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	err := h.store.Put(entity.New("rec-1", entity.Payload(testOffering(125000, "")), h.clock.Now()))
	assert.Nil(t, err, "putting record")

	h.remote.SetFetchErr(errors.New("connection reset"))

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	got, err := h.store.Get("rec-1")
	assert.Nil(t, err, "getting record")
	assert.Equal(t, got.Status, entity.StatusError, "status mismatch")

	pending, err := h.store.ListPending()
	assert.Nil(t, err, "listing pending")
	assert.Equal(t, len(pending), 1, "pending should be preserved")
}

func TestSyncEvents(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	events, cancel := h.coord.Subscribe()
	defer cancel()

	err := h.store.Put(entity.New("rec-1", entity.Payload(testOffering(125000, "")), h.clock.Now()))
	assert.Nil(t, err, "putting record")

	err = h.coord.Sync(ctx)
	assert.Nil(t, err, "syncing")

	first := <-events
	assert.Equal(t, first.RecordID, "rec-1", "record id mismatch")
	assert.Equal(t, first.Status, entity.StatusSyncing, "first status mismatch")

	second := <-events
	assert.Equal(t, second.Status, entity.StatusSynced, "second status mismatch")
}

func TestSyncCancellation(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})

	for _, id := range []string{"rec-1", "rec-2"} {
		err := h.store.Put(entity.New(id, entity.Payload(testOffering(125000, "")), h.clock.Now()))
		assert.Nil(t, err, "putting record")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.coord.Sync(ctx)
	assert.Equal(t, err, context.Canceled, "error mismatch")
}

func TestApplyChange(t *testing.T) {
	h := setup(t, resolve.LastWriteWins{})
	ctx := context.Background()

	t.Run("unknown record is adopted", func(t *testing.T) {
		fields, err := records.EncodeFields(testOffering(125000, ""))
		assert.Nil(t, err, "encoding fields")
		ts, err := h.remote.Write(ctx, remote.Document{ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 1}, 0)
		assert.Nil(t, err, "writing remote")

		err = h.coord.applyChange(remote.Change{Seq: 1, Document: remote.Document{
			ID: "rec-1", Kind: records.KindOffering, Fields: fields, Version: 1, ServerTimestamp: ts,
		}})
		assert.Nil(t, err, "applying change")

		got, err := h.store.Get("rec-1")
		assert.Nil(t, err, "getting record")
		assert.Equal(t, got.Status, entity.StatusSynced, "status mismatch")
		assert.Equal(t, got.LastUpdatedServer, ts, "timestamp mismatch")

		seq, err := h.store.LastChangeSeq()
		assert.Nil(t, err, "getting seq")
		assert.Equal(t, seq, int64(1), "seq mismatch")
	})

	t.Run("pending local work is left alone", func(t *testing.T) {
		rec, ts := seed(t, h, "rec-2", testOffering(50000, ""))

		h.clock.SetNow(time.UnixMilli(12000))
		err := h.store.Put(rec.WithLocalUpdate(entity.Payload(testOffering(60000, "")), h.clock.Now()))
		assert.Nil(t, err, "putting edit")

		fields, err := records.EncodeFields(testOffering(55000, ""))
		assert.Nil(t, err, "encoding fields")

		err = h.coord.applyChange(remote.Change{Seq: 5, Document: remote.Document{
			ID: "rec-2", Kind: records.KindOffering, Fields: fields, Version: 2, ServerTimestamp: ts + 1000,
		}})
		assert.Nil(t, err, "applying change")

		got, err := h.store.Get("rec-2")
		assert.Nil(t, err, "getting record")
		// the local edit survives; the next cycle will reconcile it
		assert.Equal(t, got.Status, entity.StatusPending, "status mismatch")
		assert.Equal(t, got.Payload.ConflictFields()["amount"], int64(60000), "edit lost")
	})
}
