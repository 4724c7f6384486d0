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

package app

import (
	"testing"
	"time"

	"github.com/parishkeep/parishkeep/pkg/assert"
	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/parishkeep/parishkeep/pkg/server/testutils"
	"github.com/pkg/errors"
)

func newTestApp(t *testing.T) (*App, *clock.Mock) {
	db := testutils.InitMemoryDB(t)

	c := clock.NewMock()
	c.SetNow(time.UnixMilli(10000))

	return &App{DB: db, Clock: c}, c
}

func TestPutDocumentCreate(t *testing.T) {
	// Setup
	a, _ := newTestApp(t)

	// Execute
	doc, err := a.PutDocument(PutDocumentParams{
		Collection:        "parish",
		DocID:             "doc-1",
		Kind:              "offering_report",
		Fields:            `{"amount":125000}`,
		Version:           1,
		ExpectedTimestamp: 0,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "writing document"))
	}

	// Test
	assert.Equal(t, doc.ServerTimestamp, int64(10000), "server timestamp mismatch")

	got, err := a.GetDocument("parish", "doc-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting document"))
	}
	assert.Equal(t, got.Kind, "offering_report", "kind mismatch")
	assert.Equal(t, got.Version, 1, "version mismatch")
	assert.Equal(t, got.Fields, `{"amount":125000}`, "fields mismatch")
	assert.Equal(t, testutils.MustCountRows(t, a.DB, &database.Change{}), 1, "change count mismatch")
}

func TestPutDocumentCreateRace(t *testing.T) {
	// Setup
	a, _ := newTestApp(t)

	if _, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: "{}", Version: 1,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "preparing document"))
	}

	// Execute: a second creation loses
	_, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: "{}", Version: 1,
		ExpectedTimestamp: 0,
	})

	// Test
	assert.Equal(t, errors.Cause(err), ErrTimestampMismatch, "error mismatch")
}

func TestPutDocumentConditionalUpdate(t *testing.T) {
	// Setup
	a, c := newTestApp(t)

	created, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: `{"amount":1}`, Version: 1,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing document"))
	}

	c.SetNow(time.UnixMilli(20000))

	// Execute
	updated, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: `{"amount":2}`, Version: 2,
		ExpectedTimestamp: created.ServerTimestamp,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating document"))
	}

	// Test
	assert.Equal(t, updated.ServerTimestamp, int64(20000), "server timestamp mismatch")
	assert.Equal(t, updated.Version, 2, "version mismatch")

	// A write with the stale timestamp loses
	_, err = a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: `{"amount":3}`, Version: 3,
		ExpectedTimestamp: created.ServerTimestamp,
	})
	assert.Equal(t, errors.Cause(err), ErrTimestampMismatch, "stale write error mismatch")
}

func TestPutDocumentMonotonicTimestamp(t *testing.T) {
	// Setup: the clock does not advance between writes
	a, _ := newTestApp(t)

	first, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: "{}", Version: 1,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing document"))
	}

	// Execute
	second, err := a.PutDocument(PutDocumentParams{
		Collection: "parish", DocID: "doc-1", Kind: "offering_report", Fields: "{}", Version: 2,
		ExpectedTimestamp: first.ServerTimestamp,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating document"))
	}

	// Test
	assert.Equal(t, second.ServerTimestamp, first.ServerTimestamp+1, "timestamp did not advance")
}

func TestGetDocumentNotFound(t *testing.T) {
	// Setup
	a, _ := newTestApp(t)

	// Execute
	_, err := a.GetDocument("parish", "no-such-doc")

	// Test
	assert.Equal(t, errors.Cause(err), ErrDocumentNotFound, "error mismatch")
}

func TestListChanges(t *testing.T) {
	// Setup
	a, c := newTestApp(t)

	writeDoc := func(docID, fields string, version int, expectedTS int64) database.Document {
		doc, err := a.PutDocument(PutDocumentParams{
			Collection: "parish", DocID: docID, Kind: "offering_report", Fields: fields, Version: version,
			ExpectedTimestamp: expectedTS,
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "writing document"))
		}
		return doc
	}

	doc1 := writeDoc("doc-1", `{"amount":1}`, 1, 0)
	c.Advance(time.Second)
	writeDoc("doc-2", `{"amount":2}`, 1, 0)
	c.Advance(time.Second)
	writeDoc("doc-1", `{"amount":3}`, 2, doc1.ServerTimestamp)

	// Execute
	changes, err := a.ListChanges("parish", 0, 100)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing changes"))
	}

	// Test
	assert.Equal(t, len(changes), 3, "change count mismatch")
	assert.Equal(t, changes[0].DocID, "doc-1", "first change doc mismatch")
	assert.Equal(t, changes[1].DocID, "doc-2", "second change doc mismatch")
	assert.Equal(t, changes[2].DocID, "doc-1", "third change doc mismatch")
	assert.Equal(t, changes[2].Version, 2, "third change version mismatch")

	// A cursor skips consumed entries
	tail, err := a.ListChanges("parish", changes[1].ID, 100)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing changes after cursor"))
	}
	assert.Equal(t, len(tail), 1, "tail change count mismatch")
	assert.Equal(t, tail[0].ID, changes[2].ID, "tail change seq mismatch")

	// Changes of other collections are not visible
	other, err := a.ListChanges("other", 0, 100)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing other collection changes"))
	}
	assert.Equal(t, len(other), 0, "other collection change count mismatch")
}
