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

package entity

import (
	"testing"
	"time"

	"github.com/parishkeep/parishkeep/pkg/assert"
)

// testPayload is a minimal payload for exercising envelope transitions
type testPayload struct {
	Title    string `json:"title"`
	Count    int64  `json:"count"`
	Approved bool   `json:"approved"`
}

func (p testPayload) Kind() string {
	return "test_payload"
}

func (p testPayload) ConflictFields() map[string]interface{} {
	return map[string]interface{}{
		"title":    p.Title,
		"count":    p.Count,
		"approved": p.Approved,
	}
}

func (p testPayload) CriticalFields() map[string]bool {
	return map[string]bool{"approved": true}
}

func (p testPayload) ApplyFields(fields map[string]interface{}) (Payload, error) {
	ret := p
	for name, v := range fields {
		switch name {
		case "title":
			ret.Title = v.(string)
		case "count":
			ret.Count = v.(int64)
		case "approved":
			ret.Approved = v.(bool)
		}
	}

	return ret, nil
}

func TestNew(t *testing.T) {
	now := time.UnixMilli(1577836800000)

	rec := New("rec-1", testPayload{Title: "foo"}, now)

	assert.Equal(t, rec.ID, "rec-1", "id mismatch")
	assert.Equal(t, rec.Version, 1, "version mismatch")
	assert.Equal(t, rec.Status, StatusPending, "status mismatch")
	assert.Equal(t, rec.LocalUpdatedAt, int64(1577836800000), "local updated at mismatch")
	assert.Equal(t, rec.LastUpdatedServer, int64(0), "last updated server mismatch")
}

func TestWithLocalUpdate(t *testing.T) {
	rec := Hydrated("rec-1", testPayload{Title: "foo"}, 3, 9000)
	now := time.UnixMilli(10000)

	got := rec.WithLocalUpdate(testPayload{Title: "bar"}, now)

	assert.Equal(t, got.Version, 4, "version mismatch")
	assert.Equal(t, got.Status, StatusPending, "status mismatch")
	assert.Equal(t, got.LocalUpdatedAt, int64(10000), "local updated at mismatch")
	assert.Equal(t, got.LastUpdatedServer, int64(9000), "last updated server mismatch")
	assert.Equal(t, got.Payload.Title, "bar", "payload mismatch")

	// the receiver is unchanged
	assert.Equal(t, rec.Version, 3, "original version mismatch")
	assert.Equal(t, rec.Status, StatusSynced, "original status mismatch")
}

func TestWithServerTimestamp(t *testing.T) {
	rec := New("rec-1", testPayload{Title: "foo"}, time.UnixMilli(10000))

	got := rec.WithServerTimestamp(12000)

	assert.Equal(t, got.Status, StatusSynced, "status mismatch")
	assert.Equal(t, got.LastUpdatedServer, int64(12000), "last updated server mismatch")
	// a push is not a local mutation
	assert.Equal(t, got.Version, 1, "version mismatch")
}

func TestWithConflict(t *testing.T) {
	rec := New("rec-1", testPayload{Approved: true}, time.UnixMilli(10000))
	cd := ConflictData{
		Diff: []FieldDiff{
			{Name: "approved", Local: true, Remote: false, Critical: true},
		},
		RemoteVersion:   2,
		RemoteTimestamp: 11000,
		DetectedAt:      12000,
	}

	got := rec.WithConflict(cd)

	assert.Equal(t, got.Status, StatusConflicted, "status mismatch")
	assert.NotNil(t, got.Conflict, "conflict data missing")
	assert.Equal(t, got.Conflict.RemoteTimestamp, int64(11000), "remote timestamp mismatch")
	assert.Nil(t, got.Validate(), "conflicted record should validate")
}

func TestWithUserResolution(t *testing.T) {
	t.Run("conflicted record", func(t *testing.T) {
		rec := New("rec-1", testPayload{Title: "foo", Approved: true}, time.UnixMilli(10000))
		rec = rec.WithConflict(ConflictData{
			Diff: []FieldDiff{
				{Name: "approved", Local: true, Remote: false, Critical: true},
			},
			RemoteTimestamp: 11000,
			DetectedAt:      12000,
		})

		got, err := rec.WithUserResolution(map[string]interface{}{"approved": false}, time.UnixMilli(13000))

		assert.Nil(t, err, "resolving")
		assert.Equal(t, got.Status, StatusPending, "status mismatch")
		assert.Equal(t, got.Version, 2, "version mismatch")
		assert.Equal(t, got.Payload.Approved, false, "payload mismatch")
		// re-based onto the conflicting remote so the push is conditional on it
		assert.Equal(t, got.LastUpdatedServer, int64(11000), "last updated server mismatch")
		assert.Nil(t, got.Conflict, "conflict data should be cleared")
	})

	t.Run("record without conflict", func(t *testing.T) {
		rec := New("rec-1", testPayload{}, time.UnixMilli(10000))

		_, err := rec.WithUserResolution(map[string]interface{}{"approved": false}, time.UnixMilli(13000))

		assert.NotNil(t, err, "expected an error")
	})
}

func TestWithResolvedConflict(t *testing.T) {
	rec := New("rec-1", testPayload{Title: "foo", Count: 1}, time.UnixMilli(10000))

	got, err := rec.WithResolvedConflict(map[string]interface{}{"count": int64(5)}, 14000)

	assert.Nil(t, err, "resolving")
	assert.Equal(t, got.Status, StatusSynced, "status mismatch")
	assert.Equal(t, got.Version, 2, "version mismatch")
	assert.Equal(t, got.Payload.Count, int64(5), "payload mismatch")
	assert.Equal(t, got.Payload.Title, "foo", "untouched field mismatch")
	assert.Equal(t, got.LastUpdatedServer, int64(14000), "last updated server mismatch")
}

func TestValidate(t *testing.T) {
	t.Run("conflicted without conflict data", func(t *testing.T) {
		rec := New("rec-1", testPayload{}, time.UnixMilli(10000))
		rec.Status = StatusConflicted

		assert.NotNil(t, rec.Validate(), "expected an error")
	})

	t.Run("conflict data on non-conflicted record", func(t *testing.T) {
		rec := New("rec-1", testPayload{}, time.UnixMilli(10000))
		rec.Conflict = &ConflictData{}

		assert.NotNil(t, rec.Validate(), "expected an error")
	})
}

func TestGeneralizeAsKind(t *testing.T) {
	rec := Hydrated("rec-1", testPayload{Title: "foo"}, 2, 9000)

	wide := rec.Generalize()
	assert.Equal(t, wide.ID, "rec-1", "id mismatch")

	narrow, err := AsKind[testPayload](wide)
	assert.Nil(t, err, "narrowing")
	assert.Equal(t, narrow.Payload.Title, "foo", "payload mismatch")
	assert.Equal(t, narrow.Version, 2, "version mismatch")
}
