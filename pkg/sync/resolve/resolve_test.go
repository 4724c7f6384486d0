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

package resolve

import (
	"testing"
	"time"

	"github.com/parishkeep/parishkeep/pkg/assert"
	"github.com/parishkeep/parishkeep/pkg/records"
	"github.com/parishkeep/parishkeep/pkg/sync/detect"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/pkg/errors"
)

// pair builds a pending local record and a classified result for the given
// local and remote transport reports
func pair(t *testing.T, localEdit, remoteEdit func(*records.TransportReport), localAt, remoteTS int64) (entity.Record, detect.Result) {
	t.Helper()

	base := records.TransportReport{
		ServiceDate: "2025-11-02",
		Vehicle:     "bus-1",
		Driver:      "T. Okafor",
		Passengers:  18,
		FuelCost:    4000,
	}

	localP := base
	if localEdit != nil {
		localEdit(&localP)
	}
	remoteP := base
	if remoteEdit != nil {
		remoteEdit(&remoteP)
	}

	local := entity.Hydrated("rec-1", entity.Payload(base), 1, 9000)
	local = local.WithLocalUpdate(entity.Payload(localP), time.UnixMilli(localAt))

	fields, err := records.EncodeFields(remoteP)
	assert.Nil(t, err, "encoding remote fields")

	doc := remote.Document{
		ID:              "rec-1",
		Kind:            base.Kind(),
		Fields:          fields,
		Version:         2,
		ServerTimestamp: remoteTS,
	}

	return local, detect.Classify(local, doc, true)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"last_write_wins", "merge_fields", "keep_local", "keep_remote", "manual"} {
		s, err := ByName(name)
		assert.Nil(t, err, "looking up strategy")
		assert.Equal(t, s.Name(), name, "name mismatch")
	}

	_, err := ByName("bogus")
	assert.Equal(t, errors.Cause(err), ErrUnknownStrategy, "error mismatch")
}

func TestLastWriteWins(t *testing.T) {
	t.Run("local is later", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, func(p *records.TransportReport) { p.Notes = "no detour" }, 10000, 9500)

		out, err := LastWriteWins{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, WriteFields, "outcome mismatch")
		assert.DeepEqual(t, out.Fields, map[string]interface{}{"notes": "detour"}, "fields mismatch")
	})

	t.Run("remote is later", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, func(p *records.TransportReport) { p.Notes = "no detour" }, 9200, 9500)

		out, err := LastWriteWins{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, AdoptRemote, "outcome mismatch")
	})

	t.Run("critical divergence degrades to user choice", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.FuelCost = 4500 }, func(p *records.TransportReport) { p.FuelCost = 4200 }, 10000, 9500)

		out, err := LastWriteWins{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, UserChoice, "outcome mismatch")
	})
}

func TestMergeFields(t *testing.T) {
	t.Run("local evidence wins per field", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, func(p *records.TransportReport) { p.Driver = "M. Cho" }, 10000, 9500)

		out, err := MergeFields{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, WriteFields, "outcome mismatch")
		assert.DeepEqual(t, out.Fields, map[string]interface{}{
			"driver": "T. Okafor",
			"notes":  "detour",
		}, "fields mismatch")
	})

	t.Run("no local evidence adopts remote", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, func(p *records.TransportReport) { p.Driver = "M. Cho" }, 9100, 9500)

		out, err := MergeFields{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, AdoptRemote, "outcome mismatch")
	})

	t.Run("critical divergence degrades to user choice", func(t *testing.T) {
		local, res := pair(t, func(p *records.TransportReport) { p.FuelCost = 4500 }, func(p *records.TransportReport) { p.FuelCost = 4200 }, 10000, 9500)

		out, err := MergeFields{}.Resolve(local, res)

		assert.Nil(t, err, "resolving")
		assert.Equal(t, out.Kind, UserChoice, "outcome mismatch")
	})
}

func TestKeepLocal(t *testing.T) {
	// explicit keep-local overrides even a critical divergence
	local, res := pair(t, func(p *records.TransportReport) { p.FuelCost = 4500 }, func(p *records.TransportReport) { p.FuelCost = 4200 }, 10000, 9500)

	out, err := KeepLocal{}.Resolve(local, res)

	assert.Nil(t, err, "resolving")
	assert.Equal(t, out.Kind, WriteFields, "outcome mismatch")
	assert.DeepEqual(t, out.Fields, map[string]interface{}{"fuel_cost": int64(4500)}, "fields mismatch")
}

func TestKeepRemote(t *testing.T) {
	local, res := pair(t, func(p *records.TransportReport) { p.FuelCost = 4500 }, func(p *records.TransportReport) { p.FuelCost = 4200 }, 10000, 9500)

	out, err := KeepRemote{}.Resolve(local, res)

	assert.Nil(t, err, "resolving")
	assert.Equal(t, out.Kind, AdoptRemote, "outcome mismatch")
}

func TestManual(t *testing.T) {
	local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, nil, 10000, 9500)

	out, err := Manual{}.Resolve(local, res)

	assert.Nil(t, err, "resolving")
	assert.Equal(t, out.Kind, UserChoice, "outcome mismatch")
}

func TestDeterminism(t *testing.T) {
	local, res := pair(t, func(p *records.TransportReport) { p.Notes = "detour" }, func(p *records.TransportReport) { p.Driver = "M. Cho" }, 10000, 9500)

	for _, s := range []Strategy{LastWriteWins{}, MergeFields{}, KeepLocal{}, KeepRemote{}, Manual{}} {
		first, err := s.Resolve(local, res)
		assert.Nil(t, err, "resolving")

		second, err := s.Resolve(local, res)
		assert.Nil(t, err, "resolving again")

		assert.DeepEqual(t, first, second, s.Name()+" should be deterministic")
	}
}
