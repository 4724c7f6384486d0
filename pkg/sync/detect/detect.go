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

// Package detect classifies a locally modified record against its remote
// counterpart at sync time. Classification is pure: same inputs, same result.
package detect

import (
	"reflect"
	"sort"

	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
)

// Classification is the outcome of comparing a pending local record with the
// fetched remote state
type Classification string

const (
	// PushOnly means nobody else touched the server copy; the local change
	// can be written as is
	PushOnly Classification = "push_only"
	// PullOnly means the server copy changed but holds the same field values,
	// e.g. an echoed write; remote metadata is adopted without user
	// involvement
	PullOnly Classification = "pull_only"
	// AutoMergeable means the copies diverged only on non-critical fields
	AutoMergeable Classification = "auto_mergeable"
	// Conflict means a critical field diverged; the record requires explicit
	// resolution
	Conflict Classification = "conflict"
)

// Result carries a classification together with the field diff that produced
// it
type Result struct {
	Classification Classification
	// Diff lists the differing conflict fields in lexical field order. Empty
	// for PushOnly and PullOnly.
	Diff []entity.FieldDiff
	// RemoteExists reports whether a remote counterpart was found
	RemoteExists bool
	Remote       remote.Document
}

// Classify compares a pending local record against the fetched remote state.
// remoteExists is false when the fetch reported no document.
//
// Field comparison uses value equality only. Timestamps never arbitrate at
// this stage.
func Classify(local entity.Record, rem remote.Document, remoteExists bool) Result {
	if !remoteExists {
		return Result{Classification: PushOnly}
	}

	// the local copy was derived from the current server state and has since
	// only been mutated locally
	if local.LastUpdatedServer == rem.ServerTimestamp {
		return Result{Classification: PushOnly, RemoteExists: true, Remote: rem}
	}

	diff := diffFields(local.Payload, rem)
	if len(diff) == 0 {
		return Result{Classification: PullOnly, RemoteExists: true, Remote: rem}
	}

	for _, d := range diff {
		if d.Critical {
			return Result{Classification: Conflict, Diff: diff, RemoteExists: true, Remote: rem}
		}
	}

	return Result{Classification: AutoMergeable, Diff: diff, RemoteExists: true, Remote: rem}
}

// ConflictData freezes the result of a Conflict classification into the
// snapshot stored on the record. detectedAt is supplied by the caller so that
// classification itself stays clock-free.
func (r Result) ConflictData(local entity.Record, detectedAt int64) entity.ConflictData {
	remoteFields := map[string]interface{}{}
	for name, value := range r.Remote.Fields {
		remoteFields[name] = value
	}

	return entity.ConflictData{
		Diff:            r.Diff,
		LocalFields:     local.Payload.ConflictFields(),
		RemoteFields:    remoteFields,
		RemoteVersion:   r.Remote.Version,
		RemoteTimestamp: r.Remote.ServerTimestamp,
		DetectedAt:      detectedAt,
	}
}

func diffFields(payload entity.Payload, rem remote.Document) []entity.FieldDiff {
	localFields := payload.ConflictFields()
	critical := payload.CriticalFields()

	names := make([]string, 0, len(localFields))
	for name := range localFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var ret []entity.FieldDiff
	for _, name := range names {
		localValue := localFields[name]
		remoteValue := rem.Fields[name]

		if valueEqual(localValue, remoteValue) {
			continue
		}

		ret = append(ret, entity.FieldDiff{
			Name:     name,
			Local:    localValue,
			Remote:   remoteValue,
			Critical: critical[name],
		})
	}

	return ret
}

// valueEqual compares two field values after normalizing numeric types.
// Values that crossed a JSON boundary arrive as float64 while payloads carry
// int64; both represent the same field value.
func valueEqual(a, b interface{}) bool {
	return reflect.DeepEqual(canon(a), canon(b))
}

func canon(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}

	return v
}
