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

// Package resolve applies a resolution strategy to a classified record pair.
// Resolution is deterministic: strategies consult only the timestamps already
// stamped on the snapshots, never a wall clock.
package resolve

import (
	"github.com/parishkeep/parishkeep/pkg/sync/detect"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
)

// OutcomeKind is the kind of decision a strategy produced
type OutcomeKind string

const (
	// WriteFields means the given field values should be merged over the
	// local payload and pushed to the remote store
	WriteFields OutcomeKind = "write_fields"
	// AdoptRemote means the remote snapshot wins wholesale; nothing is
	// pushed, the local copy adopts the remote state
	AdoptRemote OutcomeKind = "adopt_remote"
	// UserChoice means no merge was performed; the record requires an
	// explicit resolution before it can sync
	UserChoice OutcomeKind = "user_choice"
)

// Outcome is a resolution decision
type Outcome struct {
	Kind OutcomeKind
	// Fields holds the values to write for WriteFields outcomes, keyed by
	// field name. Only differing fields appear.
	Fields map[string]interface{}
}

// Strategy resolves a classified pair into an outcome
type Strategy interface {
	Name() string
	// Resolve consumes a record classified AutoMergeable or Conflict
	Resolve(local entity.Record, res detect.Result) (Outcome, error)
}

// ErrUnknownStrategy is an error for a strategy name that is not recognized
var ErrUnknownStrategy = errors.New("unknown resolution strategy")

// ByName returns the strategy with the given name
func ByName(name string) (Strategy, error) {
	switch name {
	case "last_write_wins":
		return LastWriteWins{}, nil
	case "merge_fields":
		return MergeFields{}, nil
	case "keep_local":
		return KeepLocal{}, nil
	case "keep_remote":
		return KeepRemote{}, nil
	case "manual":
		return Manual{}, nil
	}

	return nil, errors.Wrapf(ErrUnknownStrategy, "'%s'", name)
}

// LastWriteWins takes every differing field from whichever side wrote later,
// judged by the stamped timestamps. A critical divergence is never decided
// here and degrades to UserChoice.
type LastWriteWins struct{}

// Name returns the strategy name
func (s LastWriteWins) Name() string { return "last_write_wins" }

// Resolve resolves the pair in favor of the later writer
func (s LastWriteWins) Resolve(local entity.Record, res detect.Result) (Outcome, error) {
	if res.Classification == detect.Conflict {
		return Outcome{Kind: UserChoice}, nil
	}

	if local.LocalUpdatedAt > res.Remote.ServerTimestamp {
		return Outcome{Kind: WriteFields, Fields: localValues(res.Diff)}, nil
	}

	return Outcome{Kind: AdoptRemote}, nil
}

// MergeFields merges per field: each differing non-critical field takes the
// value from the side with the later modification evidence, falling back to
// remote when local evidence is absent. A critical divergence degrades to
// UserChoice.
type MergeFields struct{}

// Name returns the strategy name
func (s MergeFields) Name() string { return "merge_fields" }

// Resolve merges the differing fields one by one
func (s MergeFields) Resolve(local entity.Record, res detect.Result) (Outcome, error) {
	if res.Classification == detect.Conflict {
		return Outcome{Kind: UserChoice}, nil
	}

	fields := map[string]interface{}{}
	localWon := false

	for _, d := range res.Diff {
		// modification evidence is the whole-record stamp of each side; a
		// record without a local stamp has no evidence and falls back to
		// remote
		if local.LocalUpdatedAt != 0 && local.LocalUpdatedAt > res.Remote.ServerTimestamp {
			fields[d.Name] = d.Local
			localWon = true
		} else {
			fields[d.Name] = d.Remote
		}
	}

	if !localWon {
		return Outcome{Kind: AdoptRemote}, nil
	}

	return Outcome{Kind: WriteFields, Fields: fields}, nil
}

// KeepLocal takes the full local snapshot regardless of evidence
type KeepLocal struct{}

// Name returns the strategy name
func (s KeepLocal) Name() string { return "keep_local" }

// Resolve resolves the pair in favor of the local snapshot
func (s KeepLocal) Resolve(local entity.Record, res detect.Result) (Outcome, error) {
	return Outcome{Kind: WriteFields, Fields: localValues(res.Diff)}, nil
}

// KeepRemote takes the full remote snapshot regardless of evidence
type KeepRemote struct{}

// Name returns the strategy name
func (s KeepRemote) Name() string { return "keep_remote" }

// Resolve resolves the pair in favor of the remote snapshot
func (s KeepRemote) Resolve(local entity.Record, res detect.Result) (Outcome, error) {
	return Outcome{Kind: AdoptRemote}, nil
}

// Manual performs no merge: every divergence requires an explicit resolution
type Manual struct{}

// Name returns the strategy name
func (s Manual) Name() string { return "manual" }

// Resolve signals that the record requires external resolution
func (s Manual) Resolve(local entity.Record, res detect.Result) (Outcome, error) {
	return Outcome{Kind: UserChoice}, nil
}

func localValues(diff []entity.FieldDiff) map[string]interface{} {
	ret := map[string]interface{}{}
	for _, d := range diff {
		ret[d.Name] = d.Local
	}

	return ret
}
