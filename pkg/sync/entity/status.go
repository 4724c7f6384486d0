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
	"github.com/pkg/errors"
)

// SyncStatus is the synchronization state of a record
type SyncStatus string

const (
	// StatusSynced indicates that the local copy matches the last known server state
	StatusSynced SyncStatus = "synced"
	// StatusPending indicates that the record has local changes waiting to be pushed
	StatusPending SyncStatus = "pending"
	// StatusSyncing indicates that the record is being reconciled right now
	StatusSyncing SyncStatus = "syncing"
	// StatusConflicted indicates that the record diverged on a critical field and
	// needs an explicit resolution
	StatusConflicted SyncStatus = "conflicted"
	// StatusError indicates that syncing the record failed after exhausting retries.
	// The pending local change is preserved.
	StatusError SyncStatus = "error"
)

// ErrInvalidStatus is an error for a sync status value that is not recognized
var ErrInvalidStatus = errors.New("invalid sync status")

// ParseStatus converts a stored string into a SyncStatus
func ParseStatus(s string) (SyncStatus, error) {
	switch SyncStatus(s) {
	case StatusSynced, StatusPending, StatusSyncing, StatusConflicted, StatusError:
		return SyncStatus(s), nil
	}

	return "", errors.Wrapf(ErrInvalidStatus, "'%s'", s)
}

// InPendingSet returns true if a record with the status must appear in the
// local store's pending queue
func (s SyncStatus) InPendingSet() bool {
	return s == StatusPending || s == StatusError
}
