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

// Package remote defines the narrow interface to the authoritative networked
// document store, and its implementations. The adapter reports raw remote
// state and raw write outcomes; it never applies conflict logic.
package remote

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is an error for a document that does not exist remotely
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict is an error for a conditional write that lost a race:
	// the remote document's server timestamp changed after it was read. It is
	// an expected concurrency signal, not a failure.
	ErrVersionConflict = errors.New("remote document changed since it was read")
)

// Document is the raw remote state of one record
type Document struct {
	ID   string                 `json:"id"`
	Kind string                 `json:"kind"`
	// Fields is the decoded JSON object holding the domain fields
	Fields map[string]interface{} `json:"fields"`
	// Version is the application-level version counter carried alongside the
	// domain fields. It never arbitrates writes; the server timestamp does.
	Version int `json:"version"`
	// ServerTimestamp is assigned by the store's clock on write, in unix
	// milliseconds. It is the optimistic concurrency token.
	ServerTimestamp int64 `json:"server_timestamp"`
}

// Change is one change-feed notification
type Change struct {
	// Seq orders changes within a collection
	Seq      int64    `json:"seq"`
	Document Document `json:"document"`
}

// Store is the interface to the remote document store
type Store interface {
	// Fetch returns the current remote state of the document, or ErrNotFound
	Fetch(ctx context.Context, id string) (Document, error)

	// Write conditionally writes the document and returns the server
	// timestamp the store assigned. expectedServerTimestamp must be the
	// timestamp observed at fetch time, or zero for a document the client
	// believes does not exist yet. It returns ErrVersionConflict if the
	// stored timestamp differs.
	Write(ctx context.Context, doc Document, expectedServerTimestamp int64) (int64, error)

	// Watch emits change notifications with sequence numbers greater than
	// afterSeq. The returned channel is closed when the context is cancelled
	// or the feed cannot be restarted.
	Watch(ctx context.Context, afterSeq int64) (<-chan Change, error)
}
