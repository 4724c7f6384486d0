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

package remote

import (
	"context"
	"sync"

	"github.com/parishkeep/parishkeep/pkg/clock"
)

// MemStore is an in-memory Store implementation. It backs tests and is a
// faithful model of the server's conditional write semantics.
type MemStore struct {
	mu       sync.Mutex
	docs     map[string]Document
	changes  []Change
	nextSeq  int64
	clock    clock.Clock
	fetchErr error
	writeErr error
	watchers []chan Change
}

// NewMemStore returns a new in-memory store using the given clock for server
// timestamps
func NewMemStore(c clock.Clock) *MemStore {
	return &MemStore{
		docs:    map[string]Document{},
		nextSeq: 1,
		clock:   c,
	}
}

// SetFetchErr makes subsequent fetches fail with the given error. Pass nil to
// restore normal behavior.
func (s *MemStore) SetFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// SetWriteErr makes subsequent writes fail with the given error. Pass nil to
// restore normal behavior.
func (s *MemStore) SetWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Fetch returns the current state of the document
func (s *MemStore) Fetch(ctx context.Context, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetchErr != nil {
		return Document{}, s.fetchErr
	}

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}

	return doc, nil
}

// Write conditionally writes the document
func (s *MemStore) Write(ctx context.Context, doc Document, expectedServerTimestamp int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return 0, s.writeErr
	}

	var currentTimestamp int64
	if current, ok := s.docs[doc.ID]; ok {
		currentTimestamp = current.ServerTimestamp
	}
	if currentTimestamp != expectedServerTimestamp {
		return 0, ErrVersionConflict
	}

	ts := s.clock.Now().UnixMilli()
	// server timestamps must move forward even under a frozen or coarse clock
	if ts <= currentTimestamp {
		ts = currentTimestamp + 1
	}

	doc.ServerTimestamp = ts
	s.docs[doc.ID] = doc

	change := Change{Seq: s.nextSeq, Document: doc}
	s.nextSeq++
	s.changes = append(s.changes, change)

	for _, w := range s.watchers {
		select {
		case w <- change:
		default:
		}
	}

	return ts, nil
}

// Watch emits changes with sequence numbers greater than afterSeq
func (s *MemStore) Watch(ctx context.Context, afterSeq int64) (<-chan Change, error) {
	s.mu.Lock()

	backlog := make([]Change, 0, len(s.changes))
	for _, c := range s.changes {
		if c.Seq > afterSeq {
			backlog = append(backlog, c)
		}
	}

	live := make(chan Change, 64)
	s.watchers = append(s.watchers, live)
	s.mu.Unlock()

	out := make(chan Change)
	go func() {
		defer close(out)
		defer s.removeWatcher(live)

		for _, c := range backlog {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case c := <-live:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *MemStore) removeWatcher(w chan Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.watchers {
		if cur == w {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}
