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

// Package engine assembles the sync engine from a runtime context
package engine

import (
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/records"
	"github.com/parishkeep/parishkeep/pkg/sync/coordinator"
	"github.com/parishkeep/parishkeep/pkg/sync/localstore"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/parishkeep/parishkeep/pkg/sync/repo"
	"github.com/parishkeep/parishkeep/pkg/sync/resolve"
	"github.com/pkg/errors"
)

// Store returns the local record store for the context
func Store(ctx context.ParishCtx) *localstore.Store {
	return localstore.New(ctx.DB, records.Decode)
}

// Remote returns the remote store adapter for the context
func Remote(ctx context.ParishCtx) remote.Store {
	s := remote.NewHTTPStore(ctx.APIEndpoint, ctx.Collection, ctx.APIKey)
	s.HTTPClient = ctx.HTTPClient

	return s
}

// Coordinator returns a sync coordinator wired for the context
func Coordinator(ctx context.ParishCtx) (*coordinator.Coordinator, error) {
	strategy, err := resolve.ByName(ctx.Strategy)
	if err != nil {
		return nil, errors.Wrap(err, "looking up the resolution strategy")
	}

	return coordinator.New(coordinator.Params{
		Store:        Store(ctx),
		Remote:       Remote(ctx),
		Clock:        ctx.Clock,
		Strategy:     strategy,
		EncodeFields: records.EncodeFields,
		DecodeFields: records.DecodeFields,
	}), nil
}

// Repo returns a repository wired for the context. The coordinator is
// optional; commands that never sync pass nil.
func Repo(ctx context.ParishCtx, coord *coordinator.Coordinator) *repo.Repository {
	return repo.New(Store(ctx), ctx.Clock, coord)
}
