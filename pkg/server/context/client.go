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

// Package context provides the request-scoped values of the server
package context

import (
	"context"

	"github.com/parishkeep/parishkeep/pkg/server/database"
)

type contextKey string

const clientKey contextKey = "client"

// WithClient returns a context with the authenticated client attached
func WithClient(ctx context.Context, client *database.Client) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// Client returns the authenticated client of the request, or nil
func Client(ctx context.Context) *database.Client {
	v, _ := ctx.Value(clientKey).(*database.Client)
	return v
}
