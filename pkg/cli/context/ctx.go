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

// Package context defines the parishkeep runtime context
package context

import (
	"net/http"

	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/database"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// ParishCtx is a context holding the information of the current runtime
type ParishCtx struct {
	Paths        Paths
	APIEndpoint  string
	Collection   string
	Version      string
	DB           *database.DB
	APIKey       string
	Strategy     string
	SyncSchedule string
	Clock        clock.Clock
	HTTPClient   *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx ParishCtx) ParishCtx {
	var apiKey string
	if ctx.APIKey != "" {
		apiKey = "1"
	} else {
		apiKey = "0"
	}
	ctx.APIKey = apiKey

	return ctx
}
