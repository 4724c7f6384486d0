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

package middleware

import (
	"fmt"
	"net/http"

	"github.com/parishkeep/parishkeep/pkg/server/app"
	"github.com/parishkeep/parishkeep/pkg/server/log"
)

// Middleware wraps a handler with the cross-cutting concerns of a route group
type Middleware func(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler

// APIMw is the middleware for API routes
func APIMw(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler {
	return ApplyLimit(h, rateLimit)
}

// DoError logs the error and responds with the given status
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	log.WithFields(log.Fields{
		"statusCode": statusCode,
		"err":        err,
	}).Error(msg)

	http.Error(w, msg, statusCode)
}

// RespondUnauthorized responds with an unauthorized status
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="parishkeep"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func logging(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"method": r.Method,
			"uri":    r.RequestURI,
			"remote": lookupIP(r),
		}).Debug("incoming request")
	})
}

func recoverPanic(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				DoError(w, "internal server error", fmt.Errorf("panic: %v", rec), http.StatusInternalServerError)
			}
		}()

		inner.ServeHTTP(w, r)
	})
}

// Global applies the middleware that all routes share
func Global(inner http.Handler) http.Handler {
	return recoverPanic(logging(inner))
}
