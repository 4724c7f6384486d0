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
	"net/http/httptest"
	"testing"

	"github.com/parishkeep/parishkeep/pkg/assert"
)

func TestLimit(t *testing.T) {
	// Setup
	rl := NewRateLimiter()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Execute: exhaust the burst capacity
	var lastCode int
	for i := 0; i < serverRateLimitBurst+1; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	// Test
	assert.StatusCodeEquals(t, lastCode, http.StatusTooManyRequests, "status mismatch after burst")

	// Another IP is not affected
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.StatusCodeEquals(t, rec.Code, http.StatusOK, "status mismatch for another IP")
}

func TestLookupIP(t *testing.T) {
	testCases := []struct {
		realIP       string
		forwardedFor string
		remoteAddr   string
		expected     string
	}{
		{
			forwardedFor: "10.0.0.1, 10.0.0.2",
			realIP:       "10.0.0.3",
			remoteAddr:   "10.0.0.4:1234",
			expected:     "10.0.0.1",
		},
		{
			realIP:     "10.0.0.3",
			remoteAddr: "10.0.0.4:1234",
			expected:   "10.0.0.3",
		},
		{
			remoteAddr: "10.0.0.4:1234",
			expected:   "10.0.0.4:1234",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if tc.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tc.forwardedFor)
			}

			got := lookupIP(req)

			assert.Equal(t, got, tc.expected, "ip mismatch")
		})
	}
}
