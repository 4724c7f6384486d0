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

package log

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/parishkeep/parishkeep/pkg/assert"
	"github.com/pkg/errors"
)

func TestShouldLog(t *testing.T) {
	testCases := []struct {
		currentLevel string
		level        string
		expected     bool
	}{
		{LevelInfo, LevelDebug, false},
		{LevelInfo, LevelInfo, true},
		{LevelInfo, LevelWarn, true},
		{LevelInfo, LevelError, true},
		{LevelDebug, LevelDebug, true},
		{LevelError, LevelWarn, false},
		{LevelError, LevelError, true},
		{"bogus", LevelInfo, true},
		{"bogus", LevelDebug, false},
	}

	original := currentLevel
	defer SetLevel(original)

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			SetLevel(tc.currentLevel)

			got := shouldLog(tc.level)

			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestFormatJSON(t *testing.T) {
	// Setup
	e := Entry{
		Fields: Fields{
			"port": "3001",
			"err":  errors.New("some error"),
		},
		Timestamp: time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC),
	}

	// Execute
	serialized := e.formatJSON(LevelInfo, "server starting")

	// Test
	var data map[string]interface{}
	if err := json.Unmarshal(serialized, &data); err != nil {
		t.Fatal(errors.Wrap(err, "unmarshalling the entry"))
	}

	assert.Equal(t, data["level"], "info", "level mismatch")
	assert.Equal(t, data["msg"], "server starting", "message mismatch")
	assert.Equal(t, data["port"], "3001", "port mismatch")
	assert.Equal(t, data["err"], "some error", "error field mismatch")
	assert.Equal(t, data["ts_unix"], float64(e.Timestamp.Unix()), "unix timestamp mismatch")
}
