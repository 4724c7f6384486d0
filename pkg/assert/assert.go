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

// Package assert provides test helpers for making assertions
package assert

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Equal fails a test if the actual does not match the expected
func Equal(t *testing.T, actual, expected interface{}, message string) {
	t.Helper()

	if actual != expected {
		t.Errorf("%s: got %+v, want %+v", message, actual, expected)
	}
}

// NotEqual fails a test if the actual matches the expected
func NotEqual(t *testing.T, actual, expected interface{}, message string) {
	t.Helper()

	if actual == expected {
		t.Errorf("%s: got %+v, want it to be different", message, actual)
	}
}

// DeepEqual fails a test if the actual does not deeply match the expected
func DeepEqual(t *testing.T, actual, expected interface{}, message string) {
	t.Helper()

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("%s: mismatch (-want +got):\n%s", message, cmp.Diff(expected, actual))
	}
}

// NotNil fails a test if the given value is nil
func NotNil(t *testing.T, val interface{}, message string) {
	t.Helper()

	if val == nil {
		t.Errorf("%s: got nil, want non-nil", message)
		return
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if v.IsNil() {
			t.Errorf("%s: got nil, want non-nil", message)
		}
	}
}

// Nil fails a test if the given value is not nil
func Nil(t *testing.T, val interface{}, message string) {
	t.Helper()

	if val == nil {
		return
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if !v.IsNil() {
			t.Errorf("%s: got %+v, want nil", message, val)
		}
	default:
		t.Errorf("%s: got %+v, want nil", message, val)
	}
}

// StatusCodeEquals fails a test if the actual status code does not match the expected
func StatusCodeEquals(t *testing.T, actual, expected int, message string) {
	t.Helper()

	if actual != expected {
		t.Errorf("%s: got status %d, want %d", message, actual, expected)
	}
}
