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

package records

import (
	"testing"

	"github.com/parishkeep/parishkeep/pkg/assert"
	"github.com/pkg/errors"
)

func TestKinds(t *testing.T) {
	assert.DeepEqual(t, Kinds(), []string{KindAttendance, KindOffering, KindTransport}, "kinds mismatch")
}

func TestDecode(t *testing.T) {
	t.Run("known kind", func(t *testing.T) {
		got, err := Decode(KindOffering, []byte(`{"service_date":"2025-11-02","fund":"general","amount":125000,"currency":"USD"}`))

		assert.Nil(t, err, "decoding")
		report := got.(OfferingReport)
		assert.Equal(t, report.Amount, int64(125000), "amount mismatch")
		assert.Equal(t, report.Fund, "general", "fund mismatch")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Decode("baptism_report", []byte(`{}`))

		assert.Equal(t, errors.Cause(err), ErrUnknownKind, "error mismatch")
	})
}

func TestFieldRoundTrip(t *testing.T) {
	report := TransportReport{
		ServiceDate: "2025-11-02",
		Vehicle:     "bus-1",
		Driver:      "T. Okafor",
		Passengers:  18,
		FuelCost:    4000,
		Notes:       "two trips",
	}

	fields, err := EncodeFields(report)
	assert.Nil(t, err, "encoding fields")
	// JSON object values carry numbers as float64
	assert.Equal(t, fields["fuel_cost"], float64(4000), "fuel cost mismatch")

	got, err := DecodeFields(KindTransport, fields)
	assert.Nil(t, err, "decoding fields")
	assert.DeepEqual(t, got, report, "report mismatch")
}

func TestApplyFields(t *testing.T) {
	report := OfferingReport{
		ServiceDate: "2025-11-02",
		Fund:        "general",
		Amount:      125000,
		Currency:    "USD",
	}

	t.Run("int64 value", func(t *testing.T) {
		got, err := report.ApplyFields(map[string]interface{}{"amount": int64(130000)})

		assert.Nil(t, err, "applying")
		assert.Equal(t, got.(OfferingReport).Amount, int64(130000), "amount mismatch")
	})

	t.Run("float64 value from a JSON boundary", func(t *testing.T) {
		got, err := report.ApplyFields(map[string]interface{}{"amount": float64(130000)})

		assert.Nil(t, err, "applying")
		assert.Equal(t, got.(OfferingReport).Amount, int64(130000), "amount mismatch")
	})

	t.Run("untouched fields survive", func(t *testing.T) {
		got, err := report.ApplyFields(map[string]interface{}{"notes": "late count"})

		assert.Nil(t, err, "applying")
		assert.Equal(t, got.(OfferingReport).Amount, int64(125000), "amount mismatch")
		assert.Equal(t, got.(OfferingReport).Fund, "general", "fund mismatch")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := report.ApplyFields(map[string]interface{}{"tithe": 1})

		assert.Equal(t, errors.Cause(err), ErrUnknownField, "error mismatch")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := report.ApplyFields(map[string]interface{}{"amount": "a lot"})

		assert.NotNil(t, err, "expected an error")
	})
}

func TestCriticalFields(t *testing.T) {
	assert.DeepEqual(t, OfferingReport{}.CriticalFields(), map[string]bool{
		"amount":   true,
		"approved": true,
	}, "offering critical fields mismatch")
	assert.DeepEqual(t, TransportReport{}.CriticalFields(), map[string]bool{
		"fuel_cost": true,
	}, "transport critical fields mismatch")
	assert.DeepEqual(t, AttendanceReport{}.CriticalFields(), map[string]bool{
		"approved": true,
	}, "attendance critical fields mismatch")
}
