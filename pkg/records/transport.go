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
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
)

// KindTransport is the record kind for transport reports
const KindTransport = "transport_report"

// TransportReport records one vehicle run for a service. Fuel cost is in
// cents.
type TransportReport struct {
	ServiceDate string `json:"service_date"`
	Vehicle     string `json:"vehicle"`
	Driver      string `json:"driver"`
	Passengers  int64  `json:"passengers"`
	FuelCost    int64  `json:"fuel_cost"`
	Notes       string `json:"notes"`
}

// Kind returns the record kind
func (r TransportReport) Kind() string {
	return KindTransport
}

// ConflictFields returns the fields eligible for conflict comparison
func (r TransportReport) ConflictFields() map[string]interface{} {
	return map[string]interface{}{
		"vehicle":    r.Vehicle,
		"driver":     r.Driver,
		"passengers": r.Passengers,
		"fuel_cost":  r.FuelCost,
		"notes":      r.Notes,
	}
}

// CriticalFields returns the fields that are never auto-merged
func (r TransportReport) CriticalFields() map[string]bool {
	return map[string]bool{
		"fuel_cost": true,
	}
}

// ApplyFields returns a new report with the given field values merged over
// the current ones
func (r TransportReport) ApplyFields(fields map[string]interface{}) (entity.Payload, error) {
	ret := r

	for name, value := range fields {
		var err error

		switch name {
		case "service_date":
			ret.ServiceDate, err = asString(name, value)
		case "vehicle":
			ret.Vehicle, err = asString(name, value)
		case "driver":
			ret.Driver, err = asString(name, value)
		case "passengers":
			ret.Passengers, err = asInt64(name, value)
		case "fuel_cost":
			ret.FuelCost, err = asInt64(name, value)
		case "notes":
			ret.Notes, err = asString(name, value)
		default:
			return nil, errors.Wrapf(ErrUnknownField, "'%s' on %s", name, KindTransport)
		}

		if err != nil {
			return nil, err
		}
	}

	return ret, nil
}
