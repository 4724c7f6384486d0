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

// KindAttendance is the record kind for attendance reports
const KindAttendance = "attendance_report"

// AttendanceReport is a head count for one service
type AttendanceReport struct {
	// ServiceDate identifies the service, e.g. "2025-08-31". It is fixed at
	// creation and excluded from conflict comparison.
	ServiceDate string `json:"service_date"`
	ServiceName string `json:"service_name"`
	Men         int64  `json:"men"`
	Women       int64  `json:"women"`
	Children    int64  `json:"children"`
	Visitors    int64  `json:"visitors"`
	Notes       string `json:"notes"`
	Approved    bool   `json:"approved"`
}

// Kind returns the record kind
func (r AttendanceReport) Kind() string {
	return KindAttendance
}

// ConflictFields returns the fields eligible for conflict comparison
func (r AttendanceReport) ConflictFields() map[string]interface{} {
	return map[string]interface{}{
		"service_name": r.ServiceName,
		"men":          r.Men,
		"women":        r.Women,
		"children":     r.Children,
		"visitors":     r.Visitors,
		"notes":        r.Notes,
		"approved":     r.Approved,
	}
}

// CriticalFields returns the fields that are never auto-merged
func (r AttendanceReport) CriticalFields() map[string]bool {
	return map[string]bool{
		"approved": true,
	}
}

// ApplyFields returns a new report with the given field values merged over
// the current ones
func (r AttendanceReport) ApplyFields(fields map[string]interface{}) (entity.Payload, error) {
	ret := r

	for name, value := range fields {
		var err error

		switch name {
		case "service_date":
			ret.ServiceDate, err = asString(name, value)
		case "service_name":
			ret.ServiceName, err = asString(name, value)
		case "men":
			ret.Men, err = asInt64(name, value)
		case "women":
			ret.Women, err = asInt64(name, value)
		case "children":
			ret.Children, err = asInt64(name, value)
		case "visitors":
			ret.Visitors, err = asInt64(name, value)
		case "notes":
			ret.Notes, err = asString(name, value)
		case "approved":
			ret.Approved, err = asBool(name, value)
		default:
			return nil, errors.Wrapf(ErrUnknownField, "'%s' on %s", name, KindAttendance)
		}

		if err != nil {
			return nil, err
		}
	}

	return ret, nil
}
