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

// KindOffering is the record kind for offering reports
const KindOffering = "offering_report"

// OfferingReport records the offering collected at one service. Amounts are
// in cents.
type OfferingReport struct {
	ServiceDate string `json:"service_date"`
	Fund        string `json:"fund"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Notes       string `json:"notes"`
	Approved    bool   `json:"approved"`
}

// Kind returns the record kind
func (r OfferingReport) Kind() string {
	return KindOffering
}

// ConflictFields returns the fields eligible for conflict comparison
func (r OfferingReport) ConflictFields() map[string]interface{} {
	return map[string]interface{}{
		"fund":     r.Fund,
		"amount":   r.Amount,
		"currency": r.Currency,
		"notes":    r.Notes,
		"approved": r.Approved,
	}
}

// CriticalFields returns the fields that are never auto-merged. Money and
// approval state always go to manual resolution.
func (r OfferingReport) CriticalFields() map[string]bool {
	return map[string]bool{
		"amount":   true,
		"approved": true,
	}
}

// ApplyFields returns a new report with the given field values merged over
// the current ones
func (r OfferingReport) ApplyFields(fields map[string]interface{}) (entity.Payload, error) {
	ret := r

	for name, value := range fields {
		var err error

		switch name {
		case "service_date":
			ret.ServiceDate, err = asString(name, value)
		case "fund":
			ret.Fund, err = asString(name, value)
		case "amount":
			ret.Amount, err = asInt64(name, value)
		case "currency":
			ret.Currency, err = asString(name, value)
		case "notes":
			ret.Notes, err = asString(name, value)
		case "approved":
			ret.Approved, err = asBool(name, value)
		default:
			return nil, errors.Wrapf(ErrUnknownField, "'%s' on %s", name, KindOffering)
		}

		if err != nil {
			return nil, err
		}
	}

	return ret, nil
}
