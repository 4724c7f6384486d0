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

package utils

import (
	"strconv"
	"strings"

	"github.com/parishkeep/parishkeep/pkg/records"
	"github.com/pkg/errors"
)

// ParseFieldArgs parses command line arguments in the key=value form into a
// field map typed for the given record kind. Values are coerced to the type
// the kind's field carries.
func ParseFieldArgs(kind string, args []string) (map[string]interface{}, error) {
	// the zero payload of the kind supplies the field names and types
	zero, err := records.Decode(kind, []byte("{}"))
	if err != nil {
		return nil, err
	}
	template, err := records.EncodeFields(zero)
	if err != nil {
		return nil, err
	}

	ret := map[string]interface{}{}

	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid field argument '%s'. Use key=value.", arg)
		}
		name, raw := parts[0], parts[1]

		tmplValue, ok := template[name]
		if !ok {
			return nil, errors.Errorf("unknown field '%s' for %s", name, kind)
		}

		switch tmplValue.(type) {
		case float64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing number for field '%s'", name)
			}
			ret[name] = n
		case bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing boolean for field '%s'", name)
			}
			ret[name] = b
		default:
			ret[name] = raw
		}
	}

	return ret, nil
}
