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

// Package records defines the record kinds that Parishkeep keeps and the
// registry that decodes stored rows and remote documents back into them.
package records

import (
	"encoding/json"
	"sort"

	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
)

// ErrUnknownKind is an error for a record kind that is not registered
var ErrUnknownKind = errors.New("unknown record kind")

// ErrUnknownField is an error for a field name a payload does not have
var ErrUnknownField = errors.New("unknown field")

type decodeFunc func(data []byte) (entity.Payload, error)

var registry = map[string]decodeFunc{
	KindAttendance: func(data []byte) (entity.Payload, error) {
		var ret AttendanceReport
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, errors.Wrap(err, "unmarshalling attendance report")
		}
		return ret, nil
	},
	KindOffering: func(data []byte) (entity.Payload, error) {
		var ret OfferingReport
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, errors.Wrap(err, "unmarshalling offering report")
		}
		return ret, nil
	},
	KindTransport: func(data []byte) (entity.Payload, error) {
		var ret TransportReport
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, errors.Wrap(err, "unmarshalling transport report")
		}
		return ret, nil
	},
}

// Kinds returns the registered record kinds in lexical order
func Kinds() []string {
	ret := make([]string, 0, len(registry))
	for kind := range registry {
		ret = append(ret, kind)
	}
	sort.Strings(ret)

	return ret
}

// Decode decodes the JSON representation of a payload of the given kind
func Decode(kind string, data []byte) (entity.Payload, error) {
	decode, ok := registry[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "'%s'", kind)
	}

	return decode(data)
}

// DecodeFields decodes a payload of the given kind from a decoded JSON
// object, e.g. the field map of a remote document
func DecodeFields(kind string, fields map[string]interface{}) (entity.Payload, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling fields")
	}

	return Decode(kind, b)
}

// Encode encodes a payload into its JSON representation
func Encode(payload entity.Payload) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "marshalling %s payload", payload.Kind())
	}

	return b, nil
}

// EncodeFields encodes a payload into a decoded JSON object, the shape the
// remote document store holds
func EncodeFields(payload entity.Payload) (map[string]interface{}, error) {
	b, err := Encode(payload)
	if err != nil {
		return nil, err
	}

	var ret map[string]interface{}
	if err := json.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrap(err, "unmarshalling into a field map")
	}

	return ret, nil
}

// asInt64 converts a field value into an int64. JSON decoding produces
// float64 for numbers, so both are accepted.
func asInt64(name string, v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		ret, err := n.Int64()
		if err != nil {
			return 0, errors.Wrapf(err, "converting field %s", name)
		}
		return ret, nil
	}

	return 0, errors.Errorf("field %s: expected a number, got %T", name, v)
}

func asString(name string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("field %s: expected a string, got %T", name, v)
	}

	return s, nil
}

func asBool(name string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("field %s: expected a bool, got %T", name, v)
	}

	return b, nil
}
