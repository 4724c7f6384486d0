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

// Package presenters provides representations of data for clients
package presenters

import (
	"encoding/json"

	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/pkg/errors"
)

// Document is a document for clients
type Document struct {
	ID              string                 `json:"id"`
	Kind            string                 `json:"kind"`
	Fields          map[string]interface{} `json:"fields"`
	Version         int                    `json:"version"`
	ServerTimestamp int64                  `json:"server_timestamp"`
}

// Change is a change feed entry for clients
type Change struct {
	Seq      int64    `json:"seq"`
	Document Document `json:"document"`
}

// PresentDocument presents a document
func PresentDocument(doc database.Document) (Document, error) {
	fields := map[string]interface{}{}
	if doc.Fields != "" {
		if err := json.Unmarshal([]byte(doc.Fields), &fields); err != nil {
			return Document{}, errors.Wrap(err, "decoding document fields")
		}
	}

	return Document{
		ID:              doc.DocID,
		Kind:            doc.Kind,
		Fields:          fields,
		Version:         doc.Version,
		ServerTimestamp: doc.ServerTimestamp,
	}, nil
}

// PresentChange presents a change feed entry
func PresentChange(change database.Change) (Change, error) {
	fields := map[string]interface{}{}
	if change.Fields != "" {
		if err := json.Unmarshal([]byte(change.Fields), &fields); err != nil {
			return Change{}, errors.Wrap(err, "decoding change fields")
		}
	}

	return Change{
		Seq: change.ID,
		Document: Document{
			ID:              change.DocID,
			Kind:            change.Kind,
			Fields:          fields,
			Version:         change.Version,
			ServerTimestamp: change.ServerTimestamp,
		},
	}, nil
}

// PresentChanges presents a list of change feed entries
func PresentChanges(changes []database.Change) ([]Change, error) {
	ret := []Change{}

	for _, c := range changes {
		p, err := PresentChange(c)
		if err != nil {
			return nil, err
		}

		ret = append(ret, p)
	}

	return ret, nil
}
