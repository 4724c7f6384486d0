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

package app

import (
	stderrors "errors"

	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrDocumentNotFound is an error for a document that does not exist
	ErrDocumentNotFound = errors.New("document not found")
	// ErrTimestampMismatch is an error for a conditional write whose expected
	// server timestamp does not match the stored one
	ErrTimestampMismatch = errors.New("server timestamp mismatch")
)

// PutDocumentParams are the parameters for writing a document
type PutDocumentParams struct {
	Collection string
	DocID      string
	Kind       string
	Fields     string
	Version    int
	// ExpectedTimestamp is the server timestamp the client observed, or zero
	// for a document the client believes does not exist yet
	ExpectedTimestamp int64
}

// GetDocument returns the document with the given id in the collection
func (a *App) GetDocument(collection, docID string) (database.Document, error) {
	var doc database.Document

	err := a.DB.Where("collection = ? AND doc_id = ?", collection, docID).First(&doc).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return database.Document{}, ErrDocumentNotFound
	} else if err != nil {
		return database.Document{}, errors.Wrap(err, "finding document")
	}

	return doc, nil
}

// PutDocument conditionally writes the document and appends the write to the
// collection's change feed. The write is rejected with ErrTimestampMismatch
// unless the expected timestamp matches the stored one.
func (a *App) PutDocument(p PutDocumentParams) (database.Document, error) {
	var ret database.Document

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var existing database.Document
		err := tx.Where("collection = ? AND doc_id = ?", p.Collection, p.DocID).First(&existing).Error

		exists := true
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return errors.Wrap(err, "finding document")
		}

		if exists && existing.ServerTimestamp != p.ExpectedTimestamp {
			return ErrTimestampMismatch
		}
		if !exists && p.ExpectedTimestamp != 0 {
			return ErrTimestampMismatch
		}

		// Timestamps are strictly monotonic per document even if the wall
		// clock stalls
		ts := a.Clock.Now().UnixMilli()
		if exists && ts <= existing.ServerTimestamp {
			ts = existing.ServerTimestamp + 1
		}

		doc := existing
		doc.Collection = p.Collection
		doc.DocID = p.DocID
		doc.Kind = p.Kind
		doc.Fields = p.Fields
		doc.Version = p.Version
		doc.ServerTimestamp = ts

		if err := tx.Save(&doc).Error; err != nil {
			return errors.Wrap(err, "saving document")
		}

		change := database.Change{
			Collection:      p.Collection,
			DocID:           p.DocID,
			Kind:            p.Kind,
			Fields:          p.Fields,
			Version:         p.Version,
			ServerTimestamp: ts,
		}
		if err := tx.Create(&change).Error; err != nil {
			return errors.Wrap(err, "appending change")
		}

		ret = doc
		return nil
	})
	if err != nil {
		return database.Document{}, err
	}

	return ret, nil
}

// ListChanges returns up to limit change feed entries of the collection with
// sequence numbers greater than afterSeq, in feed order
func (a *App) ListChanges(collection string, afterSeq int64, limit int) ([]database.Change, error) {
	var changes []database.Change

	err := a.DB.
		Where("collection = ? AND id > ?", collection, afterSeq).
		Order("id ASC").
		Limit(limit).
		Find(&changes).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing changes")
	}

	return changes, nil
}
