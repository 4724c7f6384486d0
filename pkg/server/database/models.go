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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Client is an API client allowed to read and write documents
type Client struct {
	Model
	Name       string `gorm:"uniqueIndex"`
	APIKeyHash string `json:"-"`
	LastSeenAt *time.Time
}

// Document is the authoritative state of one synced record
type Document struct {
	Model
	Collection string `json:"-" gorm:"index:idx_documents_collection_doc_id,unique"`
	DocID      string `json:"id" gorm:"index:idx_documents_collection_doc_id,unique"`
	Kind       string `json:"kind"`
	// Fields is the serialized JSON object holding the domain fields
	Fields  string `json:"-" gorm:"type:text"`
	Version int    `json:"version"`
	// ServerTimestamp is assigned on every write, in unix milliseconds. It
	// is the optimistic concurrency token.
	ServerTimestamp int64 `json:"server_timestamp"`
}

// Change is one entry of a collection's change feed. The primary key doubles
// as the feed sequence number.
type Change struct {
	ID              int64 `gorm:"primaryKey"`
	CreatedAt       time.Time
	Collection      string `gorm:"index"`
	DocID           string
	Kind            string
	Fields          string `gorm:"type:text"`
	Version         int
	ServerTimestamp int64
}
