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

// Package testutils provides utilities used in tests
package testutils

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// Unique name per test so parallel tests do not share state
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	database.InitSchema(db)

	return db
}

// SetupClientData creates and returns a new API client with the given key
// for testing purposes
func SetupClientData(db *gorm.DB, name, apiKey string) database.Client {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash API key"))
	}

	client := database.Client{
		Name:       name,
		APIKeyHash: string(hash),
	}
	if err := db.Create(&client).Error; err != nil {
		panic(errors.Wrap(err, "Failed to create client"))
	}

	return client
}

// MustCountRows counts the rows of the model and fails the test on error
func MustCountRows(t *testing.T, db *gorm.DB, model interface{}) int {
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting rows"))
	}

	return int(count)
}
