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
	"crypto/rand"
	"encoding/base64"

	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrClientNameTaken is an error for creating a client with a duplicate name
var ErrClientNameTaken = errors.New("a client with the name already exists")

// GenerateAPIKey returns a new random API key
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generating random key")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateClient registers a new API client under the given name and returns
// its API key. The key is stored hashed and cannot be recovered later.
func (a *App) CreateClient(name string) (database.Client, string, error) {
	var count int64
	if err := a.DB.Model(&database.Client{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return database.Client{}, "", errors.Wrap(err, "counting clients")
	}
	if count > 0 {
		return database.Client{}, "", ErrClientNameTaken
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		return database.Client{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return database.Client{}, "", errors.Wrap(err, "hashing the API key")
	}

	client := database.Client{
		Name:       name,
		APIKeyHash: string(hash),
	}
	if err := a.DB.Create(&client).Error; err != nil {
		return database.Client{}, "", errors.Wrap(err, "creating client")
	}

	return client, apiKey, nil
}

// Authenticate returns the client matching the given API key, or false when
// no client matches
func (a *App) Authenticate(apiKey string) (database.Client, bool, error) {
	if apiKey == "" {
		return database.Client{}, false, nil
	}

	var clients []database.Client
	if err := a.DB.Find(&clients).Error; err != nil {
		return database.Client{}, false, errors.Wrap(err, "listing clients")
	}

	for _, c := range clients {
		if bcrypt.CompareHashAndPassword([]byte(c.APIKeyHash), []byte(apiKey)) == nil {
			now := a.Clock.Now()
			c.LastSeenAt = &now
			if err := a.DB.Save(&c).Error; err != nil {
				return database.Client{}, false, errors.Wrap(err, "updating client")
			}

			return c, true, nil
		}
	}

	return database.Client{}, false, nil
}
