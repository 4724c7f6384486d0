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

// Package consts provides definitions of constant values
package consts

const (
	// ParishkeepDirName is the name of the directory containing parishkeep files
	ParishkeepDirName = "parishkeep"
	// ConfigFilename is the name of the config file
	ConfigFilename = "parishkeeprc"
	// DBFilename is the name of the local database file
	DBFilename = "parishkeep.db"

	// SystemAPIKey is the system table key holding the API key
	SystemAPIKey = "api_key"
)
