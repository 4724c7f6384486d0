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

package cmd

import (
	"fmt"
	"os"

	"github.com/parishkeep/parishkeep/pkg/server/database"
	"github.com/parishkeep/parishkeep/pkg/server/log"
)

func clientCreateCmd(args []string) {
	fs := setupFlagSet("create", "parishkeep-server client create")

	name := fs.String("name", "", "Client name (required)")
	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/parishkeep/server.db)")

	fs.Parse(args)

	requireString(fs, *name, "name")

	a, cleanup := setupAppWithDB(fs, *dbPath)
	defer cleanup()

	_, apiKey, err := a.CreateClient(*name)
	if err != nil {
		log.ErrorWrap(err, "creating client")
		os.Exit(1)
	}

	fmt.Printf("Client created successfully\n")
	fmt.Printf("Name: %s\n", *name)
	fmt.Printf("API key: %s\n", apiKey)
	fmt.Printf("Store the key now. It cannot be recovered later.\n")
}

func clientListCmd(args []string) {
	fs := setupFlagSet("list", "parishkeep-server client list")

	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/parishkeep/server.db)")

	fs.Parse(args)

	a, cleanup := setupAppWithDB(fs, *dbPath)
	defer cleanup()

	var clients []database.Client
	if err := a.DB.Order("name ASC").Find(&clients).Error; err != nil {
		log.ErrorWrap(err, "listing clients")
		os.Exit(1)
	}

	for _, c := range clients {
		lastSeen := "never"
		if c.LastSeenAt != nil {
			lastSeen = c.LastSeenAt.Format("2006-01-02 15:04:05")
		}

		fmt.Printf("%s\tlast seen: %s\n", c.Name, lastSeen)
	}
}

func clientCmd(args []string) {
	if len(args) < 1 {
		fmt.Printf(`Usage:
  parishkeep-server client [command]

Available commands:
  create: Create an API client
  list: List API clients
`)
		return
	}

	switch args[0] {
	case "create":
		clientCreateCmd(args[1:])
	case "list":
		clientListCmd(args[1:])
	default:
		fmt.Printf("Unknown command %s\n", args[0])
		os.Exit(1)
	}
}
