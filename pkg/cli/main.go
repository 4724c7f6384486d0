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

package main

import (
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/pkg/errors"

	// commands
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/add"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/daemon"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/edit"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/login"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/logout"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/ls"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/resolve"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/root"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/sync"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/version"
	"github.com/parishkeep/parishkeep/pkg/cli/cmd/view"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath flag value from the command line
// arguments regardless of where it appears, because it may follow the
// subcommand and root.ParseFlags only parses flags before it.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(add.NewCmd(*ctx))
	root.Register(edit.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(view.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(daemon.NewCmd(*ctx))
	root.Register(resolve.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
