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

package version

import (
	"fmt"

	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/upgrade"
	"github.com/spf13/cobra"
)

var checkFlag bool

// NewCmd returns a new version command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Parishkeep",
		Long:  "Print the version number of Parishkeep",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("parishkeep %s\n", ctx.Version)

			if checkFlag {
				if err := upgrade.Check(cmd.Context(), ctx.Version); err != nil {
					log.Debug("checking for upgrade: %s\n", err.Error())
				}
			}
		},
	}

	f := cmd.Flags()
	f.BoolVar(&checkFlag, "check", false, "check for a newer release")

	return cmd
}
