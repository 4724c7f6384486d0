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

package ls

import (
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var pendingFlag bool

var example = `
 * List all records
 parishkeep ls

 * List offering reports only
 parishkeep ls offering_report

 * List records waiting to sync
 parishkeep ls --pending`

// NewCmd returns a new ls command
func NewCmd(ctx context.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [kind]",
		Short:   "List records with their sync status",
		Aliases: []string{"l", "list"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&pendingFlag, "pending", false, "list only records queued for sync")

	return cmd
}

func newRun(ctx context.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rep := engine.Repo(ctx, nil)

		var kind string
		if len(args) > 0 {
			kind = args[0]
		}

		var list []entity.Record
		var err error
		if pendingFlag {
			list, err = rep.ListPending()
		} else {
			list, err = rep.List(kind)
		}
		if err != nil {
			return errors.Wrap(err, "listing records")
		}

		if len(list) == 0 {
			log.Info("no records\n")
			return nil
		}

		for _, rec := range list {
			output.RecordLine(rec)
		}

		return nil
	}
}
