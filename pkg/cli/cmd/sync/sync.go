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

package sync

import (
	"context"
	"sync"

	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/parishkeep/parishkeep/pkg/cli/upgrade"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var fullFlag bool

var example = `
 * Reconcile queued records with the server
 parishkeep sync

 * Also re-pull every settled record
 parishkeep sync --full`

// NewCmd returns a new sync command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sync local records with the server",
		Aliases: []string{"s"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&fullFlag, "full", "f", false, "re-pull every record in addition to pushing queued ones")

	return cmd
}

func newRun(ctx clictx.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.APIKey == "" {
			log.Error("not logged in. Run `parishkeep login` first.\n")
			return nil
		}

		coord, err := engine.Coordinator(ctx)
		if err != nil {
			return err
		}

		events, cancel := coord.Subscribe()
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()

			for ev := range events {
				switch ev.Status {
				case entity.StatusSynced:
					log.Successf("%s %s\n", ev.RecordID, output.StatusBadge(ev.Status))
				case entity.StatusConflicted:
					log.Warnf("%s needs resolution. Run `parishkeep view %s`.\n", ev.RecordID, ev.RecordID)
				case entity.StatusError:
					log.Errorf("%s: %s\n", ev.RecordID, ev.Err)
				}
			}
		}()

		log.Infof("syncing with %s\n", ctx.APIEndpoint)

		if fullFlag {
			err = coord.SyncAll(context.Background())
		} else {
			err = coord.Sync(context.Background())
		}

		cancel()
		wg.Wait()

		if err != nil {
			return errors.Wrap(err, "syncing")
		}

		log.Success("done\n")

		if err := upgrade.Check(context.Background(), ctx.Version); err != nil {
			log.Debug("checking for upgrade: %s\n", err.Error())
		}

		return nil
	}
}
