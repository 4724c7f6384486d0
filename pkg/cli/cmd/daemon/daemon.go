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

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Keep records in sync in the background
 parishkeep daemon`

// NewCmd returns a new daemon command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run periodic sync and follow the server change feed",
		Example: example,
		RunE:    newRun(ctx),
	}

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

		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigs
			log.Info("shutting down\n")
			cancel()
		}()

		events, unsubscribe := coord.Subscribe()
		defer unsubscribe()
		go func() {
			for ev := range events {
				if ev.Err != nil {
					log.Errorf("%s: %s\n", ev.RecordID, ev.Err)
					continue
				}
				log.Infof("%s %s\n", ev.RecordID, output.StatusBadge(ev.Status))
			}
		}()

		log.Infof("sync schedule: %s\n", ctx.SyncSchedule)

		err = coord.Run(runCtx, ctx.SyncSchedule)
		if err == context.Canceled {
			return nil
		}

		return errors.Wrap(err, "running the sync scheduler")
	}
}
