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

package resolve

import (
	"fmt"

	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/parishkeep/parishkeep/pkg/cli/utils"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	keepLocalFlag  bool
	keepRemoteFlag bool
)

var example = `
 * Inspect the conflict
 parishkeep resolve 4af37ca2

 * Keep the local values of the conflicting fields
 parishkeep resolve 4af37ca2 --keep-local

 * Keep the server values
 parishkeep resolve 4af37ca2 --keep-remote

 * Settle conflicting fields one by one
 parishkeep resolve 4af37ca2 amount=130000 approved=false`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errors.New("missing the record id")
	}
	if keepLocalFlag && keepRemoteFlag {
		return errors.New("--keep-local and --keep-remote are mutually exclusive")
	}

	return nil
}

// NewCmd returns a new resolve command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve <record id> [field=value ...]",
		Short:   "Resolve a conflicted record",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&keepLocalFlag, "keep-local", false, "keep the local values of the conflicting fields")
	f.BoolVar(&keepRemoteFlag, "keep-remote", false, "keep the server values of the conflicting fields")

	return cmd
}

// chosenFields derives the resolution field values from the flags or the
// field arguments
func chosenFields(rec entity.Record, args []string) (map[string]interface{}, error) {
	cd := rec.Conflict

	if keepLocalFlag {
		ret := map[string]interface{}{}
		for _, d := range cd.Diff {
			ret[d.Name] = d.Local
		}
		return ret, nil
	}

	if keepRemoteFlag {
		ret := map[string]interface{}{}
		for _, d := range cd.Diff {
			ret[d.Name] = d.Remote
		}
		return ret, nil
	}

	if len(args) == 0 {
		return nil, nil
	}

	return utils.ParseFieldArgs(rec.Payload.Kind(), args)
}

// showConflict prints the conflict detail, rendering diverging text fields
// with conflict markers
func showConflict(rec entity.Record) {
	output.RecordInfo(rec)

	for _, d := range rec.Conflict.Diff {
		localText, localOK := d.Local.(string)
		serverText, serverOK := d.Remote.(string)
		if !localOK || !serverOK {
			continue
		}

		fmt.Printf("\n%s:\n%s", d.Name, reportBodyConflict(localText+"\n", serverText+"\n"))
	}

	log.Plain("\nRun `parishkeep resolve` again with --keep-local, --keep-remote, or field=value arguments.\n")
}

func newRun(ctx clictx.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		recordID := args[0]

		rep := engine.Repo(ctx, nil)

		rec, err := rep.Load(recordID)
		if err != nil {
			return errors.Wrap(err, "loading the record")
		}
		if rec.Status != entity.StatusConflicted || rec.Conflict == nil {
			log.Infof("%s is not conflicted\n", recordID)
			return nil
		}

		fields, err := chosenFields(rec, args[1:])
		if err != nil {
			return errors.Wrap(err, "deriving the resolution")
		}

		if fields == nil {
			showConflict(rec)
			return nil
		}

		resolved, err := rep.Resolve(recordID, fields)
		if err != nil {
			return errors.Wrap(err, "resolving the record")
		}

		log.Successf("resolved %s. Run `parishkeep sync` to push.\n", recordID)
		output.RecordInfo(resolved)

		return nil
	}
}
