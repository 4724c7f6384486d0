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

package edit

import (
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/parishkeep/parishkeep/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Correct the women count of an attendance report
 parishkeep edit 4af37ca2 women=60

 * Update the notes of an offering report
 parishkeep edit 8f2e01b3 notes="includes building fund pledge"`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return errors.New("missing the record id or field arguments")
	}

	return nil
}

// NewCmd returns a new edit command
func NewCmd(ctx context.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <record id> <field=value ...>",
		Short:   "Edit a record",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		recordID := args[0]

		rep := engine.Repo(ctx, nil)

		rec, err := rep.Load(recordID)
		if err != nil {
			return errors.Wrap(err, "loading the record")
		}

		fields, err := utils.ParseFieldArgs(rec.Payload.Kind(), args[1:])
		if err != nil {
			return errors.Wrap(err, "parsing fields")
		}

		payload, err := rec.Payload.ApplyFields(fields)
		if err != nil {
			return errors.Wrap(err, "setting fields")
		}

		updated, err := rep.Update(recordID, payload)
		if err != nil {
			return errors.Wrap(err, "updating the record")
		}

		log.Successf("edited %s\n", recordID)
		output.RecordInfo(updated)

		return nil
	}
}
