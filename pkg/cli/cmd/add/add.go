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

package add

import (
	"strings"

	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/parishkeep/parishkeep/pkg/cli/utils"
	"github.com/parishkeep/parishkeep/pkg/records"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Add an attendance report
 parishkeep add attendance_report service_date=2025-11-02 service_name="Sunday AM" men=40 women=55

 * Add an offering report
 parishkeep add offering_report service_date=2025-11-02 fund=general amount=125000 currency=USD`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errors.Errorf("missing the record kind. Available kinds: %s", strings.Join(records.Kinds(), ", "))
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <kind> [field=value ...]",
		Short:   "Add a new record",
		Aliases: []string{"a", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		kind := args[0]

		fields, err := utils.ParseFieldArgs(kind, args[1:])
		if err != nil {
			return errors.Wrap(err, "parsing fields")
		}

		zero, err := records.Decode(kind, []byte("{}"))
		if err != nil {
			return errors.Wrap(err, "looking up the record kind")
		}

		payload, err := zero.ApplyFields(fields)
		if err != nil {
			return errors.Wrap(err, "setting fields")
		}

		rec, err := engine.Repo(ctx, nil).Create(payload)
		if err != nil {
			return errors.Wrap(err, "creating the record")
		}

		log.Successf("added %s\n", kind)
		output.RecordInfo(rec)

		return nil
	}
}
