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

package view

import (
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/engine"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * View a record, including any conflict detail
 parishkeep view 4af37ca2`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new view command
func NewCmd(ctx context.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <record id>",
		Short:   "View a record",
		Aliases: []string{"v"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rec, err := engine.Repo(ctx, nil).Load(args[0])
		if err != nil {
			return errors.Wrap(err, "loading the record")
		}

		output.RecordInfo(rec)

		return nil
	}
}
