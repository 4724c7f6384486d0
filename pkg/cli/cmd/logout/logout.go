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

package logout

import (
	"github.com/parishkeep/parishkeep/pkg/cli/consts"
	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrNotLoggedIn is an error for logging out without a stored API key
var ErrNotLoggedIn = errors.New("not logged in")

var example = `
  parishkeep logout`

// NewCmd returns a new logout command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Remove the stored API key",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do removes the stored API key
func Do(ctx clictx.ParishCtx) error {
	var key string
	if err := database.GetSystem(ctx.DB, consts.SystemAPIKey, &key); err != nil {
		return errors.Wrap(err, "getting the API key")
	}
	if key == "" {
		return ErrNotLoggedIn
	}

	if err := database.DeleteSystem(ctx.DB, consts.SystemAPIKey); err != nil {
		return errors.Wrap(err, "deleting the API key")
	}

	return nil
}

func newRun(ctx clictx.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := Do(ctx)
		if err == ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
