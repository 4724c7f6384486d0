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

package login

import (
	"fmt"
	"net/url"

	"github.com/parishkeep/parishkeep/pkg/cli/consts"
	clictx "github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/infra"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/ui"
	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  parishkeep login`

// NewCmd returns a new login command
func NewCmd(ctx clictx.ParishCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Store the API key for the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// getServerDisplayURL derives the user-facing URL of the server from the
// configured API endpoint
func getServerDisplayURL(ctx clictx.ParishCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

func newRun(ctx clictx.ParishCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Infof("logging in to %s\n", displayURL)
		}

		var apiKey string
		if err := ui.PromptPassword("API key:", &apiKey); err != nil {
			return errors.Wrap(err, "getting the API key")
		}
		if apiKey == "" {
			return errors.New("the API key is empty")
		}

		if err := database.UpdateSystem(ctx.DB, consts.SystemAPIKey, apiKey); err != nil {
			return errors.Wrap(err, "saving the API key")
		}

		log.Success("logged in\n")

		return nil
	}
}
