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

// Package upgrade checks the published releases for a newer version
package upgrade

import (
	"context"
	"strings"

	"github.com/google/go-github/github"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/pkg/errors"
)

const (
	repoOwner = "parishkeep"
	repoName  = "parishkeep"
)

// fetchLatestVersion returns the latest released version tag
func fetchLatestVersion(ctx context.Context) (string, error) {
	client := github.NewClient(nil)

	release, _, err := client.Repositories.GetLatestRelease(ctx, repoOwner, repoName)
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}

	return strings.TrimPrefix(release.GetTagName(), "v"), nil
}

// Check compares the current version against the latest release and prints
// an upgrade notice if one is available
func Check(ctx context.Context, currentVersion string) error {
	latest, err := fetchLatestVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "getting the latest version")
	}

	current := strings.TrimPrefix(currentVersion, "v")

	if latest == current || current == "master" {
		log.Debug("up to date with v%s\n", current)
		return nil
	}

	log.Infof("a newer version v%s is available. Please upgrade.\n", latest)

	return nil
}
