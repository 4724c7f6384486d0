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

// Package infra provides operations and definitions for the
// local infrastructure for Parishkeep
package infra

import (
	"fmt"

	"github.com/parishkeep/parishkeep/pkg/cli/config"
	"github.com/parishkeep/parishkeep/pkg/cli/consts"
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/cli/utils"
	"github.com/parishkeep/parishkeep/pkg/clock"
	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/parishkeep/parishkeep/pkg/dirs"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultCollection is the default remote collection name
	DefaultCollection = "parish"
)

// RunEFunc is a function type of parishkeep commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.ParishkeepDirName, consts.DBFilename)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.ParishCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	dbPath := getDBPath(paths, customDBPath)

	db, err := database.Open(dbPath)
	if err != nil {
		return context.ParishCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.ParishCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// initFiles creates the directory structure and a config file if one does
// not exist yet
func initFiles(ctx context.ParishCtx, apiEndpoint string) error {
	configDir := fmt.Sprintf("%s/%s", ctx.Paths.Config, consts.ParishkeepDirName)
	if err := utils.EnsureDir(configDir); err != nil {
		return errors.Wrap(err, "creating the config directory")
	}

	dataDir := fmt.Sprintf("%s/%s", ctx.Paths.Data, consts.ParishkeepDirName)
	if err := utils.EnsureDir(dataDir); err != nil {
		return errors.Wrap(err, "creating the data directory")
	}

	configPath := config.GetPath(ctx)
	ok, err := utils.FileExists(configPath)
	if err != nil {
		return errors.Wrap(err, "checking for a config file")
	}
	if ok {
		return nil
	}

	if apiEndpoint == "" {
		apiEndpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint:  apiEndpoint,
		Collection:   DefaultCollection,
		Strategy:     config.DefaultStrategy,
		SyncSchedule: config.DefaultSyncSchedule,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing a fresh config file")
	}

	return nil
}

// setupCtx enriches the base context with config values and credentials
func setupCtx(ctx context.ParishCtx) (context.ParishCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading the config")
	}

	var apiKey string
	if err := database.GetSystem(ctx.DB, consts.SystemAPIKey, &apiKey); err != nil {
		return ctx, errors.Wrap(err, "reading the api key")
	}

	ctx.APIEndpoint = cf.APIEndpoint
	ctx.Collection = cf.Collection
	ctx.Strategy = cf.Strategy
	ctx.SyncSchedule = cf.SyncSchedule
	ctx.APIKey = apiKey
	ctx.Clock = clock.New()
	ctx.HTTPClient = remote.NewRateLimitedHTTPClient()

	return ctx, nil
}

// Init initializes the Parishkeep environment and returns a new context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.ParishCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initFiles(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}
