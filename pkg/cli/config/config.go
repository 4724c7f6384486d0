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

// Package config provides interfaces for the config file
package config

import (
	"fmt"
	"os"

	"github.com/parishkeep/parishkeep/pkg/cli/consts"
	"github.com/parishkeep/parishkeep/pkg/cli/context"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Default values used when the config file leaves a field empty
const (
	DefaultStrategy     = "merge_fields"
	DefaultSyncSchedule = "@every 5m"
)

// Config holds parishkeep configuration
type Config struct {
	APIEndpoint  string `yaml:"apiEndpoint"`
	Collection   string `yaml:"collection"`
	Strategy     string `yaml:"strategy"`
	SyncSchedule string `yaml:"syncSchedule"`
}

// GetPath returns the path to the parishkeep config file
func GetPath(ctx context.ParishCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.ParishkeepDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.ParishCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	if ret.Strategy == "" {
		ret.Strategy = DefaultStrategy
	}
	if ret.SyncSchedule == "" {
		ret.SyncSchedule = DefaultSyncSchedule
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.ParishCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
