/*
 * Copyright 2022 CloudWeGo Authors
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

package opts

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileConfig is the layout of a TOML configuration file. Absent keys keep
// their default values.
type FileConfig struct {
	MaxWorkers      *int    `toml:"max_workers"`
	CanonicalLabels *bool   `toml:"canonical_labels"`
	Version         *string `toml:"version"`
	LogLevel        *string `toml:"log_level"`
}

// LoadFile reads the options from a TOML file over the defaults.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(data)
}

// Load parses the options from TOML text over the defaults.
func Load(data []byte) (Options, error) {
	var config FileConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return Options{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	ret := GetDefaultOptions()
	if err := config.Apply(&ret); err != nil {
		return Options{}, err
	}

	return ret, nil
}

// Apply copies every present key into o.
func (self *FileConfig) Apply(o *Options) error {
	if self.MaxWorkers != nil {
		if *self.MaxWorkers < 1 {
			return fmt.Errorf("invalid max_workers: %d", *self.MaxWorkers)
		}
		o.MaxWorkers = *self.MaxWorkers
	}
	if self.CanonicalLabels != nil {
		o.CanonicalLabels = *self.CanonicalLabels
	}
	if self.Version != nil {
		o.Version = *self.Version
	}
	if self.LogLevel != nil {
		o.LogLevel = *self.LogLevel
	}
	return nil
}
