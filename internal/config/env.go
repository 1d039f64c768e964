// Copyright 2024 Kelvin Clement Mwinuka
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SUGARCLIENT_"

// LoadEnv overrides conf with the prefixed variables in environ, which holds
// "KEY=value" entries as returned by os.Environ. SUGARCLIENT_DIAL_TIMEOUT=2s
// sets DialTimeout and SUGARCLIENT_REPLAY_COMMANDS=hget*,ping sets
// ReplayCommands.
func (conf *Config) LoadEnv(prefix string, environ []string) error {
	v := viper.New()
	found := false

	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", ""))
		if name == "" {
			continue
		}
		v.Set(name, value)
		found = true
	}

	if !found {
		return nil
	}
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("environment config: %w", err)
	}
	return nil
}
