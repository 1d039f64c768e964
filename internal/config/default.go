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
	"time"

	"github.com/echovault/sugarclient/internal/constants"
)

func DefaultConfig() Config {
	return Config{
		Address:        "localhost:7480",
		Family:         constants.FamilyAny,
		Parser:         constants.GenericParser,
		Mode:           constants.TextMode,
		DialTimeout:    5 * time.Second,
		KeepAlive:      0,
		TLS:            false,
		TLSCACert:      "",
		TLSServerName:  "",
		TLSInsecure:    false,
		RetryStrategy:  constants.ExponentialBackoff,
		RetryDelay:     100 * time.Millisecond,
		MaxRetries:     0,
		RetryJitter:    50 * time.Millisecond,
		RetryCap:       5 * time.Second,
		ReplayInflight: false,
		ReplayCommands: make([]string, 0),
		OfflineQueue:   0,
		EventBuffer:    64,
		Script:         "",

		Benchmark:         "",
		BenchmarkRequests: 10000,
		BenchmarkClients:  50,
		BenchmarkRate:     0,
	}
}
