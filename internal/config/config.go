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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/echovault/sugarclient/internal/constants"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address        string        `json:"Address" yaml:"Address"`
	Family         string        `json:"Family" yaml:"Family"`
	Parser         string        `json:"Parser" yaml:"Parser"`
	Mode           string        `json:"Mode" yaml:"Mode"`
	DialTimeout    time.Duration `json:"DialTimeout" yaml:"DialTimeout"`
	KeepAlive      time.Duration `json:"KeepAlive" yaml:"KeepAlive"`
	TLS            bool          `json:"TLS" yaml:"TLS"`
	TLSCACert      string        `json:"TLSCACert" yaml:"TLSCACert"`
	TLSServerName  string        `json:"TLSServerName" yaml:"TLSServerName"`
	TLSInsecure    bool          `json:"TLSInsecure" yaml:"TLSInsecure"`
	RetryStrategy  string        `json:"RetryStrategy" yaml:"RetryStrategy"`
	RetryDelay     time.Duration `json:"RetryDelay" yaml:"RetryDelay"`
	MaxRetries     uint64        `json:"MaxRetries" yaml:"MaxRetries"`
	RetryJitter    time.Duration `json:"RetryJitter" yaml:"RetryJitter"`
	RetryCap       time.Duration `json:"RetryCap" yaml:"RetryCap"`
	ReplayInflight bool          `json:"ReplayInflight" yaml:"ReplayInflight"`
	ReplayCommands []string      `json:"ReplayCommands" yaml:"ReplayCommands"`
	OfflineQueue   int           `json:"OfflineQueue" yaml:"OfflineQueue"`
	EventBuffer    int           `json:"EventBuffer" yaml:"EventBuffer"`
	Script         string        `json:"Script" yaml:"Script"`

	Benchmark         string  `json:"Benchmark" yaml:"Benchmark"`
	BenchmarkRequests int     `json:"BenchmarkRequests" yaml:"BenchmarkRequests"`
	BenchmarkClients  int     `json:"BenchmarkClients" yaml:"BenchmarkClients"`
	BenchmarkRate     float64 `json:"BenchmarkRate" yaml:"BenchmarkRate"`
}

// GetConfig builds the configuration from the process command line.
func GetConfig() (Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse registers the client flags on fs and parses args. SUGARCLIENT_*
// environment variables replace the flag defaults, and values found in the
// file named by -config override the flag values. Positional arguments are left
// in fs.Args().
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	def := DefaultConfig()
	if err := def.LoadEnv(EnvPrefix, os.Environ()); err != nil {
		return Config{}, err
	}

	family := def.Family
	fs.Func("family", `Address family for host:port addresses. The options are 'IPv4' and 'IPv6'.
Leave empty to let the resolver decide.`, func(s string) error {
		if !slices.ContainsFunc([]string{constants.FamilyIPv4, constants.FamilyIPv6}, func(f string) bool {
			return strings.EqualFold(f, s)
		}) {
			return fmt.Errorf("family must be '%s' or '%s'", constants.FamilyIPv4, constants.FamilyIPv6)
		}
		family = s
		return nil
	})

	var replayCommands []string
	fs.Func("replay-command", `Glob pattern of command names that may be replayed after a reconnect (e.g. 'hget*').
Can be passed multiple times. Only used when -replay-inflight is set.`, func(s string) error {
		if _, err := glob.Compile(strings.ToLower(s)); err != nil {
			return err
		}
		replayCommands = append(replayCommands, s)
		return nil
	})

	address := fs.String("address", def.Address, "Server address. Either host:port, tcp4://host:port, tcp6://[host]:port or a unix socket path.")
	parser := fs.String("parser", def.Parser, "Reply parser. The options are 'generic' and 'delegated'.")
	mode := fs.String("mode", def.Mode, "Reply building mode. The options are 'text' and 'binary'.")
	dialTimeout := fs.Duration("dial-timeout", def.DialTimeout, "Timeout for each connection attempt.")
	keepAlive := fs.Duration("keep-alive", def.KeepAlive, "TCP keep-alive period. 0 uses the system default.")
	tls := fs.Bool("tls", def.TLS, "Connect over TLS. Default is false.")
	tlsCACert := fs.String("tls-ca-cert", def.TLSCACert, "PEM file with the certificates used to verify the server. Defaults to the system roots.")
	tlsServerName := fs.String("tls-server-name", def.TLSServerName, "Server name to verify. Defaults to the host of the address.")
	tlsInsecure := fs.Bool("tls-insecure", def.TLSInsecure, "Skip server certificate verification.")
	retryStrategy := fs.String("retry-strategy", def.RetryStrategy, "Reconnect backoff. The options are 'constant', 'exponential' and 'fibonacci'.")
	retryDelay := fs.Duration("retry-delay", def.RetryDelay, "Base delay between reconnect attempts.")
	maxRetries := fs.Uint64("max-retries", def.MaxRetries, "Reconnect attempts before giving up. 0 retries forever.")
	retryJitter := fs.Duration("retry-jitter", def.RetryJitter, "Random jitter added to each reconnect delay.")
	retryCap := fs.Duration("retry-cap", def.RetryCap, "Upper bound of a single reconnect delay. 0 leaves it unbounded.")
	replayInflight := fs.Bool("replay-inflight", def.ReplayInflight, "Re-send commands that were in flight when the connection dropped.")
	offlineQueue := fs.Int("offline-queue", def.OfflineQueue, "Maximum number of commands buffered while disconnected. 0 is unlimited, -1 fails commands instead of buffering.")
	eventBuffer := fs.Int("event-buffer", def.EventBuffer, "Capacity of the connection event channel.")
	script := fs.String("script", def.Script, "Path to a Lua script to run instead of a single command.")
	benchmark := fs.String("benchmark", def.Benchmark, "Comma separated commands to benchmark (e.g. 'ping,set,get') instead of running a single command.")
	benchmarkRequests := fs.Int("benchmark-requests", def.BenchmarkRequests, "Requests per benchmarked command.")
	benchmarkClients := fs.Int("benchmark-clients", def.BenchmarkClients, "Concurrent callers sharing the pipelined connection during a benchmark.")
	benchmarkRate := fs.Float64("benchmark-rate", def.BenchmarkRate, "Benchmark requests per second. 0 is unlimited.")

	config := fs.String(
		"config",
		"",
		`File path to a JSON or YAML config file.The values in this config file will override the flag values.`,
	)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	conf := Config{
		Address:        *address,
		Family:         family,
		Parser:         *parser,
		Mode:           *mode,
		DialTimeout:    *dialTimeout,
		KeepAlive:      *keepAlive,
		TLS:            *tls,
		TLSCACert:      *tlsCACert,
		TLSServerName:  *tlsServerName,
		TLSInsecure:    *tlsInsecure,
		RetryStrategy:  *retryStrategy,
		RetryDelay:     *retryDelay,
		MaxRetries:     *maxRetries,
		RetryJitter:    *retryJitter,
		RetryCap:       *retryCap,
		ReplayInflight: *replayInflight,
		ReplayCommands: replayCommands,
		OfflineQueue:   *offlineQueue,
		EventBuffer:    *eventBuffer,
		Script:         *script,

		Benchmark:         *benchmark,
		BenchmarkRequests: *benchmarkRequests,
		BenchmarkClients:  *benchmarkClients,
		BenchmarkRate:     *benchmarkRate,
	}
	if conf.ReplayCommands == nil {
		conf.ReplayCommands = def.ReplayCommands
	}

	if len(*config) > 0 {
		if err := conf.Load(*config); err != nil {
			return Config{}, err
		}
	}

	return conf, conf.Validate()
}

// Load overrides conf with the values in a JSON or YAML file.
func (conf *Config) Load(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		if err = f.Close(); err != nil {
			log.Println(err)
		}
	}()

	switch ext := path.Ext(f.Name()); ext {
	case ".json":
		if err = json.NewDecoder(f).Decode(conf); err != nil {
			return fmt.Errorf("config %s: %w", file, err)
		}
	case ".yaml", ".yml":
		if err = yaml.NewDecoder(f).Decode(conf); err != nil {
			return fmt.Errorf("config %s: %w", file, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q", file, ext)
	}
	return nil
}

// Validate reports the first invalid setting.
func (conf Config) Validate() error {
	if strings.TrimSpace(conf.Address) == "" {
		return errors.New("address cannot be empty")
	}

	parsers := []string{
		constants.GenericParser, constants.DelegatedParser,
		constants.JavascriptParser, constants.HiredisParser,
	}
	if conf.Parser != "" && slices.Index(parsers, strings.ToLower(conf.Parser)) == -1 {
		return fmt.Errorf("parser %s is not a valid parser", conf.Parser)
	}

	if conf.Mode != "" && slices.Index([]string{constants.TextMode, constants.BinaryMode}, strings.ToLower(conf.Mode)) == -1 {
		return fmt.Errorf("mode %s is not a valid mode", conf.Mode)
	}

	strategies := []string{constants.ConstantBackoff, constants.ExponentialBackoff, constants.FibonacciBackoff}
	if conf.RetryStrategy != "" && slices.Index(strategies, strings.ToLower(conf.RetryStrategy)) == -1 {
		return fmt.Errorf("retry strategy %s is not a valid strategy", conf.RetryStrategy)
	}

	if conf.RetryDelay <= 0 {
		return errors.New("retry delay must be positive")
	}
	if conf.OfflineQueue < -1 {
		return errors.New("offline queue limit must be -1, 0 or positive")
	}
	if conf.EventBuffer < 0 {
		return errors.New("event buffer cannot be negative")
	}

	if conf.Benchmark != "" && (conf.BenchmarkRequests <= 0 || conf.BenchmarkClients <= 0) {
		return errors.New("benchmark requests and clients must be positive")
	}
	if conf.BenchmarkRate < 0 {
		return errors.New("benchmark rate cannot be negative")
	}

	for _, pattern := range conf.ReplayCommands {
		if _, err := glob.Compile(strings.ToLower(pattern)); err != nil {
			return fmt.Errorf("replay command pattern %s: %w", pattern, err)
		}
	}

	return nil
}
