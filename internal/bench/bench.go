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

package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/echovault/sugarclient/internal/wire"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

const DefaultCommands = "ping,set,get,hset,hgetall"

type Doer interface {
	Do(ctx context.Context, name string, args ...interface{}) (wire.Reply, error)
}

type Options struct {
	Commands    []string
	Requests    int
	Concurrency int
	// Rate caps the requests per second. 0 sends as fast as the workers allow.
	Rate   float64
	Logger *log.Logger
}

type Result struct {
	Command           string
	Requests          int
	Errors            int64
	Duration          time.Duration
	RequestsPerSecond float64
	P50               time.Duration
	P99               time.Duration
}

// workloads builds the i-th request of each benchmarked command.
var workloads = map[string]func(i int) (string, []interface{}){
	"ping": func(int) (string, []interface{}) {
		return "PING", nil
	},
	"echo": func(i int) (string, []interface{}) {
		return "ECHO", []interface{}{"message:" + strconv.Itoa(i)}
	},
	"set": func(i int) (string, []interface{}) {
		return "SET", []interface{}{"key:" + strconv.Itoa(i%1000), "xxx"}
	},
	"get": func(i int) (string, []interface{}) {
		return "GET", []interface{}{"key:" + strconv.Itoa(i%1000)}
	},
	"hset": func(i int) (string, []interface{}) {
		return "HSET", []interface{}{"myhash", "field:" + strconv.Itoa(i%100), "xxx"}
	},
	"hgetall": func(int) (string, []interface{}) {
		return "HGETALL", []interface{}{"myhash"}
	},
}

// Commands lists the commands that can be benchmarked.
func Commands() []string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseCommands splits a comma separated command list.
func ParseCommands(s string) ([]string, error) {
	var commands []string
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := workloads[name]; !ok {
			return nil, fmt.Errorf("command %s cannot be benchmarked, use (%s)", name, strings.Join(Commands(), ", "))
		}
		commands = append(commands, name)
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("no commands to benchmark")
	}
	return commands, nil
}

// Run issues opts.Requests requests per command from opts.Concurrency workers.
// Commands are benchmarked one after another.
func Run(ctx context.Context, doer Doer, opts Options) ([]Result, error) {
	if opts.Requests <= 0 || opts.Concurrency <= 0 {
		return nil, fmt.Errorf("requests and concurrency must be positive")
	}
	if opts.Rate < 0 {
		return nil, fmt.Errorf("rate cannot be negative")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	results := make([]Result, 0, len(opts.Commands))
	for _, command := range opts.Commands {
		workload, ok := workloads[command]
		if !ok {
			return nil, fmt.Errorf("command %s cannot be benchmarked", command)
		}
		result, err := run(ctx, doer, command, workload, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func run(ctx context.Context, doer Doer, command string, workload func(int) (string, []interface{}), opts Options) (Result, error) {
	pool, err := ants.NewPool(opts.Concurrency, ants.WithPanicHandler(func(v any) {
		opts.Logger.Printf("benchmark worker panic: %v", v)
	}))
	if err != nil {
		return Result{}, err
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		errs      atomic.Int64
		latencies = make([]time.Duration, opts.Requests)
		limiter   = rate.NewLimiter(rate.Inf, 1)
	)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	start := time.Now()
	for i := 0; i < opts.Requests; i++ {
		i := i
		if limiter.Wait(ctx) != nil {
			break
		}
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			name, args := workload(i)
			t := time.Now()
			if _, err := doer.Do(ctx, name, args...); err != nil {
				errs.Add(1)
			}
			latencies[i] = time.Since(t)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return Result{}, err
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	if err = ctx.Err(); err != nil {
		return Result{}, err
	}

	slices.Sort(latencies)
	return Result{
		Command:           command,
		Requests:          opts.Requests,
		Errors:            errs.Load(),
		Duration:          elapsed,
		RequestsPerSecond: float64(opts.Requests) / elapsed.Seconds(),
		P50:               percentile(latencies, 0.50),
		P99:               percentile(latencies, 0.99),
	}, nil
}

// percentile expects sorted samples.
func percentile(samples []time.Duration, q float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	return samples[int(q*float64(len(samples)-1))]
}

// Print writes the results as a table.
func Print(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprint(tw, "Command\tRequests\tErrors\treq/sec\tp50 Latency (msec)\tp99 Latency (msec)\t\n")
	for _, res := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.3f\t%.3f\t\n",
			res.Command, res.Requests, res.Errors, res.RequestsPerSecond,
			float64(res.P50)/float64(time.Millisecond), float64(res.P99)/float64(time.Millisecond))
	}
	return tw.Flush()
}
