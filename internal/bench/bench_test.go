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

package bench_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/echovault/sugarclient/internal/bench"
	"github.com/echovault/sugarclient/internal/wire"
	"github.com/go-test/deep"
)

type fakeDoer struct {
	mu    sync.Mutex
	calls map[string]int
}

func (d *fakeDoer) Do(_ context.Context, name string, _ ...interface{}) (wire.Reply, error) {
	d.mu.Lock()
	d.calls[name]++
	n := d.calls[name]
	d.mu.Unlock()

	if name == "GET" && n%2 == 0 {
		return wire.Reply{}, errors.New("miss")
	}
	return wire.StatusReply("OK"), nil
}

func Test_ParseCommands(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "1. Default commands", in: bench.DefaultCommands, want: []string{"ping", "set", "get", "hset", "hgetall"}},
		{name: "2. Whitespace and case", in: " PING , echo,", want: []string{"ping", "echo"}},
		{name: "3. Unknown command", in: "ping,zadd", wantErr: true},
		{name: "4. Empty list", in: ",", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := bench.ParseCommands(test.in)
			if test.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := deep.Equal(got, test.want); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func Test_Run(t *testing.T) {
	doer := &fakeDoer{calls: make(map[string]int)}
	results, err := bench.Run(context.Background(), doer, bench.Options{
		Commands:    []string{"ping", "get"},
		Requests:    100,
		Concurrency: 8,
		Logger:      log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(doer.calls, map[string]int{"PING": 100, "GET": 100}); diff != nil {
		t.Error(diff)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Command != "ping" || results[0].Errors != 0 {
		t.Errorf("unexpected ping result %+v", results[0])
	}
	if results[1].Command != "get" || results[1].Errors != 50 {
		t.Errorf("unexpected get result %+v", results[1])
	}
	for _, res := range results {
		if res.P50 > res.P99 {
			t.Errorf("%s: p50 %s above p99 %s", res.Command, res.P50, res.P99)
		}
		if res.RequestsPerSecond <= 0 {
			t.Errorf("%s: expected positive throughput", res.Command)
		}
	}

	var out bytes.Buffer
	if err = bench.Print(&out, results); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "Command") || !strings.HasPrefix(lines[2], "get") {
		t.Errorf("unexpected table:\n%s", out.String())
	}
}

func Test_RunRejectsInvalidOptions(t *testing.T) {
	doer := &fakeDoer{calls: make(map[string]int)}
	if _, err := bench.Run(context.Background(), doer, bench.Options{Commands: []string{"ping"}, Requests: 0, Concurrency: 1}); err == nil {
		t.Error("expected error for zero requests")
	}
	if _, err := bench.Run(context.Background(), doer, bench.Options{Commands: []string{"zadd"}, Requests: 1, Concurrency: 1}); err == nil {
		t.Error("expected error for unknown command")
	}
}

func Test_RunHonoursRate(t *testing.T) {
	doer := &fakeDoer{calls: make(map[string]int)}
	results, err := bench.Run(context.Background(), doer, bench.Options{
		Commands:    []string{"ping"},
		Requests:    20,
		Concurrency: 4,
		Rate:        200,
		Logger:      log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Duration < 80*time.Millisecond {
		t.Errorf("expected 20 requests at 200/s to take at least 80ms, took %s", results[0].Duration)
	}
}
