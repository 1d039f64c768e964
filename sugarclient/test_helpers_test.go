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

package sugarclient_test

import (
	"context"
	"io"
	"log"
	"os"
	"path"
	"testing"
	"time"

	"github.com/echovault/sugarclient/internal/constants"
	"github.com/echovault/sugarclient/internal/mock/server"
	"github.com/echovault/sugarclient/sugarclient"
)

type target struct {
	name    string
	address string
	family  string
}

var parsers = []string{constants.JavascriptParser, constants.HiredisParser}

func tempSocket(t *testing.T) string {
	dir, err := os.MkdirTemp("", "sc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return path.Join(dir, "sugardb.sock")
}

// startTargets serves one mock server on a unix socket, IPv4 and, when the
// host supports it, IPv6.
func startTargets(t *testing.T) (*server.Server, []target) {
	mockServer := server.NewMockServer()
	t.Cleanup(func() {
		mockServer.ShutDown()
	})

	sock := tempSocket(t)
	if _, err := mockServer.Listen("unix", sock); err != nil {
		t.Fatal(err)
	}
	targets := []target{{name: "unix socket", address: sock}}

	addr, err := mockServer.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	targets = append(targets, target{name: constants.FamilyIPv4, address: addr, family: constants.FamilyIPv4})

	if addr, err = mockServer.Listen("tcp6", "[::1]:0"); err != nil {
		t.Logf("skipping IPv6: %v", err)
	} else {
		targets = append(targets, target{name: constants.FamilyIPv6, address: addr, family: constants.FamilyIPv6})
	}

	return mockServer, targets
}

func newClient(t *testing.T, address string, options ...func(client *sugarclient.Client)) *sugarclient.Client {
	conf := sugarclient.DefaultConfig()
	conf.Address = address
	conf.RetryStrategy = constants.ConstantBackoff
	conf.RetryDelay = 5 * time.Millisecond
	conf.RetryJitter = 0

	options = append([]func(client *sugarclient.Client){
		sugarclient.WithConfig(conf),
		sugarclient.WithLogger(log.New(io.Discard, "", 0)),
	}, options...)

	client, err := sugarclient.NewClient(options...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
