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

package transport_test

import (
	"context"
	"net"
	"path"
	"testing"
	"time"

	"github.com/echovault/sugarclient/internal/constants"
	"github.com/echovault/sugarclient/internal/transport"
	"github.com/go-test/deep"
)

func Test_ParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		family  string
		want    transport.Address
		wantErr bool
	}{
		{
			name: "1. Absolute path is a unix socket",
			addr: "/tmp/sugardb.sock",
			want: transport.Address{Network: "unix", Addr: "/tmp/sugardb.sock"},
		},
		{
			name: "2. unix URL is a unix socket",
			addr: "unix:///var/run/sugardb.sock",
			want: transport.Address{Network: "unix", Addr: "/var/run/sugardb.sock"},
		},
		{
			name: "3. Host and port without family",
			addr: "localhost:7480",
			want: transport.Address{Network: "tcp", Addr: "localhost:7480"},
		},
		{
			name:   "4. IPv4 family pins tcp4",
			addr:   "127.0.0.1:7480",
			family: constants.FamilyIPv4,
			want:   transport.Address{Network: "tcp4", Addr: "127.0.0.1:7480"},
		},
		{
			name:   "5. IPv6 family pins tcp6",
			addr:   "[::1]:7480",
			family: constants.FamilyIPv6,
			want:   transport.Address{Network: "tcp6", Addr: "[::1]:7480"},
		},
		{
			name:   "6. Explicit prefix overrides family",
			addr:   "tcp6://[::1]:7480",
			family: constants.FamilyIPv4,
			want:   transport.Address{Network: "tcp6", Addr: "[::1]:7480"},
		},
		{
			name:    "7. IPv6 literal with IPv4 family is rejected",
			addr:    "[::1]:7480",
			family:  constants.FamilyIPv4,
			wantErr: true,
		},
		{
			name:    "8. Missing port is rejected",
			addr:    "localhost",
			wantErr: true,
		},
		{
			name:    "9. Unknown family is rejected",
			addr:    "localhost:7480",
			family:  "IPX",
			wantErr: true,
		},
		{
			name:    "10. Empty address is rejected",
			addr:    " ",
			wantErr: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := transport.ParseAddress(test.addr, test.family)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
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

func Test_Dial(t *testing.T) {
	t.Run("1. Dial unix socket", func(t *testing.T) {
		sock := path.Join(t.TempDir(), "dial.sock")
		l, err := net.Listen("unix", sock)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = l.Close() }()

		addr, err := transport.ParseAddress(sock, "")
		if err != nil {
			t.Fatal(err)
		}
		conn, err := transport.Dial(context.Background(), addr, time.Second, 0, nil)
		if err != nil {
			t.Fatal(err)
		}
		_ = conn.Close()
	})

	t.Run("2. Dial tcp4", func(t *testing.T) {
		l, err := net.Listen("tcp4", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = l.Close() }()

		addr, err := transport.ParseAddress(l.Addr().String(), constants.FamilyIPv4)
		if err != nil {
			t.Fatal(err)
		}
		conn, err := transport.Dial(context.Background(), addr, time.Second, time.Second, nil)
		if err != nil {
			t.Fatal(err)
		}
		_ = conn.Close()
	})

	t.Run("3. Dial fails on closed listener", func(t *testing.T) {
		l, err := net.Listen("tcp4", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		target := l.Addr().String()
		_ = l.Close()

		addr, _ := transport.ParseAddress(target, constants.FamilyIPv4)
		if _, err = transport.Dial(context.Background(), addr, time.Second, 0, nil); err == nil {
			t.Error("expected dial error")
		}
	})
}
