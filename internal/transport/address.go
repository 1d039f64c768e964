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

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/echovault/sugarclient/internal/constants"
)

// Address is a resolved dial target.
type Address struct {
	Network string // unix, tcp, tcp4 or tcp6
	Addr    string
}

func (a Address) String() string {
	return a.Network + "://" + a.Addr
}

// ParseAddress resolves addr into a dial target. Absolute paths and unix://
// URLs select a unix domain socket. Host and port pairs select TCP, pinned to
// IPv4 or IPv6 when family asks for it. Explicit tcp:// tcp4:// and tcp6://
// prefixes override family.
func ParseAddress(addr string, family string) (Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Address{}, fmt.Errorf("address cannot be empty")
	}

	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		if path == "" {
			return Address{}, fmt.Errorf("unix address %s has no path", addr)
		}
		return Address{Network: "unix", Addr: path}, nil
	}
	if filepath.IsAbs(addr) {
		return Address{Network: "unix", Addr: addr}, nil
	}

	network, err := tcpNetwork(family)
	if err != nil {
		return Address{}, err
	}
	for _, prefix := range []string{"tcp", "tcp4", "tcp6"} {
		if rest, ok := strings.CutPrefix(addr, prefix+"://"); ok {
			network, addr = prefix, rest
			break
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %s: %w", addr, err)
	}
	if port == "" {
		return Address{}, fmt.Errorf("invalid address %s: missing port", addr)
	}
	if ip := net.ParseIP(host); ip != nil {
		isV4 := ip.To4() != nil
		if network == "tcp4" && !isV4 {
			return Address{}, fmt.Errorf("address %s is not an IPv4 address", addr)
		}
		if network == "tcp6" && isV4 {
			return Address{}, fmt.Errorf("address %s is not an IPv6 address", addr)
		}
	}

	return Address{Network: network, Addr: net.JoinHostPort(host, port)}, nil
}

func tcpNetwork(family string) (string, error) {
	switch strings.ToLower(family) {
	case strings.ToLower(constants.FamilyAny):
		return "tcp", nil
	case strings.ToLower(constants.FamilyIPv4), "4", "tcp4":
		return "tcp4", nil
	case strings.ToLower(constants.FamilyIPv6), "6", "tcp6":
		return "tcp6", nil
	}
	return "", fmt.Errorf("address family %s not supported, use (%s, %s)", family, constants.FamilyIPv4, constants.FamilyIPv6)
}

// Dial opens a stream connection to addr. timeout bounds the dial when
// positive, in addition to ctx. keepAlive only applies to TCP. A non-nil
// tlsConfig wraps the connection in TLS and completes the handshake before
// returning.
func Dial(ctx context.Context, addr Address, timeout, keepAlive time.Duration, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := net.Dialer{KeepAlive: keepAlive}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := dialer.DialContext(ctx, addr.Network, addr.Addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	if tlsConfig == nil {
		return conn, nil
	}

	config := tlsConfig
	if config.ServerName == "" && !config.InsecureSkipVerify && addr.Network != "unix" {
		if host, _, err := net.SplitHostPort(addr.Addr); err == nil {
			config = config.Clone()
			config.ServerName = host
		}
	}
	tlsConn := tls.Client(conn, config)
	if err = tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", addr, err)
	}
	return tlsConn, nil
}
