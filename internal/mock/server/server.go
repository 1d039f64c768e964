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

// Package server is a small in-memory RESP server used as a test collaborator.
package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/tidwall/resp"
)

// ErrDropConnection makes the server close the connection instead of replying.
var ErrDropConnection = errors.New("drop connection")

// HandlerFunc handles one command. cmd[0] is the command name.
type HandlerFunc func(server *Server, cmd [][]byte) ([]byte, error)

type Server struct {
	// IntegerHashValues emits integer-looking hash values as ':' replies, the
	// way SugarDB stores them.
	IntegerHashValues bool

	mu       sync.Mutex
	hashes   map[string]*hash
	values   map[string][]byte
	handlers map[string]HandlerFunc
	received []string

	connMu    sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	stopped   bool
	wg        sync.WaitGroup
}

func NewMockServer() *Server {
	server := &Server{
		hashes:   make(map[string]*hash),
		values:   make(map[string][]byte),
		handlers: make(map[string]HandlerFunc),
		received: make([]string, 0),
		conns:    make(map[net.Conn]struct{}),
	}
	for name, handler := range defaultHandlers() {
		server.handlers[name] = handler
	}
	return server
}

// Handle overrides the handler of a command.
func (server *Server) Handle(name string, handler HandlerFunc) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.handlers[strings.ToLower(name)] = handler
}

// Listen starts serving on a new listener and returns its address. network is
// one of unix, tcp4 or tcp6.
func (server *Server) Listen(network, address string) (string, error) {
	listener, err := net.Listen(network, address)
	if err != nil {
		return "", err
	}

	server.connMu.Lock()
	server.listeners = append(server.listeners, listener)
	server.connMu.Unlock()

	server.wg.Add(1)
	go server.serve(listener)

	return listener.Addr().String(), nil
}

// Received returns the lowercase names of the commands handled so far.
func (server *Server) Received() []string {
	server.mu.Lock()
	defer server.mu.Unlock()
	res := make([]string, len(server.received))
	copy(res, server.received)
	return res
}

// DropConnections closes every client connection and keeps listening.
func (server *Server) DropConnections() int {
	server.connMu.Lock()
	defer server.connMu.Unlock()
	n := len(server.conns)
	for conn := range server.conns {
		_ = conn.Close()
	}
	return n
}

// Connections returns the number of open client connections.
func (server *Server) Connections() int {
	server.connMu.Lock()
	defer server.connMu.Unlock()
	return len(server.conns)
}

func (server *Server) ShutDown() {
	server.connMu.Lock()
	for _, listener := range server.listeners {
		if err := listener.Close(); err != nil {
			log.Printf("listener close: %v\n", err)
		}
	}
	server.listeners = nil
	server.stopped = true
	for conn := range server.conns {
		_ = conn.Close()
	}
	server.connMu.Unlock()

	server.wg.Wait()
}

func (server *Server) serve(listener net.Listener) {
	defer server.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}

		server.connMu.Lock()
		if server.stopped {
			server.connMu.Unlock()
			_ = conn.Close()
			return
		}
		server.conns[conn] = struct{}{}
		server.connMu.Unlock()

		server.wg.Add(1)
		go server.handleConnection(conn)
	}
}

func (server *Server) handleConnection(conn net.Conn) {
	defer func() {
		server.connMu.Lock()
		delete(server.conns, conn)
		server.connMu.Unlock()
		_ = conn.Close()
		server.wg.Done()
	}()

	reader := resp.NewReader(conn)
	for {
		value, _, err := reader.ReadValue()
		if err != nil {
			return
		}

		args := value.Array()
		if len(args) == 0 {
			continue
		}
		cmd := make([][]byte, len(args))
		for i, arg := range args {
			cmd[i] = append([]byte{}, arg.Bytes()...)
		}

		res, err := server.handleCommand(cmd)
		if errors.Is(err, ErrDropConnection) {
			return
		}
		if err != nil {
			res = []byte(fmt.Sprintf("-%s\r\n", err.Error()))
		}
		if _, err = conn.Write(res); err != nil {
			return
		}
	}
}

func (server *Server) handleCommand(cmd [][]byte) ([]byte, error) {
	name := strings.ToLower(string(cmd[0]))

	server.mu.Lock()
	server.received = append(server.received, name)
	handler, ok := server.handlers[name]
	server.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("ERR unknown command '%s'", name)
	}
	return handler(server, cmd)
}
