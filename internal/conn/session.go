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

package conn

import (
	"bufio"
	"net"
	"sync"

	"github.com/echovault/sugarclient/internal/wire"
)

const (
	readChunkSize   = 16 * 1024
	writeBufferSize = 32 * 1024
)

// session is one established socket. It owns exactly one decoder, so decoder
// state never leaks across reconnects.
type session struct {
	conn    net.Conn
	decoder wire.Decoder

	mu      sync.Mutex
	pending [][]byte
	dead    bool
	wake    chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

func newSession(conn net.Conn, decoder wire.Decoder) *session {
	return &session{
		conn:    conn,
		decoder: decoder,
		pending: make([][]byte, 0),
		wake:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

// write queues b for the writer goroutine. It never blocks on the socket.
func (s *session) write(b []byte) error {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return net.ErrClosed
	}
	s.pending = append(s.pending, b)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *session) take() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = make([][]byte, 0, len(batch))
	return batch
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.dead = true
		s.pending = nil
		s.mu.Unlock()
		close(s.closed)
		_ = s.conn.Close()
	})
}

// writeLoop coalesces queued commands into one buffered writer and flushes
// once nothing else is pending. A write error closes the socket; the read loop
// observes the closure and drives the reconnect.
func (s *session) writeLoop() {
	w := bufio.NewWriterSize(s.conn, writeBufferSize)
	for {
		select {
		case <-s.closed:
			return
		case <-s.wake:
		}

		for batch := s.take(); len(batch) > 0; batch = s.take() {
			for _, b := range batch {
				if _, err := w.Write(b); err != nil {
					s.close()
					return
				}
			}
		}
		if err := w.Flush(); err != nil {
			s.close()
			return
		}
	}
}
