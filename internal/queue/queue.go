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

package queue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/wire"
)

var ErrOfflineQueueFull = errors.New("offline queue is full")

// Queue matches replies to commands. RESP carries no request identifiers, so
// the Nth reply read from a connection always belongs to the Nth command
// written to it.
//
// Commands accepted while no connection is usable wait in the offline buffer.
// Commands written to the socket wait in the in-flight list.
type Queue struct {
	mu         sync.Mutex
	offline    []*Command
	inflight   []*Command
	maxOffline int
}

// New returns an empty queue. maxOffline bounds the offline buffer; 0 means unlimited.
func New(maxOffline int) *Queue {
	return &Queue{
		offline:    make([]*Command, 0),
		inflight:   make([]*Command, 0),
		maxOffline: maxOffline,
	}
}

// Buffer appends cmd to the offline buffer.
func (q *Queue) Buffer(cmd *Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.maxOffline > 0 && len(q.offline) >= q.maxOffline {
		return ErrOfflineQueueFull
	}
	q.offline = append(q.offline, cmd)
	return nil
}

// Send appends cmd to the in-flight list and hands its encoding to write in the
// same critical section, so in-flight order always equals wire order.
// On a write error the command stays in flight; the connection teardown fails
// or replays it.
func (q *Queue) Send(cmd *Command, write func([]byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight = append(q.inflight, cmd)
	return write(cmd.Encode())
}

// Deliver completes the oldest in-flight command with reply. The returned error
// is non-nil when the stream can no longer be trusted: a reply with nothing in
// flight, or a reply whose shape is invalid for its command.
func (q *Queue) Deliver(reply wire.Reply, mode transform.Mode) (*Command, error) {
	q.mu.Lock()
	if len(q.inflight) == 0 {
		q.mu.Unlock()
		return nil, &wire.ProtocolError{Msg: fmt.Sprintf("unexpected %s reply with no command in flight", reply.Kind)}
	}
	cmd := q.inflight[0]
	q.inflight[0] = nil
	q.inflight = q.inflight[1:]
	q.mu.Unlock()

	res := cmd.resolve(reply, mode)
	cmd.complete(res)

	var shapeErr *transform.ShapeError
	if errors.As(res.Err, &shapeErr) {
		return cmd, shapeErr
	}
	return cmd, nil
}

// TakeOffline removes and returns the offline buffer in submission order.
func (q *Queue) TakeOffline() []*Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.offline
	q.offline = make([]*Command, 0)
	return cmds
}

// Requeue moves the in-flight commands accepted by keep to the front of the
// offline buffer, preserving their relative order. Cancelled commands are never
// kept. The rejected commands are returned without being completed.
func (q *Queue) Requeue(keep func(*Command) bool) []*Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	replay := make([]*Command, 0, len(q.inflight))
	var rejected []*Command
	for _, cmd := range q.inflight {
		if !cmd.Cancelled() && keep(cmd) {
			replay = append(replay, cmd)
			continue
		}
		rejected = append(rejected, cmd)
	}

	q.offline = append(replay, q.offline...)
	q.inflight = make([]*Command, 0)
	return rejected
}

// FailInflight completes every in-flight command with err.
func (q *Queue) FailInflight(err error) int {
	q.mu.Lock()
	cmds := q.inflight
	q.inflight = make([]*Command, 0)
	q.mu.Unlock()

	Fail(cmds, err)
	return len(cmds)
}

// FailAll completes every in-flight and buffered command with err.
func (q *Queue) FailAll(err error) int {
	q.mu.Lock()
	cmds := append(q.inflight, q.offline...)
	q.inflight = make([]*Command, 0)
	q.offline = make([]*Command, 0)
	q.mu.Unlock()

	Fail(cmds, err)
	return len(cmds)
}

// Fail completes each command with err, in order.
func Fail(cmds []*Command, err error) {
	for _, cmd := range cmds {
		cmd.complete(Result{Err: err})
	}
}

func (q *Queue) Inflight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

func (q *Queue) Offline() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.offline)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight) + len(q.offline)
}
