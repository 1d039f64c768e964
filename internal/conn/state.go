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
	"errors"
	"fmt"
)

// State is the lifecycle state of a Manager.
//
//	Connecting -> Ready -> Reconnecting -> Ready
//	                    -> Closed
//
// Closed is terminal.
type State int32

const (
	Connecting State = iota
	Ready
	Reconnecting
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type EventType int

const (
	EventConnecting EventType = iota
	EventReady
	EventReconnecting
	EventError
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventConnecting:
		return "connecting"
	case EventReady:
		return "ready"
	case EventReconnecting:
		return "reconnecting"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event reports a lifecycle change. EventError is recoverable unless it is
// followed by EventClosed.
type Event struct {
	Type    EventType
	State   State
	Attempt int
	Err     error
}

var (
	// ErrClosed completes commands enqueued on, or still pending when, the
	// manager is closed by its owner.
	ErrClosed = errors.New("connection closed")
	// ErrNotReady completes commands enqueued while disconnected when the
	// offline queue is disabled.
	ErrNotReady = errors.New("connection not ready")
)

// ConnError reports a lost or failed connection. Terminal is set when the
// manager gave up reconnecting.
type ConnError struct {
	Addr     string
	Err      error
	Terminal bool
}

func (e *ConnError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("connection to %s closed: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("connection to %s lost: %v", e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
