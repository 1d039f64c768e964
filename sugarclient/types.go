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

package sugarclient

import (
	"github.com/echovault/sugarclient/internal/conn"
	"github.com/echovault/sugarclient/internal/queue"
	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/wire"
)

type (
	Reply       = wire.Reply
	ReplyKind   = wire.Kind
	ServerError = wire.ServerError
	// ProtocolError is returned when the reply stream is malformed. The
	// connection is re-established before further commands are sent.
	ProtocolError = wire.ProtocolError
	// ShapeError is returned when a reply does not have the layout its command
	// expects, such as a hash reply with an odd number of elements.
	ShapeError = transform.ShapeError

	Hash  = transform.Hash
	Field = transform.Field
	Mode  = transform.Mode

	Command = queue.Command
	Result  = queue.Result
	Shape   = queue.Shape

	State     = conn.State
	Event     = conn.Event
	EventType = conn.EventType
	ConnError = conn.ConnError
)

const (
	Text   = transform.Text
	Binary = transform.Binary

	KindNull    = wire.Null
	KindInteger = wire.Integer
	KindStatus  = wire.Status
	KindError   = wire.Error
	KindBulk    = wire.Bulk
	KindArray   = wire.Array

	Scalar    = queue.Scalar
	ArrayType = queue.Array
	HashType  = queue.Hash

	Connecting   = conn.Connecting
	Ready        = conn.Ready
	Reconnecting = conn.Reconnecting
	Closed       = conn.Closed

	EventConnecting   = conn.EventConnecting
	EventReady        = conn.EventReady
	EventReconnecting = conn.EventReconnecting
	EventError        = conn.EventError
	EventClosed       = conn.EventClosed
)

var (
	ErrClosed   = conn.ErrClosed
	ErrNotReady = conn.ErrNotReady
)
