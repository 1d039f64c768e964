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

package wire

import (
	"strconv"
	"strings"
)

// Kind is the type tag of a decoded reply.
type Kind byte

const (
	Null Kind = iota
	Integer
	Status
	Error
	Bulk
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Integer:
		return "Integer"
	case Status:
		return "SimpleString"
	case Error:
		return "Error"
	case Bulk:
		return "BulkString"
	case Array:
		return "Array"
	}
	return "Unknown"
}

// Reply is a single decoded RESP value.
// Str holds the payload of Status, Error and Bulk replies. Elems holds the
// elements of an Array reply.
type Reply struct {
	Kind  Kind
	Int   int64
	Str   []byte
	Elems []Reply
}

func NullReply() Reply {
	return Reply{Kind: Null}
}

func IntegerReply(n int64) Reply {
	return Reply{Kind: Integer, Int: n}
}

func StatusReply(s string) Reply {
	return Reply{Kind: Status, Str: []byte(s)}
}

func ErrorReply(s string) Reply {
	return Reply{Kind: Error, Str: []byte(s)}
}

func BulkReply(b []byte) Reply {
	return Reply{Kind: Bulk, Str: b}
}

func ArrayReply(elems ...Reply) Reply {
	if elems == nil {
		elems = []Reply{}
	}
	return Reply{Kind: Array, Elems: elems}
}

func (r Reply) IsNull() bool {
	return r.Kind == Null
}

// Bytes returns the raw payload of a Status, Error or Bulk reply, or the
// decimal representation of an Integer reply.
func (r Reply) Bytes() []byte {
	switch r.Kind {
	case Integer:
		return strconv.AppendInt(nil, r.Int, 10)
	case Status, Error, Bulk:
		return r.Str
	}
	return nil
}

func (r Reply) String() string {
	switch r.Kind {
	case Null:
		return ""
	case Array:
		s := make([]string, len(r.Elems))
		for i, e := range r.Elems {
			s[i] = e.String()
		}
		return "[" + strings.Join(s, " ") + "]"
	}
	return string(r.Bytes())
}

// Err returns the server error carried by an Error reply, nil otherwise.
func (r Reply) Err() error {
	if r.Kind != Error {
		return nil
	}
	return &ServerError{Msg: string(r.Str)}
}
