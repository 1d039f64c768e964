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

package transform

import (
	"fmt"
	"strings"

	"github.com/echovault/sugarclient/internal/constants"
	"github.com/echovault/sugarclient/internal/wire"
)

// Mode decides how reply payloads are handed back to the caller.
type Mode int

const (
	// Text decodes payloads as UTF-8, replacing invalid sequences.
	Text Mode = iota
	// Binary keeps payloads as the exact bytes sent by the server.
	Binary
)

func (m Mode) String() string {
	if m == Binary {
		return constants.BinaryMode
	}
	return constants.TextMode
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", constants.TextMode:
		return Text, nil
	case constants.BinaryMode:
		return Binary, nil
	}
	return Text, fmt.Errorf("mode %s not supported, use (%s, %s)", s, constants.TextMode, constants.BinaryMode)
}

// Field is a single key/value pair of a hash reply.
type Field struct {
	Key   []byte
	Value []byte
}

// Hash is an ordered mapping built from a flat key/value array reply.
// A nil *Hash is the absent value returned for a missing key.
type Hash struct {
	mode   Mode
	fields []Field
	index  map[string]int
}

func newHash(mode Mode, size int) *Hash {
	return &Hash{
		mode:   mode,
		fields: make([]Field, 0, size),
		index:  make(map[string]int, size),
	}
}

func (h *Hash) set(key, value []byte) {
	if i, ok := h.index[string(key)]; ok {
		h.fields[i].Value = value
		return
	}
	h.index[string(key)] = len(h.fields)
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

func (h *Hash) Mode() Mode {
	return h.mode
}

func (h *Hash) Len() int {
	if h == nil {
		return 0
	}
	return len(h.fields)
}

// Keys returns the field names in the order the server emitted them.
func (h *Hash) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, len(h.fields))
	for i, f := range h.fields {
		keys[i] = string(f.Key)
	}
	return keys
}

func (h *Hash) Get(key string) (string, bool) {
	if h == nil {
		return "", false
	}
	i, ok := h.index[key]
	if !ok {
		return "", false
	}
	return string(h.fields[i].Value), true
}

// GetBytes looks a field up by exact byte-sequence equality.
func (h *Hash) GetBytes(key []byte) ([]byte, bool) {
	if h == nil {
		return nil, false
	}
	i, ok := h.index[string(key)]
	if !ok {
		return nil, false
	}
	return h.fields[i].Value, true
}

func (h *Hash) Fields() []Field {
	if h == nil {
		return nil
	}
	fields := make([]Field, len(h.fields))
	copy(fields, h.fields)
	return fields
}

// Map returns an unordered copy of the hash.
func (h *Hash) Map() map[string]string {
	if h == nil {
		return nil
	}
	m := make(map[string]string, len(h.fields))
	for _, f := range h.fields {
		m[string(f.Key)] = string(f.Value)
	}
	return m
}

// ShapeError reports a reply whose shape violates the expected layout, such as
// an odd number of elements in a hash reply.
type ShapeError struct {
	Shape string
	Msg   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("protocol error: invalid %s reply: %s", e.Shape, e.Msg)
}

// ToHash reassembles a flat array of alternating keys and values into a Hash.
// Null and empty array replies return a nil Hash and no error.
func ToHash(reply wire.Reply, mode Mode) (*Hash, error) {
	switch reply.Kind {
	case wire.Null:
		return nil, nil
	case wire.Error:
		return nil, reply.Err()
	case wire.Array:
	default:
		return nil, &ShapeError{Shape: "hash", Msg: fmt.Sprintf("expected array, got %s", reply.Kind)}
	}

	if len(reply.Elems) == 0 {
		return nil, nil
	}
	if len(reply.Elems)%2 != 0 {
		return nil, &ShapeError{Shape: "hash", Msg: fmt.Sprintf("odd number of elements (%d)", len(reply.Elems))}
	}

	hash := newHash(mode, len(reply.Elems)/2)
	for i := 0; i < len(reply.Elems); i += 2 {
		key, err := scalar(reply.Elems[i], mode)
		if err != nil {
			return nil, err
		}
		value, err := scalar(reply.Elems[i+1], mode)
		if err != nil {
			return nil, err
		}
		hash.set(key, value)
	}

	return hash, nil
}

// ToStrings flattens an array reply of scalars. Null elements become empty strings.
func ToStrings(reply wire.Reply, mode Mode) ([]string, error) {
	switch reply.Kind {
	case wire.Null:
		return []string{}, nil
	case wire.Error:
		return nil, reply.Err()
	case wire.Array:
	default:
		return nil, &ShapeError{Shape: "array", Msg: fmt.Sprintf("expected array, got %s", reply.Kind)}
	}

	res := make([]string, len(reply.Elems))
	for i, e := range reply.Elems {
		if e.IsNull() {
			continue
		}
		b, err := scalar(e, mode)
		if err != nil {
			return nil, err
		}
		res[i] = string(b)
	}
	return res, nil
}

func scalar(r wire.Reply, mode Mode) ([]byte, error) {
	switch r.Kind {
	case wire.Bulk, wire.Status, wire.Integer:
		return Decode(r.Bytes(), mode), nil
	}
	return nil, &ShapeError{Shape: "hash", Msg: fmt.Sprintf("unexpected %s element", r.Kind)}
}

// Decode applies the mode's decoding policy to a single payload.
func Decode(b []byte, mode Mode) []byte {
	if mode == Binary {
		return b
	}
	return []byte(strings.ToValidUTF8(string(b), "\uFFFD"))
}
