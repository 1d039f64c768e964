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
	"bytes"
	"strconv"

	"github.com/tidwall/resp"
)

// delegatedDecoder hands the grammar to tidwall/resp. tidwall is lenient about
// line endings and negative lengths, so every reply is framed and validated
// under the same header rules as the generic decoder before tidwall reads it.
type delegatedDecoder struct {
	buf []byte
	err error
}

func newDelegatedDecoder() *delegatedDecoder {
	return &delegatedDecoder{}
}

func (d *delegatedDecoder) Feed(p []byte) ([]Reply, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, p...)

	var out []Reply
	pos := 0

	for pos < len(d.buf) {
		n, err := scanFrame(d.buf[pos:])
		if err != nil {
			d.err = err
			return out, d.err
		}
		if n == 0 {
			break
		}
		reader := resp.NewReader(bytes.NewReader(d.buf[pos : pos+n]))
		value, _, err := reader.ReadValue()
		if err != nil {
			d.err = &ProtocolError{Msg: err.Error()}
			return out, d.err
		}
		out = append(out, fromValue(value))
		pos += n
	}

	d.buf = append(d.buf[:0], d.buf[pos:]...)
	return out, nil
}

// scanFrame returns the length of the complete reply at the head of b, or 0
// when more bytes are needed.
func scanFrame(b []byte) (int, error) {
	pos, pending := 0, 1
	for pending > 0 {
		i := bytes.IndexByte(b[pos:], '\n')
		if i < 0 {
			if len(b)-pos > maxLineLength {
				return 0, protocolErrorf("line exceeds %d bytes", maxLineLength)
			}
			return 0, nil
		}
		line := b[pos : pos+i+1]
		pos += i + 1
		pending--

		if len(line) < 3 || line[len(line)-2] != '\r' {
			return 0, protocolErrorf("malformed line %q", line)
		}
		body := line[1 : len(line)-2]

		switch line[0] {
		case '+', '-':
		case ':':
			if _, err := strconv.ParseInt(string(body), 10, 64); err != nil {
				return 0, protocolErrorf("invalid integer %q", body)
			}
		case '$':
			n, err := parseLength(body)
			if err != nil {
				return 0, err
			}
			if n > maxBulkLength {
				return 0, protocolErrorf("bulk length %d exceeds %d", n, maxBulkLength)
			}
			if n < 0 {
				continue
			}
			if len(b)-pos < n+2 {
				return 0, nil
			}
			if b[pos+n] != '\r' || b[pos+n+1] != '\n' {
				return 0, protocolErrorf("bulk string of %d bytes not terminated by CRLF", n)
			}
			pos += n + 2
		case '*':
			n, err := parseLength(body)
			if err != nil {
				return 0, err
			}
			if n > 0 {
				pending += n
			}
		default:
			return 0, protocolErrorf("unexpected type byte %q", line[0])
		}
	}
	return pos, nil
}

func (d *delegatedDecoder) Buffered() int {
	return len(d.buf)
}

func (d *delegatedDecoder) Reset() {
	d.buf = d.buf[:0]
	d.err = nil
}

// fromValue converts a tidwall/resp value into a Reply.
func fromValue(v resp.Value) Reply {
	if v.IsNull() {
		return NullReply()
	}
	switch v.Type().String() {
	case "Integer":
		return IntegerReply(int64(v.Integer()))
	case "SimpleString":
		return Reply{Kind: Status, Str: clone(v.Bytes())}
	case "Error":
		return ErrorReply(v.Error().Error())
	case "Array":
		elems := make([]Reply, len(v.Array()))
		for i, e := range v.Array() {
			elems[i] = fromValue(e)
		}
		return ArrayReply(elems...)
	}
	return BulkReply(clone(v.Bytes()))
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
