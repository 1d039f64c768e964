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
)

// frame is an array reply whose elements are still arriving.
type frame struct {
	want  int
	elems []Reply
}

// genericDecoder is a resumable RESP state machine. Consumed bytes are never
// rescanned: the decoder remembers a pending bulk length and a stack of open arrays.
type genericDecoder struct {
	buf   []byte
	bulk  int // Length of the bulk payload being awaited, -1 when awaiting a line.
	stack []*frame
	err   error
}

func newGenericDecoder() *genericDecoder {
	return &genericDecoder{bulk: -1}
}

func (d *genericDecoder) Feed(p []byte) ([]Reply, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, p...)

	var out []Reply
	pos := 0

	for {
		if d.bulk >= 0 {
			n := d.bulk
			if len(d.buf)-pos < n+2 {
				break
			}
			if d.buf[pos+n] != '\r' || d.buf[pos+n+1] != '\n' {
				return out, d.fail(protocolErrorf("bulk string of %d bytes not terminated by CRLF", n))
			}
			payload := make([]byte, n)
			copy(payload, d.buf[pos:pos+n])
			pos += n + 2
			d.bulk = -1
			out = d.emit(out, BulkReply(payload))
			continue
		}

		i := bytes.IndexByte(d.buf[pos:], '\n')
		if i < 0 {
			if len(d.buf)-pos > maxLineLength {
				return out, d.fail(protocolErrorf("line exceeds %d bytes", maxLineLength))
			}
			break
		}
		line := d.buf[pos : pos+i+1]
		pos += i + 1

		reply, complete, err := d.parseLine(line)
		if err != nil {
			return out, d.fail(err)
		}
		if complete {
			out = d.emit(out, reply)
		}
	}

	// Keep only the unconsumed tail.
	d.buf = append(d.buf[:0], d.buf[pos:]...)
	return out, nil
}

// parseLine handles a single CRLF terminated line. complete is false when the
// line opened a bulk string or a non-empty array.
func (d *genericDecoder) parseLine(line []byte) (Reply, bool, error) {
	if len(line) < 3 || line[len(line)-2] != '\r' {
		return Reply{}, false, protocolErrorf("malformed line %q", line)
	}
	body := line[1 : len(line)-2]

	switch line[0] {
	case '+':
		return StatusReply(string(body)), true, nil
	case '-':
		return ErrorReply(string(body)), true, nil
	case ':':
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			return Reply{}, false, protocolErrorf("invalid integer %q", body)
		}
		return IntegerReply(n), true, nil
	case '$':
		n, err := parseLength(body)
		if err != nil {
			return Reply{}, false, err
		}
		if n > maxBulkLength {
			return Reply{}, false, protocolErrorf("bulk length %d exceeds %d", n, maxBulkLength)
		}
		if n == -1 {
			return NullReply(), true, nil
		}
		d.bulk = n
		return Reply{}, false, nil
	case '*':
		n, err := parseLength(body)
		if err != nil {
			return Reply{}, false, err
		}
		switch n {
		case -1:
			return NullReply(), true, nil
		case 0:
			return ArrayReply(), true, nil
		}
		d.stack = append(d.stack, &frame{want: n, elems: make([]Reply, 0, min(n, 1024))})
		return Reply{}, false, nil
	}

	return Reply{}, false, protocolErrorf("unexpected type byte %q", line[0])
}

// emit attaches a completed reply to the innermost open array, closing every
// array it completes, or appends it to out when no array is open.
func (d *genericDecoder) emit(out []Reply, r Reply) []Reply {
	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		top.elems = append(top.elems, r)
		if len(top.elems) < top.want {
			return out
		}
		d.stack = d.stack[:len(d.stack)-1]
		r = Reply{Kind: Array, Elems: top.elems}
	}
	return append(out, r)
}

func (d *genericDecoder) fail(err error) error {
	d.err = err
	return err
}

func (d *genericDecoder) Buffered() int {
	return len(d.buf)
}

func (d *genericDecoder) Reset() {
	d.buf = d.buf[:0]
	d.bulk = -1
	d.stack = nil
	d.err = nil
}

func parseLength(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil || n < -1 {
		return 0, protocolErrorf("invalid length %q", b)
	}
	return n, nil
}
