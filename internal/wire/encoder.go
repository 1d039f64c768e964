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
	"fmt"
	"strconv"
	"time"
)

// EncodeCommand serializes a command as a RESP array of bulk strings.
func EncodeCommand(name string, args ...[]byte) []byte {
	size := 16 + len(name)
	for _, arg := range args {
		size += 16 + len(arg)
	}
	return AppendCommand(make([]byte, 0, size), name, args...)
}

// AppendCommand appends the encoded command to dst. Every argument is written
// as an opaque byte sequence.
func AppendCommand(dst []byte, name string, args ...[]byte) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)+1), 10)
	dst = append(dst, '\r', '\n')
	dst = appendBulk(dst, []byte(name))
	for _, arg := range args {
		dst = appendBulk(dst, arg)
	}
	return dst
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, b...)
	return append(dst, '\r', '\n')
}

// Args converts loosely typed values into command arguments.
func Args(values ...interface{}) ([][]byte, error) {
	args := make([][]byte, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case nil:
			args = append(args, []byte{})
		case []byte:
			args = append(args, v)
		case string:
			args = append(args, []byte(v))
		case bool:
			if v {
				args = append(args, []byte{'1'})
			} else {
				args = append(args, []byte{'0'})
			}
		case int:
			args = append(args, strconv.AppendInt(nil, int64(v), 10))
		case int32:
			args = append(args, strconv.AppendInt(nil, int64(v), 10))
		case int64:
			args = append(args, strconv.AppendInt(nil, v, 10))
		case uint:
			args = append(args, strconv.AppendUint(nil, uint64(v), 10))
		case uint32:
			args = append(args, strconv.AppendUint(nil, uint64(v), 10))
		case uint64:
			args = append(args, strconv.AppendUint(nil, v, 10))
		case float32:
			args = append(args, strconv.AppendFloat(nil, float64(v), 'f', -1, 32))
		case float64:
			args = append(args, strconv.AppendFloat(nil, v, 'f', -1, 64))
		case time.Duration:
			// Durations are sent in whole seconds, the unit of EXPIRE and friends.
			args = append(args, strconv.AppendInt(nil, int64(v/time.Second), 10))
		case fmt.Stringer:
			args = append(args, []byte(v.String()))
		default:
			return nil, fmt.Errorf("invalid argument type %T", value)
		}
	}
	return args, nil
}
