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

package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/echovault/sugarclient/internal/constants"
)

var errWrongArgs = errors.New("ERR wrong number of arguments")

// hash keeps fields in insertion order.
type hash struct {
	fields []string
	values map[string][]byte
}

func newHash() *hash {
	return &hash{fields: make([]string, 0), values: make(map[string][]byte)}
}

func (h *hash) set(field string, value []byte) bool {
	_, exists := h.values[field]
	if !exists {
		h.fields = append(h.fields, field)
	}
	h.values[field] = value
	return !exists
}

func defaultHandlers() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"ping":    handlePING,
		"echo":    handleECHO,
		"flushdb": handleFLUSHDB,
		"set":     handleSET,
		"get":     handleGET,
		"del":     handleDEL,
		"hset":    handleHSET,
		"hmset":   handleHSET,
		"hget":    handleHGET,
		"hgetall": handleHGETALL,
	}
}

func bulk(b []byte) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(b), b)
}

func handlePING(_ *Server, cmd [][]byte) ([]byte, error) {
	switch len(cmd) {
	case 1:
		return []byte(constants.PongResponse), nil
	case 2:
		return []byte(bulk(cmd[1])), nil
	}
	return nil, errWrongArgs
}

func handleECHO(_ *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) != 2 {
		return nil, errWrongArgs
	}
	return []byte(bulk(cmd[1])), nil
}

func handleFLUSHDB(server *Server, _ [][]byte) ([]byte, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.hashes = make(map[string]*hash)
	server.values = make(map[string][]byte)
	return []byte(constants.OkResponse), nil
}

func handleSET(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) != 3 {
		return nil, errWrongArgs
	}
	server.mu.Lock()
	defer server.mu.Unlock()
	delete(server.hashes, string(cmd[1]))
	server.values[string(cmd[1])] = cmd[2]
	return []byte(constants.OkResponse), nil
}

func handleGET(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) != 2 {
		return nil, errWrongArgs
	}
	server.mu.Lock()
	defer server.mu.Unlock()
	if _, ok := server.hashes[string(cmd[1])]; ok {
		return nil, errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	}
	value, ok := server.values[string(cmd[1])]
	if !ok {
		return []byte(constants.NilResponse), nil
	}
	return []byte(bulk(value)), nil
}

func handleDEL(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) < 2 {
		return nil, errWrongArgs
	}
	server.mu.Lock()
	defer server.mu.Unlock()
	count := 0
	for _, key := range cmd[1:] {
		if _, ok := server.hashes[string(key)]; ok {
			delete(server.hashes, string(key))
			count += 1
		}
		if _, ok := server.values[string(key)]; ok {
			delete(server.values, string(key))
			count += 1
		}
	}
	return []byte(fmt.Sprintf(":%d\r\n", count)), nil
}

// handleHSET serves both HSET, which replies with the number of new fields,
// and HMSET, which replies OK.
func handleHSET(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) < 4 || len(cmd[2:])%2 != 0 {
		return nil, errors.New("ERR each field must have a corresponding value")
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	key := string(cmd[1])
	if _, ok := server.values[key]; ok {
		return nil, fmt.Errorf("WRONGTYPE value at %s is not a hash", key)
	}
	h, ok := server.hashes[key]
	if !ok {
		h = newHash()
		server.hashes[key] = h
	}

	count := 0
	for i := 2; i <= len(cmd)-2; i += 2 {
		if h.set(string(cmd[i]), cmd[i+1]) {
			count += 1
		}
	}

	if strings.EqualFold(string(cmd[0]), "hmset") {
		return []byte(constants.OkResponse), nil
	}
	return []byte(fmt.Sprintf(":%d\r\n", count)), nil
}

func handleHGET(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) != 3 {
		return nil, errWrongArgs
	}
	server.mu.Lock()
	defer server.mu.Unlock()
	h, ok := server.hashes[string(cmd[1])]
	if !ok {
		return []byte(constants.NilResponse), nil
	}
	value, ok := h.values[string(cmd[2])]
	if !ok {
		return []byte(constants.NilResponse), nil
	}
	return []byte(bulk(value)), nil
}

func handleHGETALL(server *Server, cmd [][]byte) ([]byte, error) {
	if len(cmd) != 2 {
		return nil, errWrongArgs
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	key := string(cmd[1])
	if _, ok := server.values[key]; ok {
		return nil, fmt.Errorf("WRONGTYPE value at %s is not a hash", key)
	}
	h, ok := server.hashes[key]
	if !ok {
		return []byte("*0\r\n"), nil
	}

	res := fmt.Sprintf("*%d\r\n", len(h.fields)*2)
	for _, field := range h.fields {
		res += bulk([]byte(field))
		value := h.values[field]
		if server.IntegerHashValues {
			if d, err := strconv.Atoi(string(value)); err == nil {
				res += fmt.Sprintf(":%d\r\n", d)
				continue
			}
		}
		res += bulk(value)
	}

	return []byte(res), nil
}
