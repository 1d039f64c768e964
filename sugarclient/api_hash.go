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
	"context"
	"errors"
	"slices"
)

var errOddPairs = errors.New("each field must have a corresponding value")

func fieldArgs(key string, fields map[string]string) [][]byte {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	args := make([][]byte, 0, 1+len(fields)*2)
	args = append(args, []byte(key))
	for _, name := range names {
		args = append(args, []byte(name), []byte(fields[name]))
	}
	return args
}

// HMSet sets the fields of the hash at key from a map.
//
// Parameters:
//
// `key` - string - the key to the hash.
//
// `fields` - map[string]string - the fields to set. They are written in sorted field order.
//
// Returns: The server's status reply, "OK" on success.
//
// Errors:
//
// "WRONGTYPE ..." - when the provided key exists but is not a hash.
func (client *Client) HMSet(ctx context.Context, key string, fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "", errOddPairs
	}
	res, err := client.call(ctx, "HMSET", Scalar, fieldArgs(key, fields)...)
	if err != nil {
		return "", err
	}
	return res.Reply.String(), nil
}

// HMSetPairs sets fields of the hash at key from alternating field and value
// byte slices. The pairs are sent verbatim, so fields and values may hold any
// bytes.
func (client *Client) HMSetPairs(ctx context.Context, key []byte, pairs ...[]byte) (string, error) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return "", errOddPairs
	}
	args := append([][]byte{key}, pairs...)
	res, err := client.call(ctx, "HMSET", Scalar, args...)
	if err != nil {
		return "", err
	}
	return res.Reply.String(), nil
}

// HSet sets the fields of the hash at key.
//
// Returns: The number of fields that were newly created.
func (client *Client) HSet(ctx context.Context, key string, fields map[string]string) (int, error) {
	if len(fields) == 0 {
		return 0, errOddPairs
	}
	res, err := client.call(ctx, "HSET", Scalar, fieldArgs(key, fields)...)
	if err != nil {
		return 0, err
	}
	return int(res.Reply.Int), nil
}

// HGetAll returns the hash at key as an ordered mapping.
//
// Parameters:
//
// `key` - string - the key to the hash.
//
// Returns: The fields in the order the server sent them. A missing key returns
// a nil *Hash and no error. The client's mode decides whether fields are
// decoded as text or kept as raw bytes.
//
// Errors:
//
// "WRONGTYPE ..." - when the provided key exists but is not a hash.
//
// *ShapeError - when the reply does not hold an even number of scalars.
func (client *Client) HGetAll(ctx context.Context, key string) (*Hash, error) {
	res, err := client.call(ctx, "HGETALL", HashType, []byte(key))
	if err != nil {
		return nil, err
	}
	return res.Hash, nil
}

// HGet returns the value of a hash field. A missing key or field returns nil.
func (client *Client) HGet(ctx context.Context, key, field string) ([]byte, error) {
	res, err := client.call(ctx, "HGET", Scalar, []byte(key), []byte(field))
	if err != nil {
		return nil, err
	}
	if res.Reply.IsNull() {
		return nil, nil
	}
	return res.Reply.Bytes(), nil
}
