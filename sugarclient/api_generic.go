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
)

// Ping checks the connection.
//
// Returns: "PONG".
func (client *Client) Ping(ctx context.Context) (string, error) {
	res, err := client.call(ctx, "PING", Scalar)
	if err != nil {
		return "", err
	}
	return res.Reply.String(), nil
}

// Del removes the keys.
//
// Returns: The number of keys that were removed.
func (client *Client) Del(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, errors.New("at least one key is required")
	}
	args := make([][]byte, len(keys))
	for i, key := range keys {
		args[i] = []byte(key)
	}
	res, err := client.call(ctx, "DEL", Scalar, args...)
	if err != nil {
		return 0, err
	}
	return int(res.Reply.Int), nil
}

// FlushDB removes every key of the selected database.
func (client *Client) FlushDB(ctx context.Context) error {
	_, err := client.call(ctx, "FLUSHDB", Scalar)
	return err
}
