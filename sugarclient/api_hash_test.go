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

package sugarclient_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/echovault/sugarclient/sugarclient"
	"github.com/go-test/deep"
)

func Test_HGetAll(t *testing.T) {
	_, targets := startTargets(t)

	for _, parser := range parsers {
		for _, target := range targets {
			t.Run(fmt.Sprintf("using %s and %s", parser, target.name), func(t *testing.T) {
				t.Run("regular client", func(t *testing.T) {
					client := newClient(t, target.address,
						sugarclient.WithParser(parser),
						sugarclient.WithFamily(target.family),
					)
					ctx := testContext(t)
					if err := client.FlushDB(ctx); err != nil {
						t.Fatal(err)
					}

					t.Run("1. Handles simple keys and values", func(t *testing.T) {
						ok, err := client.HMSetPairs(ctx, []byte("hosts"),
							[]byte("mjr"), []byte("1"),
							[]byte("another"), []byte("23"),
							[]byte("home"), []byte("1234"),
						)
						if err != nil {
							t.Fatal(err)
						}
						if ok != "OK" {
							t.Errorf("expected OK, got %s", ok)
						}

						hash, err := client.HGetAll(ctx, "hosts")
						if err != nil {
							t.Fatal(err)
						}
						if hash.Len() != 3 {
							t.Errorf("expected 3 keys, got %d", hash.Len())
						}
						if diff := deep.Equal(hash.Map(), map[string]string{"mjr": "1", "another": "23", "home": "1234"}); diff != nil {
							t.Error(diff)
						}
					})

					t.Run("2. Handles fetching keys set using a map", func(t *testing.T) {
						if _, err := client.HMSet(ctx, "msg_test", map[string]string{"message": "hello"}); err != nil {
							t.Fatal(err)
						}
						hash, err := client.HGetAll(ctx, "msg_test")
						if err != nil {
							t.Fatal(err)
						}
						if hash.Len() != 1 {
							t.Errorf("expected 1 key, got %d", hash.Len())
						}
						if got, _ := hash.Get("message"); got != "hello" {
							t.Errorf("expected hello, got %s", got)
						}
					})

					t.Run("3. Handles fetching a missing key", func(t *testing.T) {
						hash, err := client.HGetAll(ctx, "missing")
						if err != nil {
							t.Fatal(err)
						}
						if hash != nil {
							t.Errorf("expected nil hash, got %v", hash.Map())
						}
					})
				})

				t.Run("binary client", func(t *testing.T) {
					client := newClient(t, target.address,
						sugarclient.WithParser(parser),
						sugarclient.WithFamily(target.family),
						sugarclient.WithMode("binary"),
					)
					ctx := testContext(t)
					if err := client.FlushDB(ctx); err != nil {
						t.Fatal(err)
					}

					t.Run("4. Returns binary results", func(t *testing.T) {
						key := []byte{0xAA, 0xBB, 0x00, 0xF0}
						value := []byte{0xCC, 0xDD, 0x00, 0xF0}
						ok, err := client.HMSetPairs(ctx, []byte("bhosts"),
							[]byte("mjr"), []byte("1"),
							[]byte("another"), []byte("23"),
							[]byte("home"), []byte("1234"),
							key, value,
						)
						if err != nil {
							t.Fatal(err)
						}
						if ok != "OK" {
							t.Errorf("expected OK, got %s", ok)
						}

						hash, err := client.HGetAll(ctx, "bhosts")
						if err != nil {
							t.Fatal(err)
						}
						if hash.Len() != 4 {
							t.Fatalf("expected 4 keys, got %d", hash.Len())
						}
						for field, want := range map[string]string{"mjr": "1", "another": "23", "home": "1234"} {
							if got, _ := hash.Get(field); got != want {
								t.Errorf("field %s: expected %s, got %s", field, want, got)
							}
						}
						if got := hash.Keys()[3]; got != string(key) {
							t.Errorf("expected fourth key %v, got %v", key, []byte(got))
						}
						if got, _ := hash.GetBytes(key); !bytes.Equal(got, value) {
							t.Errorf("expected value %v, got %v", value, got)
						}
					})
				})
			})
		}
	}
}

func Test_HGetAllIntegerValues(t *testing.T) {
	mockServer, targets := startTargets(t)
	mockServer.IntegerHashValues = true

	client := newClient(t, targets[0].address)
	ctx := testContext(t)

	if _, err := client.HSet(ctx, "counts", map[string]string{"a": "1", "b": "two"}); err != nil {
		t.Fatal(err)
	}
	hash, err := client.HGetAll(ctx, "counts")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(hash.Map(), map[string]string{"a": "1", "b": "two"}); diff != nil {
		t.Error(diff)
	}
}

func Test_HashCommands(t *testing.T) {
	_, targets := startTargets(t)
	client := newClient(t, targets[0].address)
	ctx := testContext(t)

	t.Run("1. HSet counts new fields", func(t *testing.T) {
		n, err := client.HSet(ctx, "h", map[string]string{"f1": "v1", "f2": "v2"})
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 new fields, got %d", n)
		}
	})

	t.Run("2. HGet reads a field", func(t *testing.T) {
		got, err := client.HGet(ctx, "h", "f2")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Errorf("expected v2, got %s", got)
		}
	})

	t.Run("3. HGet on a missing field is nil", func(t *testing.T) {
		got, err := client.HGet(ctx, "h", "nope")
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("expected nil, got %s", got)
		}
	})

	t.Run("4. HGetAll on a string is a server error", func(t *testing.T) {
		if _, err := client.Do(ctx, "SET", "str", "value"); err != nil {
			t.Fatal(err)
		}
		_, err := client.HGetAll(ctx, "str")
		var serverErr *sugarclient.ServerError
		if !errors.As(err, &serverErr) || serverErr.Prefix() != "WRONGTYPE" {
			t.Errorf("expected WRONGTYPE error, got %v", err)
		}
	})

	t.Run("5. Odd pairs are rejected before sending", func(t *testing.T) {
		if _, err := client.HMSetPairs(ctx, []byte("h"), []byte("f")); err == nil {
			t.Error("expected error")
		}
	})
}
