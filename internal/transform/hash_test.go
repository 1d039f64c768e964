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

package transform_test

import (
	"errors"
	"testing"

	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/wire"
	"github.com/go-test/deep"
)

func bulk(s string) wire.Reply {
	return wire.BulkReply([]byte(s))
}

func Test_ToHash(t *testing.T) {
	tests := []struct {
		name     string
		reply    wire.Reply
		mode     transform.Mode
		wantNil  bool
		wantKeys []string
		wantMap  map[string]string
		wantErr  error
	}{
		{
			name:    "1. Null reply is absent",
			reply:   wire.NullReply(),
			wantNil: true,
		},
		{
			name:    "2. Empty array is absent",
			reply:   wire.ArrayReply(),
			wantNil: true,
		},
		{
			name:     "3. Pairs keep emission order",
			reply:    wire.ArrayReply(bulk("mjr"), bulk("1"), bulk("another"), bulk("23"), bulk("home"), bulk("1234")),
			wantKeys: []string{"mjr", "another", "home"},
			wantMap:  map[string]string{"mjr": "1", "another": "23", "home": "1234"},
		},
		{
			name:     "4. Status and integer elements are accepted",
			reply:    wire.ArrayReply(wire.StatusReply("count"), wire.IntegerReply(42)),
			wantKeys: []string{"count"},
			wantMap:  map[string]string{"count": "42"},
		},
		{
			name:     "5. Repeated key keeps first position and last value",
			reply:    wire.ArrayReply(bulk("a"), bulk("1"), bulk("b"), bulk("2"), bulk("a"), bulk("3")),
			wantKeys: []string{"a", "b"},
			wantMap:  map[string]string{"a": "3", "b": "2"},
		},
		{
			name:    "6. Odd length array is a shape error",
			reply:   wire.ArrayReply(bulk("a"), bulk("1"), bulk("b")),
			wantErr: &transform.ShapeError{},
		},
		{
			name:    "7. Nested array element is a shape error",
			reply:   wire.ArrayReply(bulk("a"), wire.ArrayReply(bulk("1"))),
			wantErr: &transform.ShapeError{},
		},
		{
			name:    "8. Non array reply is a shape error",
			reply:   bulk("value"),
			wantErr: &transform.ShapeError{},
		},
		{
			name:    "9. Server error is returned as is",
			reply:   wire.ErrorReply("WRONGTYPE value at key is not a hash"),
			wantErr: &wire.ServerError{},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			hash, err := transform.ToHash(test.reply, test.mode)
			if test.wantErr != nil {
				switch test.wantErr.(type) {
				case *transform.ShapeError:
					var shapeErr *transform.ShapeError
					if !errors.As(err, &shapeErr) {
						t.Fatalf("expected shape error, got %v", err)
					}
				case *wire.ServerError:
					var serverErr *wire.ServerError
					if !errors.As(err, &serverErr) {
						t.Fatalf("expected server error, got %v", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if test.wantNil {
				if hash != nil {
					t.Fatalf("expected absent hash, got %v", hash.Map())
				}
				return
			}
			if diff := deep.Equal(hash.Keys(), test.wantKeys); diff != nil {
				t.Errorf("keys: %v", diff)
			}
			if diff := deep.Equal(hash.Map(), test.wantMap); diff != nil {
				t.Errorf("values: %v", diff)
			}
		})
	}
}

func Test_ToHashBinaryMode(t *testing.T) {
	key := []byte{0xAA, 0xBB, 0x00, 0xF0}
	value := []byte{0xCC, 0xDD, 0x00, 0xF0}
	reply := wire.ArrayReply(bulk("mjr"), bulk("1"), wire.BulkReply(key), wire.BulkReply(value))

	hash, err := transform.ToHash(reply, transform.Binary)
	if err != nil {
		t.Fatal(err)
	}
	if hash.Mode() != transform.Binary {
		t.Errorf("expected binary mode, got %s", hash.Mode())
	}
	if hash.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", hash.Len())
	}
	if got := hash.Keys()[1]; got != string(key) {
		t.Errorf("expected second key %q, got %q", key, got)
	}
	got, ok := hash.GetBytes(key)
	if !ok {
		t.Fatal("binary key not found")
	}
	if diff := deep.Equal(got, value); diff != nil {
		t.Error(diff)
	}
}

func Test_ToHashTextModeReplacesInvalidUTF8(t *testing.T) {
	reply := wire.ArrayReply(bulk("k"), wire.BulkReply([]byte{'o', 'k', 0xFF}))

	hash, err := transform.ToHash(reply, transform.Text)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := hash.Get("k"); got != "ok\uFFFD" {
		t.Errorf("expected replacement character, got %q", got)
	}
}

func Test_AbsentHashAccessors(t *testing.T) {
	var hash *transform.Hash
	if hash.Len() != 0 || hash.Keys() != nil || hash.Map() != nil || hash.Fields() != nil {
		t.Error("expected zero values from absent hash")
	}
	if _, ok := hash.Get("k"); ok {
		t.Error("expected lookup on absent hash to miss")
	}
}

func Test_ToStrings(t *testing.T) {
	got, err := transform.ToStrings(wire.ArrayReply(bulk("a"), wire.NullReply(), wire.IntegerReply(3)), transform.Text)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []string{"a", "", "3"}); diff != nil {
		t.Error(diff)
	}
}

func Test_ParseMode(t *testing.T) {
	for s, want := range map[string]transform.Mode{"": transform.Text, "text": transform.Text, "BINARY": transform.Binary} {
		got, err := transform.ParseMode(s)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("mode %q: expected %s, got %s", s, want, got)
		}
	}
	if _, err := transform.ParseMode("buffers"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
