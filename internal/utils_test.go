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

package internal_test

import (
	"testing"
	"time"

	"github.com/echovault/sugarclient/internal"
	"github.com/go-test/deep"
)

func Test_NewBackoff(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		base     time.Duration
		want     []time.Duration
		wantErr  bool
	}{
		{
			name:     "1. Default is exponential",
			strategy: "",
			base:     10 * time.Millisecond,
			want:     []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond},
		},
		{
			name:     "2. Constant",
			strategy: "constant",
			base:     10 * time.Millisecond,
			want:     []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond},
		},
		{
			name:     "3. Fibonacci",
			strategy: "Fibonacci",
			base:     10 * time.Millisecond,
			want:     []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
		},
		{name: "4. Unknown strategy", strategy: "linear", base: time.Second, wantErr: true},
		{name: "5. Non-positive delay", strategy: "constant", base: 0, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := internal.NewBackoff(test.strategy, test.base)
			if test.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := make([]time.Duration, len(test.want))
			for i := range got {
				got[i], _ = b.Next()
			}
			if diff := deep.Equal(got, test.want); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func Test_RetryBackoff(t *testing.T) {
	b, err := internal.NewBackoff("exponential", 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	b = internal.RetryBackoff(b, 3, 0, 25*time.Millisecond)

	var got []time.Duration
	for {
		next, stop := b.Next()
		if stop {
			break
		}
		got = append(got, next)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}
