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
	"strings"

	"github.com/echovault/sugarclient/internal/constants"
)

const (
	// maxLineLength bounds how long a type/length line may grow before its
	// terminating CRLF arrives.
	maxLineLength = 64 * 1024
	// maxBulkLength mirrors the server side proto-max-bulk-len default.
	maxBulkLength = 512 * 1024 * 1024
)

// Decoder turns an inbound byte stream into decoded replies.
//
// Feed appends p to the internal buffer and returns every reply that is now
// complete. Trailing bytes of an incomplete frame stay buffered for the next
// call. Once Feed returns a *ProtocolError the decoder is poisoned and keeps
// returning it until Reset is called.
type Decoder interface {
	Feed(p []byte) ([]Reply, error)
	Buffered() int
	Reset()
}

// NewDecoder returns the decoder registered under the given parser name.
func NewDecoder(parser string) (Decoder, error) {
	switch strings.ToLower(parser) {
	case "", constants.GenericParser, constants.JavascriptParser:
		return newGenericDecoder(), nil
	case constants.DelegatedParser, constants.HiredisParser:
		return newDelegatedDecoder(), nil
	}
	return nil, fmt.Errorf("parser %s not supported", parser)
}

// Parsers lists the canonical parser names.
func Parsers() []string {
	return []string{constants.GenericParser, constants.DelegatedParser}
}
