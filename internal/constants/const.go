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

package constants

const Version = "0.1.0" // Next sugarclient version. Update this before each release.

// Reply parsers.
const (
	GenericParser   = "generic"
	DelegatedParser = "delegated"

	// Aliases kept for configs written against node_redis style clients.
	JavascriptParser = "javascript"
	HiredisParser    = "hiredis"
)

// Reply building modes.
const (
	TextMode   = "text"
	BinaryMode = "binary"
)

// Address families.
const (
	FamilyAny  = ""
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// Reconnect backoff strategies.
const (
	ConstantBackoff    = "constant"
	ExponentialBackoff = "exponential"
	FibonacciBackoff   = "fibonacci"
)

const (
	OkResponse   = "+OK\r\n"
	PongResponse = "+PONG\r\n"
	NilResponse  = "$-1\r\n"
	CRLF         = "\r\n"
)
