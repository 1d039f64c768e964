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

	"github.com/echovault/sugarclient/internal/script"
)

// RunScript runs a Lua file against the server. The script reaches the server
// through the global `sugar` table and reads its arguments from `ARGV`.
//
// Returns: The script's first return value converted to nil, bool, int64,
// float64, string, []interface{} or map[string]interface{}.
func (client *Client) RunScript(ctx context.Context, path string, argv ...string) (interface{}, error) {
	return script.RunFile(ctx, client.call, path, argv)
}

// EvalScript runs Lua source the same way RunScript runs a file.
func (client *Client) EvalScript(ctx context.Context, source string, argv ...string) (interface{}, error) {
	return script.RunString(ctx, client.call, source, argv)
}
