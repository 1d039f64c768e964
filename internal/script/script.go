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

// Package script runs client side Lua automation against a server.
//
// A script sees a global `sugar` table and an `ARGV` array:
//
//	sugar.call(name, ...)   issue a command, raise on a server error
//	sugar.pcall(name, ...)  issue a command, return nil and the error message instead of raising
//	sugar.hgetall(key)      fetch a hash as a table, nil when the key is missing
//
// Null replies become nil, integers become numbers, status and bulk replies
// become strings and arrays become sequences.
package script

import (
	"context"
	"fmt"
	"math"

	"github.com/echovault/sugarclient/internal/queue"
	"github.com/echovault/sugarclient/internal/wire"
	lua "github.com/yuin/gopher-lua"
)

// CallFunc issues a command and waits for its result.
type CallFunc func(ctx context.Context, name string, shape queue.Shape, args ...[]byte) (queue.Result, error)

// RunFile runs the Lua file at path and returns its first result.
func RunFile(ctx context.Context, call CallFunc, path string, argv []string) (interface{}, error) {
	L := newState(ctx, call, argv)
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("could not run lua script file %s: %v", path, err)
	}
	return result(L), nil
}

// RunString runs Lua source and returns its first result.
func RunString(ctx context.Context, call CallFunc, source string, argv []string) (interface{}, error) {
	L := newState(ctx, call, argv)
	defer L.Close()

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("could not run lua script: %v", err)
	}
	return result(L), nil
}

func newState(ctx context.Context, call CallFunc, argv []string) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)

	args := L.NewTable()
	for i, arg := range argv {
		args.RawSetInt(i+1, lua.LString(arg))
	}
	L.SetGlobal("ARGV", args)

	issue := func(state *lua.LState, shape queue.Shape) (queue.Result, error) {
		name := state.CheckString(1)
		cmdArgs := make([][]byte, 0, state.GetTop()-1)
		for i := 2; i <= state.GetTop(); i++ {
			v := state.Get(i)
			switch v.Type() {
			case lua.LTString, lua.LTNumber, lua.LTBool:
				cmdArgs = append(cmdArgs, []byte(v.String()))
			default:
				state.ArgError(i, fmt.Sprintf("command arguments must be strings, numbers or booleans, got %s", v.Type()))
			}
		}
		return call(ctx, name, shape, cmdArgs...)
	}

	L.SetGlobal("sugar", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"call": func(state *lua.LState) int {
			res, err := issue(state, queue.Scalar)
			if err != nil {
				state.RaiseError("%s", err.Error())
				return 0
			}
			state.Push(toLua(state, res.Reply))
			return 1
		},
		"pcall": func(state *lua.LState) int {
			res, err := issue(state, queue.Scalar)
			if err != nil {
				state.Push(lua.LNil)
				state.Push(lua.LString(err.Error()))
				return 2
			}
			state.Push(toLua(state, res.Reply))
			return 1
		},
		"hgetall": func(state *lua.LState) int {
			key := state.CheckString(1)
			res, err := call(ctx, "HGETALL", queue.Hash, []byte(key))
			if err != nil {
				state.RaiseError("%s", err.Error())
				return 0
			}
			if res.Hash == nil {
				state.Push(lua.LNil)
				return 1
			}
			tbl := state.NewTable()
			for _, field := range res.Hash.Fields() {
				tbl.RawSetString(string(field.Key), lua.LString(field.Value))
			}
			state.Push(tbl)
			return 1
		},
	}))

	return L
}

func toLua(state *lua.LState, reply wire.Reply) lua.LValue {
	switch reply.Kind {
	case wire.Null:
		return lua.LNil
	case wire.Integer:
		return lua.LNumber(reply.Int)
	case wire.Array:
		tbl := state.NewTable()
		for i, elem := range reply.Elems {
			tbl.RawSetInt(i+1, toLua(state, elem))
		}
		return tbl
	}
	return lua.LString(reply.Bytes())
}

func result(L *lua.LState) interface{} {
	if L.GetTop() == 0 {
		return nil
	}
	return fromLua(L.Get(1))
}

func fromLua(v lua.LValue) interface{} {
	switch value := v.(type) {
	case lua.LBool:
		return bool(value)
	case lua.LNumber:
		f := float64(value)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(value)
	case *lua.LTable:
		if n := value.Len(); n > 0 {
			res := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				res[i-1] = fromLua(value.RawGetInt(i))
			}
			return res
		}
		res := make(map[string]interface{})
		value.ForEach(func(key lua.LValue, val lua.LValue) {
			res[key.String()] = fromLua(val)
		})
		return res
	}
	return nil
}
