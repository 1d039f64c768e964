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

package queue

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/wire"
)

// Shape is the reply layout a command expects.
type Shape int

const (
	Scalar Shape = iota
	Array
	Hash
)

func (s Shape) String() string {
	switch s {
	case Array:
		return "array"
	case Hash:
		return "hash"
	}
	return "scalar"
}

// Result is the completion value of a command.
type Result struct {
	Reply wire.Reply
	Hash  *transform.Hash // Only set for Hash shaped commands.
	Err   error
}

// Command is a single request. Name, Args and Shape must not be modified
// once the command has been enqueued.
type Command struct {
	Name  string
	Args  [][]byte
	Shape Shape

	mu        sync.Mutex
	handler   func(Result)
	completed bool

	once     sync.Once
	done     chan struct{}
	result   Result
	detached atomic.Bool
}

func NewCommand(name string, shape Shape, args ...[]byte) *Command {
	return &Command{
		Name:  name,
		Args:  args,
		Shape: shape,
		done:  make(chan struct{}),
	}
}

// OnComplete registers a handler invoked with the result. Handlers run on the
// connection's read goroutine in reply order and must not block. A handler
// registered after the command completed runs immediately on the caller's
// goroutine.
func (c *Command) OnComplete(handler func(Result)) *Command {
	c.mu.Lock()
	if !c.completed {
		c.handler = handler
		c.mu.Unlock()
		return c
	}
	res := c.result
	c.mu.Unlock()

	if handler != nil && !c.detached.Load() {
		handler(res)
	}
	return c
}

// Key returns the lowercase command name used for policy matching.
func (c *Command) Key() string {
	return strings.ToLower(c.Name)
}

func (c *Command) Encode() []byte {
	return wire.EncodeCommand(c.Name, c.Args...)
}

// Done is closed once the command has completed.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Result blocks until the command completes and returns its completion value.
func (c *Command) Result() Result {
	<-c.done
	return c.result
}

// Wait blocks until the command completes or ctx ends. When ctx ends first the
// caller's interest is detached; the reply is still consumed from the stream.
func (c *Command) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		return c.result, c.result.Err
	case <-ctx.Done():
		c.Cancel()
		return Result{}, ctx.Err()
	}
}

// Cancel detaches the caller. The completion handler becomes a no-op.
func (c *Command) Cancel() {
	c.detached.Store(true)
}

func (c *Command) Cancelled() bool {
	return c.detached.Load()
}

// complete resolves the command exactly once.
func (c *Command) complete(res Result) {
	c.once.Do(func() {
		c.mu.Lock()
		c.result = res
		c.completed = true
		handler := c.handler
		c.mu.Unlock()

		close(c.done)
		if handler != nil && !c.detached.Load() {
			handler(res)
		}
	})
}

// resolve applies the command's reply shape to a decoded reply.
func (c *Command) resolve(reply wire.Reply, mode transform.Mode) Result {
	if reply.Kind == wire.Error {
		return Result{Reply: reply, Err: reply.Err()}
	}
	if c.Shape == Hash {
		hash, err := transform.ToHash(reply, mode)
		return Result{Reply: reply, Hash: hash, Err: err}
	}
	return Result{Reply: reply}
}
