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
	"crypto/tls"
	"log"

	"github.com/echovault/sugarclient/internal/config"
	"github.com/echovault/sugarclient/internal/conn"
	"github.com/echovault/sugarclient/internal/metrics"
	"github.com/echovault/sugarclient/internal/queue"
	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/transport"
	"github.com/echovault/sugarclient/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
)

type Client struct {
	context    context.Context
	config     config.Config
	tlsConfig  *tls.Config
	logger     *log.Logger
	registerer prometheus.Registerer
	manager    *conn.Manager
}

// WithContext is an option to the NewClient function that allows you to pass a
// custom context to the client. Cancelling it closes the connection manager's
// reconnect loop.
func WithContext(ctx context.Context) func(client *Client) {
	return func(client *Client) {
		client.context = ctx
	}
}

// WithConfig is an option to the NewClient function that allows you to pass a
// custom configuration to the client.
// If not specified, the client will use the default configuration from config.DefaultConfig().
func WithConfig(config config.Config) func(client *Client) {
	return func(client *Client) {
		client.config = config
	}
}

// WithAddress sets the server address. Absolute paths and unix:// addresses
// connect over a unix domain socket, host:port addresses over TCP.
func WithAddress(address string) func(client *Client) {
	return func(client *Client) {
		client.config.Address = address
	}
}

// WithFamily pins host:port addresses to "IPv4" or "IPv6".
func WithFamily(family string) func(client *Client) {
	return func(client *Client) {
		client.config.Family = family
	}
}

// WithParser selects the reply parser, "generic" or "delegated".
func WithParser(parser string) func(client *Client) {
	return func(client *Client) {
		client.config.Parser = parser
	}
}

// WithMode selects how replies are built, "text" or "binary".
func WithMode(mode string) func(client *Client) {
	return func(client *Client) {
		client.config.Mode = mode
	}
}

// WithRegisterer registers the client metrics on reg.
func WithRegisterer(reg prometheus.Registerer) func(client *Client) {
	return func(client *Client) {
		client.registerer = reg
	}
}

// WithTLSConfig dials the server over TLS with the given config. It takes
// precedence over the TLS settings of the configuration.
func WithTLSConfig(tlsConfig *tls.Config) func(client *Client) {
	return func(client *Client) {
		client.tlsConfig = tlsConfig
	}
}

func WithLogger(logger *log.Logger) func(client *Client) {
	return func(client *Client) {
		client.logger = logger
	}
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() config.Config {
	return config.DefaultConfig()
}

// NewClient creates a client and starts connecting in the background.
// Commands issued before the connection is ready are buffered and sent, in
// order, once it is.
func NewClient(options ...func(client *Client)) (*Client, error) {
	client := &Client{
		context: context.Background(),
		config:  config.DefaultConfig(),
		logger:  log.Default(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.config.Validate(); err != nil {
		return nil, err
	}

	addr, err := transport.ParseAddress(client.config.Address, client.config.Family)
	if err != nil {
		return nil, err
	}
	mode, err := transform.ParseMode(client.config.Mode)
	if err != nil {
		return nil, err
	}
	if client.tlsConfig == nil && client.config.TLS {
		client.tlsConfig, err = transport.LoadTLSConfig(client.config.TLSCACert, client.config.TLSServerName, client.config.TLSInsecure)
		if err != nil {
			return nil, err
		}
	}

	client.manager, err = conn.New(client.context, conn.Options{
		Address:        addr,
		Parser:         client.config.Parser,
		Mode:           mode,
		DialTimeout:    client.config.DialTimeout,
		KeepAlive:      client.config.KeepAlive,
		TLS:            client.tlsConfig,
		RetryStrategy:  client.config.RetryStrategy,
		RetryDelay:     client.config.RetryDelay,
		MaxRetries:     client.config.MaxRetries,
		RetryJitter:    client.config.RetryJitter,
		RetryCap:       client.config.RetryCap,
		ReplayInflight: client.config.ReplayInflight,
		ReplayCommands: client.config.ReplayCommands,
		OfflineQueue:   client.config.OfflineQueue,
		EventBuffer:    client.config.EventBuffer,
		Logger:         client.logger,
		Metrics:        metrics.New(client.registerer),
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Enqueue submits a command without waiting for it. Use the returned command's
// Wait, Done or OnComplete to collect the reply. Commands complete in the order
// they were enqueued.
func (client *Client) Enqueue(name string, shape Shape, args ...[]byte) *Command {
	return client.EnqueueCommand(NewCommand(name, shape, args...))
}

// EnqueueCommand submits a command built with NewCommand, typically one with a
// completion handler already attached.
func (client *Client) EnqueueCommand(cmd *Command) *Command {
	client.manager.Enqueue(cmd)
	return cmd
}

// NewCommand builds a command for EnqueueCommand.
func NewCommand(name string, shape Shape, args ...[]byte) *Command {
	return queue.NewCommand(name, shape, args...)
}

// call enqueues a command and waits for its result.
func (client *Client) call(ctx context.Context, name string, shape Shape, args ...[]byte) (Result, error) {
	return client.Enqueue(name, shape, args...).Wait(ctx)
}

// Do sends an arbitrary command and waits for the reply.
//
// Parameters:
//
// `name` - string - the command name.
//
// `args` - ...interface{} - strings, byte slices, integers, floats, booleans or durations.
//
// Returns: The decoded reply.
//
// Errors:
//
// *ServerError - when the server replies with an error.
func (client *Client) Do(ctx context.Context, name string, args ...interface{}) (Reply, error) {
	b, err := wire.Args(args...)
	if err != nil {
		return Reply{}, err
	}
	res, err := client.call(ctx, name, Scalar, b...)
	return res.Reply, err
}

// SetMode switches between text and binary replies for commands answered from
// now on.
func (client *Client) SetMode(mode Mode) {
	client.manager.SetMode(mode)
}

func (client *Client) Mode() Mode {
	return client.manager.Mode()
}

func (client *Client) State() State {
	return client.manager.State()
}

// Events returns the connection lifecycle events. The channel is closed once
// the client is closed.
func (client *Client) Events() <-chan Event {
	return client.manager.Events()
}

// WaitReady blocks until the connection is ready.
func (client *Client) WaitReady(ctx context.Context) error {
	return client.manager.WaitReady(ctx)
}

// Close closes the connection. Pending commands fail with ErrClosed.
func (client *Client) Close() error {
	return client.manager.Close()
}
