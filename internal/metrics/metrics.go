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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of a single connection manager.
type Metrics struct {
	// CommandsSent counts commands written to the socket by command name.
	CommandsSent *prometheus.CounterVec
	// Replies counts decoded replies by kind.
	Replies *prometheus.CounterVec
	// CommandErrors counts commands completed with an error, by cause.
	CommandErrors *prometheus.CounterVec
	// Reconnects counts reconnect attempts.
	Reconnects prometheus.Counter
	// Inflight is the number of commands awaiting a reply.
	Inflight prometheus.Gauge
	// Offline is the number of commands buffered while disconnected.
	Offline prometheus.Gauge
	// State is the numeric connection state.
	State prometheus.Gauge
}

// New registers the client collectors on reg. A nil reg creates unregistered
// collectors, which is what tests and throwaway clients want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarclient_commands_sent_total",
				Help: "Total number of commands written to the server",
			},
			[]string{"command"},
		),
		Replies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarclient_replies_total",
				Help: "Total number of replies decoded, by reply kind",
			},
			[]string{"kind"},
		),
		CommandErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarclient_command_errors_total",
				Help: "Total number of commands completed with an error",
			},
			[]string{"cause"},
		),
		Reconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sugarclient_reconnect_attempts_total",
				Help: "Total number of reconnect attempts",
			},
		),
		Inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sugarclient_inflight_commands",
				Help: "Commands written and awaiting a reply",
			},
		),
		Offline: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sugarclient_offline_commands",
				Help: "Commands buffered while the connection is not ready",
			},
		),
		State: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sugarclient_connection_state",
				Help: "Connection state (0 connecting, 1 ready, 2 reconnecting, 3 closed)",
			},
		),
	}
}
