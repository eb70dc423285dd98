// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides opt-in Prometheus instrumentation for the
// server: per-command counters and connection/replica/blocked-client
// gauges, exposed on a dedicated /metrics endpoint when configured. It is
// safe to call from hot paths even when disabled.
package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls whether and where metrics are exposed. MetricsAddr, when
// non-empty, starts a dedicated HTTP server serving /metrics.
type Config struct {
	MetricsAddr string
}

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redisrv_commands_total",
		Help: "Total commands dispatched, by command name",
	}, []string{"command"})

	connectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redisrv_connections_active",
		Help: "Number of currently open client connections",
	})

	blockedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redisrv_blocked_clients",
		Help: "Number of clients currently blocked in BLPOP or XREAD BLOCK",
	})

	replicasConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redisrv_replicas_connected",
		Help: "Number of replicas currently registered with this instance",
	})

	keyspaceHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redisrv_keyspace_hits_total",
		Help: "Total successful lookups of a key in any data structure",
	})
	keyspaceMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redisrv_keyspace_misses_total",
		Help: "Total lookups of a key that was not found",
	})
)

func init() {
	prometheus.MustRegister(commandsTotal, connectionsActive, blockedClients, replicasConnected, keyspaceHits, keyspaceMisses)
}

// Metrics is the handle command handlers and the connection loop report
// through. main constructs one via New even when cfg.MetricsAddr is empty,
// since the counters themselves are always registered; the session and
// server code skip reporting when handed a nil *Metrics.
type Metrics struct {
	server *http.Server
}

// New builds a Metrics handle and, if cfg.MetricsAddr is set, starts the
// /metrics HTTP server in the background.
func New(cfg Config) *Metrics {
	m := &Metrics{}
	if cfg.MetricsAddr == "" {
		return m
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.server = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		_ = m.server.ListenAndServe()
	}()
	return m
}

// Shutdown stops the metrics HTTP server, if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// ObserveCommand records one dispatch of the named command.
func (m *Metrics) ObserveCommand(name string) {
	commandsTotal.WithLabelValues(strings.ToUpper(name)).Inc()
}

// ConnectionOpened/ConnectionClosed track the active-connection gauge across
// the server's accept loop.
func (m *Metrics) ConnectionOpened() { connectionsActive.Inc() }
func (m *Metrics) ConnectionClosed() { connectionsActive.Dec() }

// BlockStarted/BlockEnded bracket a BLPOP/XREAD BLOCK call so the blocked
// client count reflects in-flight blocking reads.
func (m *Metrics) BlockStarted() { blockedClients.Inc() }
func (m *Metrics) BlockEnded()   { blockedClients.Dec() }

// ReplicaRegistered/ReplicaUnregistered track the replicas-connected gauge.
func (m *Metrics) ReplicaRegistered()   { replicasConnected.Inc() }
func (m *Metrics) ReplicaUnregistered() { replicasConnected.Dec() }

// ObserveKeyLookup records a keyspace hit or miss.
func (m *Metrics) ObserveKeyLookup(hit bool) {
	if hit {
		keyspaceHits.Inc()
		return
	}
	keyspaceMisses.Inc()
}
