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

// Package main provides the entry point for redisrv: an in-memory,
// multi-model data server speaking a RESP-style wire protocol, with
// optional master->replica replication.
//
// This file orchestrates the whole process:
//  1. Parse configuration flags.
//  2. Load any on-disk snapshot and build the engine set.
//  3. Start Prometheus telemetry, if configured.
//  4. If --replicaof names a master, start the replication handshake and
//     live-sync loop in the background, retrying until the master answers;
//     client connections are accepted without waiting for it.
//  5. Start the TCP server and block until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"redisrv/internal/engine"
	"redisrv/internal/replication"
	"redisrv/internal/server"
	"redisrv/internal/session"
	"redisrv/internal/snapshot"
	"redisrv/internal/telemetry"
)

func main() {
	port := flag.Int("port", 6379, "TCP port to listen on")
	dir := flag.String("dir", "./", "Directory the snapshot file lives in")
	dbFilename := flag.String("dbfilename", "dump.rdb", "Snapshot filename within --dir")
	replicaOf := flag.String("replicaof", "", `Master to replicate from, as "<host> <port>"; empty means run as master`)
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	flag.Parse()

	snapPath := filepath.Join(*dir, *dbFilename)
	snap, err := snapshot.Load(snapPath)
	if err != nil {
		// A malformed snapshot aborts only the load, never the server:
		// start with an empty store instead.
		log.Printf("redisrv: loading snapshot %s: %v (starting empty)", snapPath, err)
		snap = nil
	}

	engines := engine.New(snap)
	metrics := telemetry.New(telemetry.Config{MetricsAddr: *metricsAddr})

	role := "master"
	if *replicaOf != "" {
		role = "slave"
	}
	shared := session.NewShared(engines, metrics, *dir, *dbFilename, role)

	srv := server.New(shared)

	stop := make(chan struct{})
	if *replicaOf != "" {
		masterAddr, err := parseReplicaOf(*replicaOf)
		if err != nil {
			log.Fatalf("redisrv: %v", err)
		}
		go runReplica(shared, masterAddr, strconv.Itoa(*port), stop)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(fmt.Sprintf(":%d", *port))
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		close(stop)
		if err != nil {
			log.Fatalf("redisrv: %v", err)
		}
	case <-sig:
		fmt.Println("\nredisrv: shutting down...")
		close(stop)
		_ = srv.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(ctx)
		<-errCh
	}

	fmt.Println("redisrv: stopped.")
}

// parseReplicaOf accepts either "<host> <port>" or
// "<host>:<port>", and returns a dialable "host:port" address.
func parseReplicaOf(raw string) (string, error) {
	if fields := strings.Fields(raw); len(fields) == 2 {
		return fields[0] + ":" + fields[1], nil
	}
	if strings.Contains(raw, ":") {
		return raw, nil
	}
	return "", fmt.Errorf(`invalid --replicaof %q, want "<host> <port>"`, raw)
}

// runReplica drives the replication handshake and live-sync loop against
// masterAddr, retrying with a fixed backoff if the master is unreachable or
// the connection drops, until stop is closed.
func runReplica(shared *session.Shared, masterAddr, listenPort string, stop <-chan struct{}) {
	dispatcher := session.New(shared, nil)
	replication.RetryConnect(masterAddr, listenPort, dispatcher, time.Second, stop)
}
