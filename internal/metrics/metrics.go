// Copyright 2026 The cosmwasm-guard Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes an optional Prometheus endpoint for a scan run,
// mirroring the --metrics-addr server in cmd/cie/index.go: off by default,
// a single goroutine serving /metrics when a listen address is given.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cosmwasm_guard_files_scanned_total",
		Help: "Number of source files processed by the most recent scan.",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cosmwasm_guard_cache_hits_total",
		Help: "Number of source files served from the incremental cache.",
	})
	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cosmwasm_guard_findings_total",
		Help: "Number of findings reported, by severity.",
	}, []string{"severity"})
)

// StartServer starts a /metrics endpoint on addr in the background. Errors
// after startup are logged, not fatal: a broken metrics exporter must never
// fail a scan.
func StartServer(addr string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}
