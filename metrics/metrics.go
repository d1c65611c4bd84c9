// Package metrics exposes the relay's Prometheus instrumentation (spec.md
// §4.12, component C12): dispatcher throughput, indexer queue depth and
// debounce latency, MCP tool call latency, edit conflicts, and active
// session count.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatcherUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_dispatcher_updates_total",
		Help: "Mutations observed by the dispatcher, labeled by transaction origin.",
	}, []string{"origin"})

	IndexerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_indexer_queue_depth",
		Help: "Documents currently pending in an indexer's debounce queue.",
	}, []string{"indexer"})

	IndexerDebounceSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_indexer_debounce_seconds",
		Help:    "Time from first enqueue to processing for a debounced indexer pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"indexer"})

	MCPToolDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_mcp_tool_duration_seconds",
		Help:    "MCP tools/call handler latency, labeled by tool name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	EditConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_edit_conflicts_total",
		Help: "edit tool calls rejected by the TOCTOU re-check (document changed since read).",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_sessions_active",
		Help: "Live MCP sessions tracked by the session manager.",
	})
)
