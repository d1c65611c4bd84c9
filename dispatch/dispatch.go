// Package dispatch implements the mutation dispatcher (spec.md §4.5,
// component C5): the single place that reacts to every CRDT observer
// callback by fanning it out to persistence, the two background indexers,
// and the outbound webhook. It is the only package that constructs a
// store.ObserverFactory, which keeps the store package itself free of any
// dependency on indexing or notification concerns.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package dispatch

import (
	"time"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/metrics"
	"github.com/lens-academy/relay/store"
	"github.com/lens-academy/relay/webhook"
)

// indexerEnqueuer is the narrow seam both linkidx.Indexer and
// searchidx.Indexer satisfy; dispatch only needs Enqueue, so it doesn't
// need to import either concrete package (avoids import cycles, since
// linkidx already depends on searchidx's narrow SearchNotifier interface).
type indexerEnqueuer interface {
	Enqueue(docID string)
}

// indexerOrigins lists the transaction origins the dispatcher treats as
// indexer-authored and therefore does NOT re-enqueue for indexing --
// otherwise a rename-cascade rewrite would trigger another round of
// rewrites forever (spec.md §4.5 "origin echo suppression").
var indexerOrigins = map[string]bool{
	"link-indexer":   true,
	"search-indexer": true,
}

// Dispatcher owns the fan-out logic and is the receiver New returns as a
// store.ObserverFactory.
type Dispatcher struct {
	persist  *store.PersistWorker
	linkIdx  indexerEnqueuer
	searchIx indexerEnqueuer
	webhook  *webhook.Dispatcher
	clock    func() int64
	log      *nlog.Tagged
}

func New(persist *store.PersistWorker, linkIdx, searchIdx indexerEnqueuer, wh *webhook.Dispatcher) *Dispatcher {
	return &Dispatcher{
		persist:  persist,
		linkIdx:  linkIdx,
		searchIx: searchIdx,
		webhook:  wh,
		clock:    func() int64 { return time.Now().Unix() },
		log:      nlog.Component(cmn.SmoduleDispatch),
	}
}

// ObserverFactory adapts the dispatcher into the store.ObserverFactory the
// document store expects: one closure per loaded document, each tagged
// with that document's id so the dispatcher's steps below never need a
// reverse lookup.
func (d *Dispatcher) ObserverFactory(docID string, h *store.Handle) crdtdoc.Observer {
	return func(origin string, update []byte) {
		d.onMutation(docID, h, origin, update)
	}
}

// onMutation implements spec.md §4.5's six-step callback, in order:
//  1. classify the origin
//  2. queue the update bytes for async persistence (never blocks on I/O)
//  3. signal the persist worker
//  4. first-occurrence-only enqueue into the link indexer, unless the
//     origin is itself an indexer (echo suppression)
//  5. same for the search indexer
//  6. fire-and-forget webhook notification
func (d *Dispatcher) onMutation(docID string, h *store.Handle, origin string, update []byte) {
	isIndexerOrigin := indexerOrigins[origin]
	metrics.DispatcherUpdatesTotal.WithLabelValues(originLabel(origin)).Inc()

	h.QueueUpdate(update)
	if d.persist != nil {
		d.persist.Signal(docID)
	}

	if !isIndexerOrigin {
		if d.linkIdx != nil {
			d.linkIdx.Enqueue(docID)
		}
		if d.searchIx != nil {
			d.searchIx.Enqueue(docID)
		}
	}

	if d.webhook != nil {
		d.webhook.Fire(docID, update, d.clock())
	}
}

// originLabel collapses the open-ended set of transaction origins into a
// small, bounded label set so the metric's cardinality can't grow with
// client-chosen origin strings.
func originLabel(origin string) string {
	switch origin {
	case "":
		return "remote"
	case "link-indexer":
		return "link-indexer"
	case "search-indexer":
		return "search-indexer"
	default:
		return "other"
	}
}

var _ store.ObserverFactory = (*Dispatcher)(nil).ObserverFactory
