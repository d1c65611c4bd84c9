// Package linkidx is the debounced background worker that maintains
// bidirectional wikilink backlinks and drives rename cascades (spec.md
// §4.3, component C3).
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package linkidx

import (
	"sync"
	"time"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/metrics"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

const metricLabel = "link"

const originTag = "link-indexer"
const backlinksContainer = "backlinks_v0"

// SearchNotifier is the narrow seam into the search indexer (C4) used only
// by the rename cascade: the rewrite happens inside a link-indexer-tagged
// transaction, which the mutation dispatcher will NOT forward to the
// search indexer (origin-echo suppression), so the link indexer must push
// the update there itself and then clear its pending entry -- otherwise
// the first-occurrence-only rule permanently suppresses future updates for
// that document (spec.md §4.4 "Consistency after rename").
type SearchNotifier interface {
	UpdateInline(docID string)
	ClearPending(docID string)
}

// Indexer is the single-threaded cooperative worker for link indexing.
type Indexer struct {
	docs     store.DocsView
	resolver *resolver.Resolver
	search   SearchNotifier
	debounce time.Duration

	pending sync.Map // docID -> time.Time
	ch      chan string
	stop    chan struct{}

	mu           sync.Mutex
	prevLinks    map[string]map[string]bool   // docID -> set of target doc_uuids
	prevFilemeta map[string]map[string]string // folderDocID -> path -> doc_uuid

	log *nlog.Tagged
}

func New(cfg *cmn.Config, docs store.DocsView, res *resolver.Resolver, search SearchNotifier) *Indexer {
	return &Indexer{
		docs:         docs,
		resolver:     res,
		search:       search,
		debounce:     time.Duration(cfg.LinkIndexerDebounceMS) * time.Millisecond,
		ch:           make(chan string, cfg.IndexerChannelCapacity),
		stop:         make(chan struct{}),
		prevLinks:    make(map[string]map[string]bool),
		prevFilemeta: make(map[string]map[string]string),
		log:          nlog.Component(cmn.SmoduleLinkIdx),
	}
}

// Enqueue implements the first-occurrence-only rule (spec.md §4.3
// "CRITICAL"): an atomic map-entry insert learns whether the slot was
// vacant; only a vacant insert sends to the channel, so a typing burst
// against one document never floods the bounded channel.
func (ix *Indexer) Enqueue(docID string) {
	_, loaded := ix.pending.LoadOrStore(docID, time.Now())
	if loaded {
		ix.pending.Store(docID, time.Now())
		return
	}
	select {
	case ix.ch <- docID:
		metrics.IndexerQueueDepth.WithLabelValues(metricLabel).Inc()
	default:
		// ChannelFull (indexer): logged, indicates the worker is stuck.
		ix.log.Errorln("indexer channel full, dropping enqueue for", docID)
		ix.pending.Delete(docID)
	}
}

// PendingCount reports how many documents currently sit in the debounce
// window, for relayctl stats (§4.17).
func (ix *Indexer) PendingCount() int {
	n := 0
	ix.pending.Range(func(_, _ any) bool { n++; return true })
	return n
}

// ReindexAll enqueues every currently loaded document, used by relayctl
// reindex (§4.17) to force a full backlink rebuild.
func (ix *Indexer) ReindexAll() {
	ix.docs.Range(func(docID string, _ *store.Handle) bool {
		ix.Enqueue(docID)
		return true
	})
}

// Run drives the debounce-and-process loop until Stop is called.
func (ix *Indexer) Run() {
	for {
		select {
		case docID := <-ix.ch:
			ix.debounceThenProcess(docID)
		case <-ix.stop:
			return
		}
	}
}

func (ix *Indexer) Stop() { close(ix.stop) }

func (ix *Indexer) debounceThenProcess(docID string) {
	metrics.IndexerQueueDepth.WithLabelValues(metricLabel).Dec()
	firstSeen := time.Now()
	if v, ok := ix.pending.Load(docID); ok {
		firstSeen = v.(time.Time)
	}
	for {
		time.Sleep(ix.debounce)
		v, ok := ix.pending.Load(docID)
		if !ok {
			return
		}
		last := v.(time.Time)
		if time.Since(last) < ix.debounce {
			continue // still receiving updates, keep waiting
		}
		ix.process(docID)
		ix.pending.Delete(docID)
		metrics.IndexerDebounceSeconds.WithLabelValues(metricLabel).Observe(time.Since(firstSeen).Seconds())
		return
	}
}

func (ix *Indexer) process(docID string) {
	h, ok := ix.docs.Get(docID)
	if !ok {
		return
	}
	switch h.Kind {
	case store.KindContent:
		ix.processContent(docID, h)
	case store.KindFolder:
		ix.processFolder(docID, h)
	}
}
