/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package searchidx

import (
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/metrics"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

const metricLabel = "search"

const contentsContainer = "contents"
const filemetaContainer = "filemeta_v0"

// Indexer maintains the full-text index in the background, debounced the
// same way the link indexer is (spec.md §4.4): a document that mutates
// repeatedly inside the debounce window is reindexed once, not once per
// mutation. Enqueue implements the same first-occurrence-only rule via
// sync.Map.LoadOrStore used throughout this codebase.
type Indexer struct {
	idx       bleve.Index
	docs      store.DocsView
	resolver  *resolver.Resolver
	debounce  time.Duration
	pending   sync.Map // docID -> time.Time
	ch        chan string
	stop      chan struct{}
	log       *nlog.Tagged
}

func New(cfg *cmn.Config, docs store.DocsView, res *resolver.Resolver, idx bleve.Index) *Indexer {
	return &Indexer{
		idx:      idx,
		docs:     docs,
		resolver: res,
		debounce: time.Duration(cfg.SearchIndexerDebounceMS) * time.Millisecond,
		ch:       make(chan string, cfg.IndexerChannelCapacity),
		stop:     make(chan struct{}),
		log:      nlog.Component(cmn.SmoduleSearchIdx),
	}
}

// Enqueue schedules docID for reindexing after the debounce window. A
// document already pending only has its timestamp refreshed -- it is never
// enqueued twice, so the bounded channel can't be flooded by a hot document.
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
		ix.log.Errorln("queue full, dropping", docID)
		ix.pending.Delete(docID)
	}
}

// ClearPending drops docID's pending entry without indexing it. Used by the
// link indexer after a rename cascade has already pushed an inline update
// via UpdateInline, so the stale debounce timer doesn't later re-fire and
// clobber it with content read before the rename settled.
func (ix *Indexer) ClearPending(docID string) {
	ix.pending.Delete(docID)
}

// UpdateInline reindexes docID synchronously, bypassing the debounce queue.
// Called by the link indexer immediately after a rename rewrite so the
// renamed document's title/path/body are consistent before ClearPending
// removes any stale pending entry (spec.md §4.4 "Consistency after rename").
func (ix *Indexer) UpdateInline(docID string) {
	ix.process(docID)
}

// PendingCount reports how many documents currently sit in the debounce
// window, for relayctl stats (§4.17).
func (ix *Indexer) PendingCount() int {
	n := 0
	ix.pending.Range(func(_, _ any) bool { n++; return true })
	return n
}

// ReindexAll enqueues every currently loaded document, used by relayctl
// reindex (§4.17) to force a full-text rebuild.
func (ix *Indexer) ReindexAll() {
	ix.docs.Range(func(docID string, _ *store.Handle) bool {
		ix.Enqueue(docID)
		return true
	})
}

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

func (ix *Indexer) Stop() {
	close(ix.stop)
}

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
			continue
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
		_ = ix.idx.Delete(docID)
		return
	}
	if h.Kind != store.KindContent {
		return
	}
	path, _ := ix.resolver.PathFor(docID2uuid(docID))
	folder := ""
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		folder = path[:i]
	}
	body := h.Doc.Text(contentsContainer).String()
	title := titleFromPath(path)

	doc := docFields{
		DocID:     docID,
		Title:     title,
		Path:      path,
		Folder:    folder,
		Body:      body,
		UpdatedAt: monotonicStamp(),
	}
	if err := ix.idx.Index(docID, doc); err != nil {
		ix.log.Errorln("index", docID, err)
	}
}

// AddBuffered stages one content document in batch for the startup bulk
// re-index path (spec.md §4.4): load-time documents are batched rather than
// trickled through the debounce queue one at a time. There is no buffered
// removal; the batch only ever adds documents.
func (ix *Indexer) AddBuffered(batch *bleve.Batch, docID string, h *store.Handle) {
	if h.Kind != store.KindContent {
		return
	}
	path, _ := ix.resolver.PathFor(docID2uuid(docID))
	folder := ""
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		folder = path[:i]
	}
	doc := docFields{
		DocID:     docID,
		Title:     titleFromPath(path),
		Path:      path,
		Folder:    folder,
		Body:      h.Doc.Text(contentsContainer).String(),
		UpdatedAt: monotonicStamp(),
	}
	_ = batch.Index(docID, doc)
}

// Flush indexes every currently loaded content document in one bleve batch,
// used once at startup.
func (ix *Indexer) Flush() error {
	batch := ix.idx.NewBatch()
	ix.docs.Range(func(docID string, h *store.Handle) bool {
		ix.AddBuffered(batch, docID, h)
		return true
	})
	if batch.Size() == 0 {
		return nil
	}
	return ix.idx.Batch(batch)
}

func titleFromPath(path string) string {
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

func docID2uuid(docID string) string {
	_, docUUID, ok := store.SplitDocID(docID)
	if !ok {
		return docID
	}
	return docUUID
}

// monotonicStamp is a logical clock substitute: callers never compare this
// across process restarts, only use it to break freshness ties within one
// run's batch vs. incremental updates.
var stampCounter struct {
	mu sync.Mutex
	n  int64
}

func monotonicStamp() int64 {
	stampCounter.mu.Lock()
	defer stampCounter.mu.Unlock()
	stampCounter.n++
	return stampCounter.n
}
