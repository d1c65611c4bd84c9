package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lens-academy/relay/blob"
	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/crdtdoc"
)

// ObserverFactory builds the mutation observer attached to every newly
// loaded replica. The store itself only knows how to load/persist
// documents; C5 (mutation dispatcher) supplies the fan-out logic so store
// has no dependency on the indexers.
type ObserverFactory func(docID string, h *Handle) crdtdoc.Observer

// DocsView is the read-only projection of the store handed to the link and
// search indexers (spec.md §4.1 "docs_view() -> shared map").
type DocsView interface {
	Get(docID string) (*Handle, bool)
	Range(fn func(docID string, h *Handle) bool)
}

// Store owns the mapping doc_id -> live replica (component C1). The zero
// value is not usable; construct with New.
type Store struct {
	cfg      *cmn.Config
	blobs    blob.Store
	observer ObserverFactory

	docs  sync.Map // docID -> *Handle
	group singleflight.Group

	log *nlog.Tagged
}

func New(cfg *cmn.Config, blobs blob.Store, observer ObserverFactory) *Store {
	return &Store{cfg: cfg, blobs: blobs, observer: observer, log: nlog.Component(cmn.SmoduleStore)}
}

// SetObserverFactory replaces the factory used for documents loaded or put
// from this point on. Exists because the mutation dispatcher (C5) depends
// on the store it observes, so callers construct the store with a nil
// factory, build the dispatcher against it, then wire it in before serving
// any request.
func (s *Store) SetObserverFactory(f ObserverFactory) { s.observer = f }

// GetOrLoad returns the in-memory replica for docID, loading it from blob
// storage on first access. Concurrent misses for the same id load exactly
// once (singleflight), per spec.md §4.1.
func (s *Store) GetOrLoad(ctx context.Context, docID string) (*Handle, error) {
	if h, ok := s.docs.Load(docID); ok {
		return h.(*Handle), nil
	}
	v, err, _ := s.group.Do(docID, func() (any, error) {
		if h, ok := s.docs.Load(docID); ok {
			return h.(*Handle), nil
		}
		return s.load(ctx, docID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (s *Store) load(ctx context.Context, docID string) (*Handle, error) {
	snapshot, err := s.blobs.GetSnapshot(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("store: get snapshot %s: %w", docID, err)
	}
	logSegments, err := s.blobs.ListLog(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("store: list log %s: %w", docID, err)
	}

	doc, err := crdtdoc.Load(snapshot)
	if err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", docID, err)
	}
	for _, seg := range logSegments {
		if err := doc.ApplyUpdate(seg); err != nil {
			return nil, fmt.Errorf("store: replay log %s: %w", docID, err)
		}
	}

	h := &Handle{DocID: docID, Kind: inferKind(doc), Doc: doc}
	if s.observer != nil {
		doc.Observe(s.observer(docID, h))
	}
	s.docs.Store(docID, h)
	s.log.Infoln("loaded", docID, "kind", h.Kind)
	return h, nil
}

// Put registers a brand-new, empty document (created externally, e.g. by a
// folder-doc filemeta_v0 addition) without touching blob storage — the
// first dirty flush will create it there.
func (s *Store) Put(docID string, doc *crdtdoc.Doc) *Handle {
	h := &Handle{DocID: docID, Kind: inferKind(doc), Doc: doc}
	if s.observer != nil {
		doc.Observe(s.observer(docID, h))
	}
	s.docs.Store(docID, h)
	return h
}

// Get returns the handle for docID if it is already loaded, without
// triggering a load from blob storage.
func (s *Store) Get(docID string) (*Handle, bool) {
	h, ok := s.docs.Load(docID)
	if !ok {
		return nil, false
	}
	return h.(*Handle), true
}

// ForEach snapshot-iterates every currently loaded document.
func (s *Store) ForEach(fn func(docID string, h *Handle) bool) {
	s.docs.Range(func(k, v any) bool {
		return fn(k.(string), v.(*Handle))
	})
}

// Range implements DocsView.
func (s *Store) Range(fn func(docID string, h *Handle) bool) { s.ForEach(fn) }

var _ DocsView = (*Store)(nil)
