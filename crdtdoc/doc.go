// Package crdtdoc is the seam spec.md calls "a standard Y-CRDT library is
// assumed": it owns replica bookkeeping, named containers, transaction
// origin tags, and mutation-observer dispatch, while delegating the actual
// conflict-free merge algorithm to github.com/gpestana/rdoc. Nothing in this
// package implements character-level merge logic -- that stays the
// library's job, per spec.md's explicit non-goal.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package crdtdoc

import (
	"sync"

	rdoc "github.com/gpestana/rdoc"
)

// Observer is invoked synchronously by the goroutine that committed the
// update, right after the change is applied and the replica lock has been
// released; it does not run while the transaction holds the lock. It must
// not block and must not panic.
type Observer func(origin string, update []byte)

// Doc is one in-memory CRDT replica. The zero value is not usable; build one
// with New or Load.
type Doc struct {
	mu        sync.RWMutex // guards replica + containers; never held across I/O
	replica   *rdoc.Doc
	texts     map[string]*Text
	maps      map[string]*Map
	observers []Observer
}

// New creates an empty replica.
func New() *Doc {
	return &Doc{
		replica: rdoc.New(),
		texts:   make(map[string]*Text),
		maps:    make(map[string]*Map),
	}
}

// Load rebuilds a replica from a previously encoded update (e.g. the bytes
// read back from the blob store's append log / snapshot).
func Load(snapshot []byte) (*Doc, error) {
	d := New()
	if len(snapshot) == 0 {
		return d, nil
	}
	if err := d.replica.Apply(snapshot); err != nil {
		return nil, err
	}
	return d, nil
}

// EncodeStateAsUpdate serializes the full current state, the form persisted
// to the blob store and sent over the sync websocket.
func (d *Doc) EncodeStateAsUpdate() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.replica.Encode()
}

// ApplyUpdate merges a remote update into this replica (e.g. a client's
// sync-protocol frame arriving over the websocket, delegated to rdoc's
// merge algorithm) and fires observers with origin "".
func (d *Doc) ApplyUpdate(update []byte) error {
	d.mu.Lock()
	if err := d.replica.Apply(update); err != nil {
		d.mu.Unlock()
		return err
	}
	obs := append([]Observer(nil), d.observers...)
	d.mu.Unlock()
	for _, o := range obs {
		safeInvoke(o, "", update)
	}
	return nil
}

// Observe registers a callback fired on every transaction commit, whether
// locally originated (via Transact) or remotely merged (via ApplyUpdate).
func (d *Doc) Observe(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Text returns (creating if necessary) the named text container, e.g.
// the "contents" root of a content document.
func (d *Doc) Text(name string) *Text {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked(name)
}

// textLocked is Text's body, callable by a goroutine that already holds
// d.mu (namely Txn.Text, mid-Transact) without re-locking it — sync.RWMutex
// is not reentrant, so a second Lock from inside Transact would deadlock.
func (d *Doc) textLocked(name string) *Text {
	if t, ok := d.texts[name]; ok {
		return t
	}
	t := &Text{doc: d, name: name, inner: d.replica.Text(name)}
	d.texts[name] = t
	return t
}

// Map returns (creating if necessary) the named map container, e.g.
// "filemeta_v0" or "backlinks_v0" on a folder document.
func (d *Doc) Map(name string) *Map {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mapLocked(name)
}

// mapLocked is Map's body, callable by a goroutine that already holds d.mu
// (namely Txn.Map, mid-Transact) without re-locking it.
func (d *Doc) mapLocked(name string) *Map {
	if m, ok := d.maps[name]; ok {
		return m
	}
	m := &Map{doc: d, name: name, inner: d.replica.Map(name)}
	d.maps[name] = m
	return m
}

// HasText/HasMap report whether a root container of that name already
// exists, used by the document store to infer document kind without
// creating a container as a side effect (spec.md §3.1).
func (d *Doc) HasText(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.replica.HasRoot(name)
}

func (d *Doc) HasMap(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.replica.HasRoot(name)
}

// Txn is the mutation handle passed to a Transact callback. It exists so
// container mutations made inside Transact are attributed the transaction's
// origin without every Text/Map method needing an origin parameter.
type Txn struct {
	doc    *Doc
	origin string
}

// Transact runs fn under the replica's write lock and, on return, encodes
// the resulting update and fires observers with the given origin -- this is
// the mechanism spec.md §4.3/§4.5 use to tag indexer-originated mutations
// with origin "link-indexer" so the dispatcher can suppress re-indexing.
func (d *Doc) Transact(origin string, fn func(*Txn)) []byte {
	d.mu.Lock()
	txn := &Txn{doc: d, origin: origin}
	fn(txn)
	update := d.replica.Encode()
	obs := append([]Observer(nil), d.observers...)
	d.mu.Unlock()

	for _, o := range obs {
		safeInvoke(o, origin, update)
	}
	return update
}

// safeInvoke enforces the no-panic rule on observer callbacks (spec.md
// §4.1, §5): a panicking observer must never poison the replica lock.
func safeInvoke(o Observer, origin string, update []byte) {
	defer func() {
		if r := recover(); r != nil {
			// The lock is already released by the time observers run, so a
			// panic here cannot poison it; we still must not propagate it
			// out of a CRDT-transaction-adjacent callback.
			logObserverPanic(r)
		}
	}()
	o(origin, update)
}

var observerPanicHook func(any)

func logObserverPanic(r any) {
	if observerPanicHook != nil {
		observerPanicHook(r)
	}
}

// SetObserverPanicHook lets the server wire panic recovery into structured
// logging without crdtdoc importing the logging package (avoids an import
// cycle with cmn/nlog, which may itself want to log through a container).
func SetObserverPanicHook(fn func(any)) { observerPanicHook = fn }
