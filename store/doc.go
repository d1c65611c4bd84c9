// Package store owns the live CRDT replicas (spec.md §4.1, component C1):
// loading them from blob storage on demand, registering the mutation
// observer that fans out to persistence and the indexers, and writing
// dirty replicas back asynchronously.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package store

import (
	"strings"
	"sync"

	"github.com/lens-academy/relay/crdtdoc"
)

// Kind is inferred from the CRDT root containers a document exposes
// (spec.md §3.1), never stored explicitly.
type Kind int

const (
	KindUnknown Kind = iota
	KindContent
	KindFolder
)

const (
	containerContents  = "contents"
	containerFilemeta  = "filemeta_v0"
	containerBacklinks = "backlinks_v0"
)

// Handle is the store's entry for one loaded document: the live replica
// plus the bookkeeping the persistence worker needs. Callers obtain one via
// Store.GetOrLoad and must not cache it across a restart.
type Handle struct {
	DocID string
	Kind  Kind
	Doc   *crdtdoc.Doc

	pendingMu sync.Mutex
	pending   [][]byte // update bytes queued for async flush to blob storage
}

// Kind infers the document kind from its root containers, per spec.md
// §3.1: a "contents" text container means content document; "filemeta_v0"
// + "backlinks_v0" map containers mean folder document.
func inferKind(d *crdtdoc.Doc) Kind {
	if d.HasText(containerContents) {
		return KindContent
	}
	if d.HasMap(containerFilemeta) {
		return KindFolder
	}
	return KindUnknown
}

// queueUpdate appends update bytes for the persistence worker to flush;
// this is an in-memory-only operation (a short mutex, no I/O) so it is safe
// to call from inside the CRDT observer, which must never block (spec.md
// §4.1).
func (h *Handle) queueUpdate(update []byte) {
	h.pendingMu.Lock()
	h.pending = append(h.pending, update)
	h.pendingMu.Unlock()
}

// QueueUpdate is the exported entry point the mutation dispatcher (C5) uses
// from its observer callback, which lives outside this package.
func (h *Handle) QueueUpdate(update []byte) { h.queueUpdate(update) }

// drainPending removes and returns all queued updates, for the persistence
// worker to flush in one batch.
func (h *Handle) drainPending() [][]byte {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	if len(h.pending) == 0 {
		return nil
	}
	drained := h.pending
	h.pending = nil
	return drained
}

// SplitDocID splits doc_id = "{relay_uuid}-{doc_uuid}" (spec.md
// §3.1). Both halves are 36-character UUIDs.
func SplitDocID(docID string) (relayUUID, docUUID string, ok bool) {
	if len(docID) != 36+1+36 {
		return "", "", false
	}
	if docID[36] != '-' {
		return "", "", false
	}
	return docID[:36], docID[37:], true
}

func MakeDocID(relayUUID, docUUID string) string {
	var b strings.Builder
	b.Grow(len(relayUUID) + 1 + len(docUUID))
	b.WriteString(relayUUID)
	b.WriteByte('-')
	b.WriteString(docUUID)
	return b.String()
}
