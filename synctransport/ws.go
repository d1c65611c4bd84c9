// Package synctransport implements the CRDT sync websocket (spec.md §4.9
// mentions the document lifecycle; the transport itself lives in the
// external interfaces of §6): clients upgrade to a binary websocket per
// doc_id, exchange CRDT update frames, and the relay forwards each frame a
// peer sends to the other connected peers for that document.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package synctransport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/store"
)

// TokenValidator authorizes a sync connection for a given doc_id before the
// websocket upgrade completes. The concrete implementation (share-link
// token verification) lives outside this module's scope per spec.md §1.
type TokenValidator interface {
	Validate(ctx context.Context, docID, token string) bool
}

// Docs is the narrow slice of the document store the transport needs.
type Docs interface {
	GetOrLoad(ctx context.Context, docID string) (*store.Handle, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub forwards each update frame received from one websocket peer to every
// other websocket connected to the same document, so two browser tabs
// editing the same doc converge without a round trip through blob storage.
// Updates applied by other paths (the HTTP update endpoint, the edit tool)
// are not forwarded to connected peers.
type Hub struct {
	docs      Docs
	validator TokenValidator
	log       *nlog.Tagged

	mu    sync.Mutex
	peers map[string]map[*peer]struct{} // docID -> connected peers
}

func NewHub(docs Docs, validator TokenValidator) *Hub {
	return &Hub{
		docs:      docs,
		validator: validator,
		log:       nlog.Component("synctransport"),
		peers:     make(map[string]map[*peer]struct{}),
	}
}

type peer struct {
	conn  *websocket.Conn
	send  chan []byte
	docID string
}

// ServeHTTP upgrades the connection for one doc_id and drives the
// read/write pumps until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, docID, token string) {
	if h.validator != nil && !h.validator.Validate(r.Context(), docID, token) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	handle, err := h.docs.GetOrLoad(r.Context(), docID)
	if err != nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnln("upgrade failed for", docID, ":", err.Error())
		return
	}

	p := &peer{conn: conn, send: make(chan []byte, 64), docID: docID}
	h.register(p)

	// Send the current full state as the first frame so a newly connected
	// client starts from a consistent snapshot rather than an empty doc.
	p.send <- handle.Doc.EncodeStateAsUpdate()

	// Unregistering when the read pump ends closes p.send, which lets the
	// write pump's range loop finish too.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); h.readPump(p, handle); h.unregister(p) }()
	go func() { defer wg.Done(); h.writePump(p) }()
	wg.Wait()
}

func (h *Hub) readPump(p *peer, handle *store.Handle) {
	defer p.conn.Close()
	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := handle.Doc.ApplyUpdate(msg); err != nil {
			h.log.Warnln("apply update failed for", p.docID, ":", err.Error())
			continue
		}
		h.broadcast(p.docID, p, msg)
	}
}

func (h *Hub) writePump(p *peer) {
	defer p.conn.Close()
	for msg := range p.send {
		if err := p.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.peers[p.docID]
	if !ok {
		set = make(map[*peer]struct{})
		h.peers[p.docID] = set
	}
	set[p] = struct{}{}
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.peers[p.docID]; ok {
		delete(set, p)
		if len(set) == 0 {
			delete(h.peers, p.docID)
		}
	}
	close(p.send)
}

func (h *Hub) broadcast(docID string, from *peer, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers[docID] {
		if p == from {
			continue
		}
		select {
		case p.send <- msg:
		default:
			// Slow peer: drop the frame rather than block the broadcaster;
			// the peer's next GetOrLoad-backed reconnect resynchronizes.
		}
	}
}
