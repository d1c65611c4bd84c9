// Package httpapi binds the plain HTTP endpoints of spec.md §6 (document
// lifecycle, CRDT state transfer, MCP JSON-RPC, metrics) onto one
// http.ServeMux, using Go 1.22's method+wildcard routing patterns in place
// of a third-party router -- the teacher codebase doesn't pull one in
// either, see DESIGN.md.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/mcpsrv"
	"github.com/lens-academy/relay/store"
	"github.com/lens-academy/relay/synctransport"
)

// TokenMinter issues per-document access tokens for the /doc/:doc_id/auth
// endpoint. The token issuance scheme itself is out of scope (spec.md §1);
// this interface is the seam a real deployment plugs an issuer into.
type TokenMinter interface {
	Mint(docID string) (string, error)
}

// Docs is the narrow slice of the document store httpapi needs.
type Docs interface {
	GetOrLoad(ctx context.Context, docID string) (*store.Handle, error)
	Put(docID string, doc *crdtdoc.Doc) *store.Handle
}

type Server struct {
	docs   Docs
	mcp    *mcpsrv.Server
	hub    *synctransport.Hub
	tokens TokenMinter
	relay  string
	admin  AdminDeps
	log    *nlog.Tagged
}

func New(docs Docs, mcp *mcpsrv.Server, hub *synctransport.Hub, tokens TokenMinter, relayUUID string) *Server {
	return &Server{docs: docs, mcp: mcp, hub: hub, tokens: tokens, relay: relayUUID, log: nlog.Component("httpapi")}
}

// WithAdmin attaches the relayctl-facing admin endpoints (§4.17); returns
// the receiver so it chains onto New at the call site.
func (s *Server) WithAdmin(deps AdminDeps) *Server {
	s.admin = deps
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /doc/new", s.handleDocNew)
	mux.HandleFunc("POST /doc/{doc_id}/auth", s.handleDocAuth)
	mux.HandleFunc("GET /d/{doc_id}/as-update", s.handleAsUpdate)
	mux.HandleFunc("POST /d/{doc_id}/update", s.handleUpdate)
	mux.HandleFunc("GET /doc/ws/{doc_id}", s.handleWS)
	mux.HandleFunc("POST /mcp", s.handleMCP)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /admin/stats", s.handleAdminStats)
	mux.HandleFunc("POST /admin/reindex", s.handleAdminReindex)
	mux.HandleFunc("POST /admin/token", s.handleAdminTokenMint)
	return mux
}

func (s *Server) handleDocNew(w http.ResponseWriter, r *http.Request) {
	docUUID := newUUID()
	docID := store.MakeDocID(s.relay, docUUID)
	s.docs.Put(docID, crdtdoc.New())
	writeJSON(w, http.StatusOK, map[string]string{"doc_id": docID})
}

func (s *Server) handleDocAuth(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	if s.tokens == nil {
		http.Error(w, "token issuance not configured", http.StatusNotImplemented)
		return
	}
	token, err := s.tokens.Mint(docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAsUpdate(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	h, err := s.docs.GetOrLoad(r.Context(), docID)
	if err != nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(h.Doc.EncodeStateAsUpdate())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	h, err := s.docs.GetOrLoad(r.Context(), docID)
	if err != nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	body := http.MaxBytesReader(w, r.Body, 16<<20)
	buf, err := readAll(body)
	if err != nil {
		http.Error(w, "request too large or unreadable", http.StatusBadRequest)
		return
	}
	if err := h.Doc.ApplyUpdate(buf); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	token := r.URL.Query().Get("token")
	s.hub.ServeHTTP(w, r, docID, token)
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	var req mcpsrv.Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, mcpsrv.Response{JSONRPC: "2.0", Error: &mcpsrv.RPCError{Code: -32700, Message: "parse error"}})
		return
	}

	ctx := r.Context()
	if sid := r.Header.Get("Mcp-Session-Id"); sid != "" {
		ctx = mcpsrv.WithSessionID(ctx, sid)
	}

	resp := s.mcp.Handle(ctx, &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
