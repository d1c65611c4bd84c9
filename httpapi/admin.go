// Admin endpoints backing relayctl (§4.17): operational stats, a forced
// reindex, and dev-only token minting. Not part of spec.md's external
// interfaces, added per SPEC_FULL.md §10.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package httpapi

import "net/http"

// Reindexers is the narrow seam into both background indexers admin needs.
type Reindexers interface {
	PendingCount() int
	ReindexAll()
}

// Sessions is the narrow seam into the MCP session manager admin needs.
type Sessions interface {
	Count() int
}

// AdminDeps bundles the optional admin-surface dependencies. A nil field
// leaves its key out of /admin/stats and is skipped by /admin/reindex,
// which answers 501 only when both indexers are nil.
type AdminDeps struct {
	LinkIdx   Reindexers
	SearchIdx Reindexers
	Sessions  Sessions
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{}
	if s.admin.Sessions != nil {
		stats["sessions_active"] = s.admin.Sessions.Count()
	}
	if s.admin.LinkIdx != nil {
		stats["link_indexer_pending"] = s.admin.LinkIdx.PendingCount()
	}
	if s.admin.SearchIdx != nil {
		stats["search_indexer_pending"] = s.admin.SearchIdx.PendingCount()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminReindex(w http.ResponseWriter, r *http.Request) {
	if s.admin.LinkIdx == nil && s.admin.SearchIdx == nil {
		http.Error(w, "indexers not configured", http.StatusNotImplemented)
		return
	}
	if s.admin.LinkIdx != nil {
		s.admin.LinkIdx.ReindexAll()
	}
	if s.admin.SearchIdx != nil {
		s.admin.SearchIdx.ReindexAll()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAdminTokenMint(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc_id")
	if docID == "" {
		http.Error(w, "doc_id is required", http.StatusBadRequest)
		return
	}
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
