// Package resolver implements the bidirectional path<->identifier index
// (spec.md §3.2, component C2): user-visible paths like "Folder/Name.md" on
// one side, internal doc_uuids on the other.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package resolver

import (
	"sort"
	"strings"
	"sync"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/store"
)

// Entry is one resolver record, per spec.md §3.2.
type Entry struct {
	DocUUID      string
	RelayUUID    string
	FolderDocID  string
	FolderIndex  int
	FullPath     string
}

// Resolver holds the forward (path -> entry) and reverse (doc_uuid ->
// entry) maps. Safe for concurrent readers; writers go through rebuild or
// update methods which hold the single write lock for the whole map swap.
type Resolver struct {
	mu       sync.RWMutex
	byPath   map[string]*Entry
	byUUID   map[string]*Entry
	byBase   map[string][]*Entry // lowercased basename -> entries, for wikilink fallback resolution
	cfg      *cmn.Config
}

func New(cfg *cmn.Config) *Resolver {
	return &Resolver{
		cfg:    cfg,
		byPath: make(map[string]*Entry),
		byUUID: make(map[string]*Entry),
		byBase: make(map[string][]*Entry),
	}
}

// Resolve performs an exact, case-sensitive path lookup.
func (r *Resolver) Resolve(path string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byPath[path]
	return e, ok
}

// PathFor performs the reverse lookup by doc_uuid.
func (r *Resolver) PathFor(docUUID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byUUID[docUUID]
	if !ok {
		return "", false
	}
	return e.FullPath, true
}

// AllPaths returns a sorted snapshot of every known path.
func (r *Resolver) AllPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ResolveBasename is the case-insensitive wikilink fallback: if name does
// not match a full path, try matching it against every known basename,
// first as given and then with ".md" appended, so an extensionless
// [[Name]] finds "Folder/Name.md". Ambiguous matches return the
// lexicographically first candidate, which keeps the result deterministic.
func (r *Resolver) ResolveBasename(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byBase[strings.ToLower(name)]
	if len(candidates) == 0 {
		candidates = r.byBase[strings.ToLower(name)+".md"]
	}
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.FullPath < best.FullPath {
			best = c
		}
	}
	return best, true
}

// folderName derives the configured display name for a folder index
// (spec.md §4.2 "Folder-index determinism"); the set of names is config.
func (r *Resolver) folderName(idx int) string {
	if idx < 0 || idx >= len(r.cfg.FolderNames) {
		return ""
	}
	return r.cfg.FolderNames[idx]
}

// sortedFolderDocIDs returns every loaded folder document's doc_id in
// sorted order, the deterministic basis for folder_index assignment.
func sortedFolderDocIDs(docs store.DocsView) []string {
	var ids []string
	docs.Range(func(docID string, h *store.Handle) bool {
		if h.Kind == store.KindFolder {
			ids = append(ids, docID)
		}
		return true
	})
	sort.Strings(ids)
	return ids
}
