package resolver

import (
	"strings"

	"github.com/lens-academy/relay/store"
)

const filemetaContainer = "filemeta_v0"

// fileMetaEntry is the decoded shape of one filemeta_v0 value (spec.md
// §3.1 "path -> {id, type, version}").
type fileMetaEntry struct {
	ID      string
	Type    string
	Version int64
}

func decodeFileMeta(v any) (fileMetaEntry, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return fileMetaEntry{}, false
	}
	id, _ := m["id"].(string)
	if id == "" {
		return fileMetaEntry{}, false
	}
	typ, _ := m["type"].(string)
	var version int64
	switch n := m["version"].(type) {
	case int64:
		version = n
	case float64:
		version = int64(n)
	}
	return fileMetaEntry{ID: id, Type: typ, Version: version}, true
}

func stripLeadingSlash(p string) string { return strings.TrimPrefix(p, "/") }

// Rebuild performs a full scan of every loaded folder document, replacing
// the forward/reverse maps atomically. Run on startup after documents load
// (spec.md §4.2).
func (r *Resolver) Rebuild(docs store.DocsView) {
	folderIDs := sortedFolderDocIDs(docs)

	byPath := make(map[string]*Entry)
	byUUID := make(map[string]*Entry)
	byBase := make(map[string][]*Entry)

	for idx, folderDocID := range folderIDs {
		h, ok := docs.Get(folderDocID)
		if !ok {
			continue
		}
		addEntriesForFolder(byPath, byUUID, byBase, r, folderDocID, idx, h)
	}

	r.mu.Lock()
	r.byPath, r.byUUID, r.byBase = byPath, byUUID, byBase
	r.mu.Unlock()
}

// UpdateFolder incrementally refreshes the entries belonging to a single
// folder document; called by the link indexer after it finishes processing
// a folder-document mutation (spec.md §4.2 "Update protocol").
func (r *Resolver) UpdateFolder(folderDocID string, folderIndex int, docs store.DocsView) {
	h, ok := docs.Get(folderDocID)
	if !ok {
		return
	}

	freshPath := make(map[string]*Entry)
	freshUUID := make(map[string]*Entry)
	freshBase := make(map[string][]*Entry)
	addEntriesForFolder(freshPath, freshUUID, freshBase, r, folderDocID, folderIndex, h)

	r.mu.Lock()
	defer r.mu.Unlock()
	// drop this folder's previous entries, then merge the fresh ones
	for path, e := range r.byPath {
		if e.FolderDocID == folderDocID {
			delete(r.byPath, path)
		}
	}
	for uuid, e := range r.byUUID {
		if e.FolderDocID == folderDocID {
			delete(r.byUUID, uuid)
		}
	}
	for base, entries := range r.byBase {
		kept := entries[:0:0]
		for _, e := range entries {
			if e.FolderDocID != folderDocID {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(r.byBase, base)
		} else {
			r.byBase[base] = kept
		}
	}
	for path, e := range freshPath {
		r.byPath[path] = e
	}
	for uuid, e := range freshUUID {
		r.byUUID[uuid] = e
	}
	for base, entries := range freshBase {
		r.byBase[base] = append(r.byBase[base], entries...)
	}
}

func addEntriesForFolder(byPath, byUUID map[string]*Entry, byBase map[string][]*Entry, r *Resolver, folderDocID string, folderIndex int, h *store.Handle) {
	folderName := r.folderName(folderIndex)
	h.Doc.Map(filemetaContainer).Range(func(path string, v any) bool {
		meta, ok := decodeFileMeta(v)
		if !ok {
			return true
		}
		relayUUID, _, _ := store.SplitDocID(folderDocID)
		fullPath := folderName + "/" + stripLeadingSlash(path)
		e := &Entry{
			DocUUID:     meta.ID,
			RelayUUID:   relayUUID,
			FolderDocID: folderDocID,
			FolderIndex: folderIndex,
			FullPath:    fullPath,
		}
		byPath[fullPath] = e
		byUUID[meta.ID] = e
		base := strings.ToLower(basename(fullPath))
		byBase[base] = append(byBase[base], e)
		return true
	})
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
