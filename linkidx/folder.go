package linkidx

import (
	"sort"
	"strings"

	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/store"
)

const filemetaContainer = "filemeta_v0"

// processFolder implements spec.md §4.3 "Processing a folder document":
// detect renames, cascade text rewrites to every referrer, and refresh the
// resolver for this folder.
func (ix *Indexer) processFolder(folderDocID string, h *store.Handle) {
	current := snapshotFilemeta(h)

	ix.mu.Lock()
	previous := ix.prevFilemeta[folderDocID]
	ix.prevFilemeta[folderDocID] = current
	ix.mu.Unlock()

	for _, ren := range detectRenames(previous, current) {
		ix.cascadeRename(ren.oldPath, ren.newPath)
	}

	idx := ix.folderIndex(folderDocID)
	ix.resolver.UpdateFolder(folderDocID, idx, ix.docs)
}

func (ix *Indexer) folderIndex(folderDocID string) int {
	var ids []string
	ix.docs.Range(func(docID string, h *store.Handle) bool {
		if h.Kind == store.KindFolder {
			ids = append(ids, docID)
		}
		return true
	})
	sort.Strings(ids)
	for i, id := range ids {
		if id == folderDocID {
			return i
		}
	}
	return -1
}

func snapshotFilemeta(h *store.Handle) map[string]string {
	out := make(map[string]string)
	h.Doc.Map(filemetaContainer).Range(func(path string, v any) bool {
		m, ok := v.(map[string]any)
		if !ok {
			return true
		}
		id, _ := m["id"].(string)
		if id != "" {
			out[path] = id
		}
		return true
	})
	return out
}

type rename struct{ oldPath, newPath string }

// detectRenames compares two path->doc_uuid snapshots: a doc_uuid that
// existed at one path before and a different path now is a rename.
func detectRenames(previous, current map[string]string) []rename {
	if previous == nil {
		return nil
	}
	currentPathByID := make(map[string]string, len(current))
	for path, id := range current {
		currentPathByID[id] = path
	}
	var out []rename
	for path, id := range previous {
		newPath, stillExists := currentPathByID[id]
		if stillExists && newPath != path {
			out = append(out, rename{oldPath: path, newPath: newPath})
		}
	}
	return out
}

// cascadeRename rewrites every [[OldBasename...]] wikilink across all
// loaded content documents to use the new basename, in a transaction tagged
// "link-indexer" per doc, preserving alias and anchor.
func (ix *Indexer) cascadeRename(oldPath, newPath string) {
	oldBase := stripExt(basename(oldPath))
	newBase := stripExt(basename(newPath))
	if oldBase == newBase {
		return
	}

	ix.docs.Range(func(docID string, h *store.Handle) bool {
		if h.Kind != store.KindContent {
			return true
		}
		if ix.rewriteDocLinks(docID, h, oldBase, newBase) && ix.search != nil {
			ix.search.UpdateInline(docID)
			ix.search.ClearPending(docID)
		}
		return true
	})
}

// rewriteDocLinks rewrites matching links inside one document and reports
// whether any rewrite happened. Offsets are processed in reverse so earlier
// edits don't invalidate later ones' byte offsets.
func (ix *Indexer) rewriteDocLinks(docID string, h *store.Handle, oldBase, newBase string) bool {
	text := h.Doc.Text(contentsContainer).String()
	links := ExtractLinks(text)

	var toRewrite []Link
	for _, l := range links {
		if strings.EqualFold(l.Name, oldBase) {
			toRewrite = append(toRewrite, l)
		}
	}
	if len(toRewrite) == 0 {
		return false
	}

	h.Doc.Transact(originTag, func(txn *crdtdoc.Txn) {
		t := txn.Text(contentsContainer)
		for i := len(toRewrite) - 1; i >= 0; i-- {
			l := toRewrite[i]
			replacement := "[[" + newBase + l.Anchor
			if l.Alias != "" {
				replacement += "|" + l.Alias
			}
			replacement += "]]"
			t.RemoveRange(l.Start, l.End-l.Start)
			t.InsertAt(l.Start, replacement)
		}
	})
	return true
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
