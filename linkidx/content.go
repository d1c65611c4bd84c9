package linkidx

import (
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

const contentsContainer = "contents"

// processContent implements spec.md §4.3 "Processing a content document":
// extract wikilinks, diff against the cached forward-link set, and append
// or remove backlinks in each target's owning folder document.
func (ix *Indexer) processContent(docID string, h *store.Handle) {
	relayUUID, sourceUUID, ok := store.SplitDocID(docID)
	_ = relayUUID
	if !ok {
		return
	}

	text := h.Doc.Text(contentsContainer).String()
	links := ExtractLinks(text)

	current := make(map[string]bool, len(links))
	for _, l := range links {
		entry, ok := ix.resolveLinkName(l.Name)
		if !ok {
			continue
		}
		current[entry.DocUUID] = true
	}

	ix.mu.Lock()
	previous := ix.prevLinks[docID]
	ix.prevLinks[docID] = current
	ix.mu.Unlock()

	for target := range current {
		if previous == nil || !previous[target] {
			ix.addBacklink(target, sourceUUID)
		}
	}
	for target := range previous {
		if !current[target] {
			ix.removeBacklink(target, sourceUUID)
		}
	}
}

// resolveLinkName implements spec.md §4.3's two-step resolution: exact path
// match first, then a case-insensitive basename fallback.
func (ix *Indexer) resolveLinkName(name string) (*resolver.Entry, bool) {
	if e, ok := ix.resolver.Resolve(name); ok {
		return e, true
	}
	if e, ok := ix.resolver.ResolveBasename(name); ok {
		return e, true
	}
	return nil, false
}

func (ix *Indexer) addBacklink(targetUUID, sourceUUID string) {
	folderDocID, ok := ix.folderDocIDFor(targetUUID)
	if !ok {
		return
	}
	folder, ok := ix.docs.Get(folderDocID)
	if !ok {
		return
	}
	folder.Doc.Transact(originTag, func(txn *crdtdoc.Txn) {
		bl := txn.Map(backlinksContainer)
		list := readBacklinkList(bl, targetUUID)
		for _, s := range list {
			if s == sourceUUID {
				return
			}
		}
		bl.Set(targetUUID, append(list, sourceUUID))
	})
}

func (ix *Indexer) removeBacklink(targetUUID, sourceUUID string) {
	folderDocID, ok := ix.folderDocIDFor(targetUUID)
	if !ok {
		return
	}
	folder, ok := ix.docs.Get(folderDocID)
	if !ok {
		return
	}
	folder.Doc.Transact(originTag, func(txn *crdtdoc.Txn) {
		bl := txn.Map(backlinksContainer)
		list := readBacklinkList(bl, targetUUID)
		out := list[:0:0]
		for _, s := range list {
			if s != sourceUUID {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			bl.Delete(targetUUID)
		} else {
			bl.Set(targetUUID, out)
		}
	})
}

// folderDocIDFor finds the folder document that owns targetUUID's
// filemeta entry by reverse-resolving its path through the resolver.
func (ix *Indexer) folderDocIDFor(docUUID string) (string, bool) {
	path, ok := ix.resolver.PathFor(docUUID)
	if !ok {
		return "", false
	}
	entry, ok := ix.resolver.Resolve(path)
	if !ok {
		return "", false
	}
	return entry.FolderDocID, true
}
