package linkidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

const testRelayUUID = "11111111-1111-1111-1111-111111111111"

type fakeSearch struct{ updated, cleared []string }

func (f *fakeSearch) UpdateInline(docID string) { f.updated = append(f.updated, docID) }
func (f *fakeSearch) ClearPending(docID string) { f.cleared = append(f.cleared, docID) }

type fakeDocsView struct{ handles map[string]*store.Handle }

func (v *fakeDocsView) Get(docID string) (*store.Handle, bool) { h, ok := v.handles[docID]; return h, ok }
func (v *fakeDocsView) Range(fn func(docID string, h *store.Handle) bool) {
	for id, h := range v.handles {
		if !fn(id, h) {
			return
		}
	}
}

func newFixture(t *testing.T) (*Indexer, *fakeDocsView, *resolver.Resolver, string, string, string) {
	t.Helper()
	folderDocID := store.MakeDocID(testRelayUUID, "33333333-3333-3333-3333-333333333333")
	targetUUID := "22222222-2222-2222-2222-222222222222"
	sourceUUID := "44444444-4444-4444-4444-444444444444"
	sourceDocID := store.MakeDocID(testRelayUUID, sourceUUID)

	folderDoc := crdtdoc.New()
	folderDoc.Transact("test", func(txn *crdtdoc.Txn) {
		m := txn.Map("filemeta_v0")
		m.Set("Target.md", map[string]any{"id": targetUUID, "type": "content", "version": int64(1)})
		m.Set("Source.md", map[string]any{"id": sourceUUID, "type": "content", "version": int64(1)})
	})
	folderHandle := &store.Handle{DocID: folderDocID, Kind: store.KindFolder, Doc: folderDoc}

	sourceDoc := crdtdoc.New()
	sourceHandle := &store.Handle{DocID: sourceDocID, Kind: store.KindContent, Doc: sourceDoc}

	docs := &fakeDocsView{handles: map[string]*store.Handle{folderDocID: folderHandle, sourceDocID: sourceHandle}}
	res := resolver.New(&cmn.Config{RelayUUID: testRelayUUID, FolderNames: []string{"Notes"}})
	res.Rebuild(docs)

	ix := New(&cmn.Config{LinkIndexerDebounceMS: 1, IndexerChannelCapacity: 8}, docs, res, &fakeSearch{})
	return ix, docs, res, folderDocID, sourceDocID, targetUUID
}

func TestProcessContentAddsBacklink(t *testing.T) {
	ix, docs, _, folderDocID, sourceDocID, targetUUID := newFixture(t)
	h, _ := docs.Get(sourceDocID)
	h.Doc.Transact("test", func(txn *crdtdoc.Txn) { txn.Text(contentsContainer).InsertAt(0, "see [[Notes/Target.md]]") })

	ix.processContent(sourceDocID, h)

	_, sourceUUID, _ := store.SplitDocID(sourceDocID)
	folder, _ := docs.Get(folderDocID)
	v, ok := folder.Doc.Map(backlinksContainer).Get(targetUUID)
	require.True(t, ok)
	list := v.([]string)
	assert.Contains(t, list, sourceUUID)
}

func TestProcessContentRemovesStaleBacklink(t *testing.T) {
	ix, docs, _, folderDocID, sourceDocID, targetUUID := newFixture(t)
	h, _ := docs.Get(sourceDocID)

	h.Doc.Transact("test", func(txn *crdtdoc.Txn) { txn.Text(contentsContainer).InsertAt(0, "see [[Notes/Target.md]]") })
	ix.processContent(sourceDocID, h)

	// Edit the source to drop the link entirely.
	h.Doc.Transact("test", func(txn *crdtdoc.Txn) {
		t := txn.Text(contentsContainer)
		t.RemoveRange(0, len(t.String()))
		t.InsertAt(0, "no more links")
	})
	ix.processContent(sourceDocID, h)

	folder, _ := docs.Get(folderDocID)
	_, ok := folder.Doc.Map(backlinksContainer).Get(targetUUID)
	assert.False(t, ok)
}
