package editengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/mcpsession"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

const relayUUID = "11111111-1111-1111-1111-111111111111"
const docUUID = "22222222-2222-2222-2222-222222222222"

type fakeDocs struct{ h *store.Handle }

func (f *fakeDocs) GetOrLoad(_ context.Context, docID string) (*store.Handle, error) {
	if f.h.DocID != docID {
		return nil, cmn.NewErrDocumentNotFound(docID)
	}
	return f.h, nil
}

func newTestFixture(t *testing.T, body string) (*resolver.Resolver, *fakeDocs, string) {
	t.Helper()
	docID := store.MakeDocID(relayUUID, docUUID)
	doc := crdtdoc.New()
	doc.Transact("test", func(txn *crdtdoc.Txn) {
		txn.Text("contents").InsertAt(0, body)
	})
	h := &store.Handle{DocID: docID, Kind: store.KindContent, Doc: doc}

	folderID := store.MakeDocID(relayUUID, "33333333-3333-3333-3333-333333333333")
	folderDoc := crdtdoc.New()
	folderDoc.Transact("test", func(txn *crdtdoc.Txn) {
		txn.Map("filemeta_v0").Set("Page.md", map[string]any{"id": docUUID, "type": "content", "version": int64(1)})
	})
	folderHandle := &store.Handle{DocID: folderID, Kind: store.KindFolder, Doc: folderDoc}

	docs := &fakeDocs{h: h}
	fakeView := &rebuildView{folders: map[string]*store.Handle{folderID: folderHandle}}

	res := resolver.New(&cmn.Config{RelayUUID: relayUUID, FolderNames: []string{"Notes"}})
	res.Rebuild(fakeView)

	return res, docs, docID
}

// rebuildView is the minimal store.DocsView needed to drive resolver.Rebuild
// in this package's tests without depending on the store package's Store.
type rebuildView struct{ folders map[string]*store.Handle }

func (v *rebuildView) Get(docID string) (*store.Handle, bool) { h, ok := v.folders[docID]; return h, ok }
func (v *rebuildView) Range(fn func(docID string, h *store.Handle) bool) {
	for id, h := range v.folders {
		if !fn(id, h) {
			return
		}
	}
}

func TestEditRequiresPriorRead(t *testing.T) {
	res, docs, _ := newTestFixture(t, "hello world")
	sessions := mcpsession.New(time.Hour)
	sess := sessions.Create("2024-11-05", mcpsession.ClientInfo{})

	_, err := Edit(context.Background(), sess, docs, res, "Notes/Page.md", "hello", "goodbye")
	require.Error(t, err)
	assert.True(t, cmn.IsKind(err, cmn.KindReadBeforeEdit))
}

func TestEditSuccess(t *testing.T) {
	res, docs, docID := newTestFixture(t, "hello world")
	sessions := mcpsession.New(time.Hour)
	sess := sessions.Create("2024-11-05", mcpsession.ClientInfo{})
	sess.MarkRead(docID)

	result, err := Edit(context.Background(), sess, docs, res, "Notes/Page.md", "hello", "goodbye")
	require.NoError(t, err)
	assert.Equal(t, docID, result.DocID)
	assert.Equal(t, "Notes/Page.md", result.Path)

	got := docs.h.Doc.Text("contents").String()
	assert.Contains(t, got, "{--hello--}{++goodbye++}")
}

func TestEditOldStringNotFound(t *testing.T) {
	res, docs, docID := newTestFixture(t, "hello world")
	sessions := mcpsession.New(time.Hour)
	sess := sessions.Create("2024-11-05", mcpsession.ClientInfo{})
	sess.MarkRead(docID)

	_, err := Edit(context.Background(), sess, docs, res, "Notes/Page.md", "nope", "x")
	require.Error(t, err)
	assert.True(t, cmn.IsKind(err, cmn.KindOldStringNotFound))
}

func TestEditOldStringNotUnique(t *testing.T) {
	res, docs, docID := newTestFixture(t, "echo echo")
	sessions := mcpsession.New(time.Hour)
	sess := sessions.Create("2024-11-05", mcpsession.ClientInfo{})
	sess.MarkRead(docID)

	_, err := Edit(context.Background(), sess, docs, res, "Notes/Page.md", "echo", "x")
	require.Error(t, err)
	assert.True(t, cmn.IsKind(err, cmn.KindOldStringNotUnique))
}

func TestUniqueOffset(t *testing.T) {
	off, err := uniqueOffset("abc def", "def", "p")
	require.NoError(t, err)
	assert.Equal(t, 4, off)
}

func TestComposeSuggestion(t *testing.T) {
	assert.Equal(t, "{--old--}{++new++}", composeSuggestion("old", "new"))
	assert.Equal(t, "{++new++}", composeSuggestion("", "new"))
	assert.Equal(t, "{--old--}", composeSuggestion("old", ""))
}
