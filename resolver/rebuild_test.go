package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/store"
)

const relayUUID = "11111111-1111-1111-1111-111111111111"

// fakeDocsView is a minimal in-memory store.DocsView for resolver tests.
type fakeDocsView struct {
	handles map[string]*store.Handle
}

func newFakeDocsView() *fakeDocsView { return &fakeDocsView{handles: make(map[string]*store.Handle)} }

func (f *fakeDocsView) Get(docID string) (*store.Handle, bool) {
	h, ok := f.handles[docID]
	return h, ok
}

func (f *fakeDocsView) Range(fn func(docID string, h *store.Handle) bool) {
	for id, h := range f.handles {
		if !fn(id, h) {
			return
		}
	}
}

func (f *fakeDocsView) addFolder(docID string, entries map[string]string) {
	d := crdtdoc.New()
	d.Transact("test", func(txn *crdtdoc.Txn) {
		m := txn.Map("filemeta_v0")
		for path, uuid := range entries {
			m.Set(path, map[string]any{"id": uuid, "type": "content", "version": int64(1)})
		}
	})
	f.handles[docID] = &store.Handle{DocID: docID, Kind: store.KindFolder, Doc: d}
}

func testConfig() *cmn.Config {
	return &cmn.Config{RelayUUID: relayUUID, FolderNames: []string{"Notes", "Projects"}}
}

func TestRebuildAssignsDeterministicFolderIndex(t *testing.T) {
	docs := newFakeDocsView()
	folderA := store.MakeDocID(relayUUID, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	folderB := store.MakeDocID(relayUUID, "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	docs.addFolder(folderB, map[string]string{"Second.md": "22222222-2222-2222-2222-222222222222"})
	docs.addFolder(folderA, map[string]string{"First.md": "11111111-2222-3333-4444-555555555555"})

	r := New(testConfig())
	r.Rebuild(docs)

	// folderA sorts first lexicographically -> folder index 0 -> "Notes".
	entry, ok := r.Resolve("Notes/First.md")
	require.True(t, ok)
	assert.Equal(t, 0, entry.FolderIndex)

	entry, ok = r.Resolve("Projects/Second.md")
	require.True(t, ok)
	assert.Equal(t, 1, entry.FolderIndex)
}

func TestResolveBasenameFallbackIsDeterministic(t *testing.T) {
	docs := newFakeDocsView()
	folderA := store.MakeDocID(relayUUID, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	docs.addFolder(folderA, map[string]string{
		"Z/Duplicate.md": "11111111-2222-3333-4444-555555555555",
		"A/Duplicate.md": "66666666-7777-8888-9999-aaaaaaaaaaaa",
	})

	r := New(testConfig())
	r.Rebuild(docs)

	entry, ok := r.ResolveBasename("duplicate.md")
	require.True(t, ok)
	assert.Equal(t, "Notes/A/Duplicate.md", entry.FullPath)
}

func TestResolveBasenameUnknown(t *testing.T) {
	r := New(testConfig())
	r.Rebuild(newFakeDocsView())
	_, ok := r.ResolveBasename("nope.md")
	assert.False(t, ok)
}

func TestAllPathsSorted(t *testing.T) {
	docs := newFakeDocsView()
	folderA := store.MakeDocID(relayUUID, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	docs.addFolder(folderA, map[string]string{
		"Banana.md": "11111111-2222-3333-4444-555555555555",
		"Apple.md":  "66666666-7777-8888-9999-aaaaaaaaaaaa",
	})
	r := New(testConfig())
	r.Rebuild(docs)
	assert.Equal(t, []string{"Notes/Apple.md", "Notes/Banana.md"}, r.AllPaths())
}
