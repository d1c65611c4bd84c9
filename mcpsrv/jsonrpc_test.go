package mcpsrv

import (
	"context"
	"encoding/json"
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

const testRelayUUID = "11111111-1111-1111-1111-111111111111"
const testDocUUID = "22222222-2222-2222-2222-222222222222"
const testFolderUUID = "33333333-3333-3333-3333-333333333333"

type fakeDocs struct{ handles map[string]*store.Handle }

func (f *fakeDocs) GetOrLoad(_ context.Context, docID string) (*store.Handle, error) {
	h, ok := f.handles[docID]
	if !ok {
		return nil, cmn.NewErrDocumentNotFound(docID)
	}
	return h, nil
}

type fixtureView struct{ handles map[string]*store.Handle }

func (v *fixtureView) Get(docID string) (*store.Handle, bool) { h, ok := v.handles[docID]; return h, ok }
func (v *fixtureView) Range(fn func(docID string, h *store.Handle) bool) {
	for id, h := range v.handles {
		if !fn(id, h) {
			return
		}
	}
}

func newFixtureServer(t *testing.T, body string) (*Server, *fakeDocs) {
	t.Helper()
	docID := store.MakeDocID(testRelayUUID, testDocUUID)
	doc := crdtdoc.New()
	doc.Transact("test", func(txn *crdtdoc.Txn) { txn.Text("contents").InsertAt(0, body) })
	docHandle := &store.Handle{DocID: docID, Kind: store.KindContent, Doc: doc}

	folderID := store.MakeDocID(testRelayUUID, testFolderUUID)
	folderDoc := crdtdoc.New()
	folderDoc.Transact("test", func(txn *crdtdoc.Txn) {
		txn.Map("filemeta_v0").Set("Page.md", map[string]any{"id": testDocUUID, "type": "content", "version": int64(1)})
	})
	folderHandle := &store.Handle{DocID: folderID, Kind: store.KindFolder, Doc: folderDoc}

	docs := &fakeDocs{handles: map[string]*store.Handle{docID: docHandle, folderID: folderHandle}}
	res := resolver.New(&cmn.Config{RelayUUID: testRelayUUID, FolderNames: []string{"Notes"}})
	res.Rebuild(&fixtureView{handles: map[string]*store.Handle{folderID: folderHandle}})

	sessions := mcpsession.New(time.Hour)
	return New(docs, res, sessions), docs
}

func TestHandleInitializeMintsSession(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	resp := srv.Handle(context.Background(), &Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	res := resp.Result.(initializeResult)
	assert.NotEmpty(t, res.SessionID)
}

func TestHandleNotificationReturnsNoResponse(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	resp := srv.Handle(context.Background(), &Request{JSONRPC: "2.0", Method: "notifications/initialized"})
	assert.Nil(t, resp)
}

func TestHandleUnknownMethodIsProtocolError(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	resp := srv.Handle(context.Background(), &Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "bogus"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestToolsListReturnsDescriptors(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	resp := srv.Handle(context.Background(), &Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "tools/list"})
	require.NotNil(t, resp)
	result := resp.Result.(map[string]any)
	assert.Equal(t, toolDescriptors, result["tools"])
}

func TestToolsCallReadMarksSessionReadDocs(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello world")
	sessionID := mustInitSession(t, srv)
	ctx := WithSessionID(context.Background(), sessionID)

	args, _ := jsonAPI.Marshal(readArgs{FilePath: "Notes/Page.md"})
	resp := srv.Handle(ctx, &Request{
		JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "tools/call",
		Params: mustMarshal(t, toolCallParams{Name: "read", Arguments: args}),
	})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result := resp.Result.(*CallToolResult)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "hello world")

	sess, ok := srv.sessions.Get(sessionID)
	require.True(t, ok)
	assert.True(t, sess.HasRead(store.MakeDocID(testRelayUUID, testDocUUID)))
}

func TestToolsCallUnknownToolIsProtocolError(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	resp := srv.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "tools/call",
		Params: mustMarshal(t, toolCallParams{Name: "nonexistent"}),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestToolsCallGlobFindsPath(t *testing.T) {
	srv, _ := newFixtureServer(t, "hello")
	args, _ := jsonAPI.Marshal(globArgs{Pattern: "*.md"})
	resp := srv.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "tools/call",
		Params: mustMarshal(t, toolCallParams{Name: "glob", Arguments: args}),
	})
	result := resp.Result.(*CallToolResult)
	assert.Contains(t, result.Content[0].Text, "Notes/Page.md")
}

func mustInitSession(t *testing.T, srv *Server) string {
	t.Helper()
	resp := srv.Handle(context.Background(), &Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize"})
	return resp.Result.(initializeResult).SessionID
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := jsonAPI.Marshal(v)
	require.NoError(t, err)
	return b
}
