package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/store"
	"github.com/lens-academy/relay/webhook"
)

type countingEnqueuer struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingEnqueuer) Enqueue(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, docID)
}

func (c *countingEnqueuer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// noopBlobStore satisfies blob.Store without touching any real backend,
// enough to construct a *store.Store/*store.PersistWorker for this test.
type noopBlobStore struct{}

func (noopBlobStore) GetSnapshot(context.Context, string) ([]byte, error) { return nil, nil }
func (noopBlobStore) AppendLog(context.Context, string, []byte) error     { return nil }
func (noopBlobStore) ListLog(context.Context, string) ([][]byte, error)   { return nil, nil }
func (noopBlobStore) PutSnapshot(context.Context, string, []byte) error   { return nil }
func (noopBlobStore) PresignGet(context.Context, string) (string, error) { return "", nil }
func (noopBlobStore) PresignPut(context.Context, string) (string, error) { return "", nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *countingEnqueuer, *countingEnqueuer) {
	t.Helper()
	cfg := &cmn.Config{RelayUUID: "11111111-1111-1111-1111-111111111111", FolderNames: []string{"Notes"}, DirtyChannelCapacity: 16}
	docsStore := store.New(cfg, noopBlobStore{}, nil)
	persist := store.NewPersistWorker(docsStore, noopBlobStore{}, cfg)
	linkIdx := &countingEnqueuer{}
	searchIdx := &countingEnqueuer{}
	wh := webhook.New(cfg) // no WebhookURL configured -> disabled
	return New(persist, linkIdx, searchIdx, wh), linkIdx, searchIdx
}

func TestOnMutationEnqueuesBothIndexersForRemoteOrigin(t *testing.T) {
	disp, linkIdx, searchIdx := newTestDispatcher(t)
	doc := crdtdoc.New()
	h := &store.Handle{DocID: "doc-1", Kind: store.KindContent, Doc: doc}

	observer := disp.ObserverFactory("doc-1", h)
	observer("", []byte("update"))

	assert.Equal(t, 1, linkIdx.count())
	assert.Equal(t, 1, searchIdx.count())
}

func TestOnMutationSuppressesIndexersForIndexerOrigin(t *testing.T) {
	disp, linkIdx, searchIdx := newTestDispatcher(t)
	doc := crdtdoc.New()
	h := &store.Handle{DocID: "doc-1", Kind: store.KindContent, Doc: doc}

	observer := disp.ObserverFactory("doc-1", h)
	observer("link-indexer", []byte("update"))

	assert.Equal(t, 0, linkIdx.count())
	assert.Equal(t, 0, searchIdx.count())
}

func TestOriginLabelBoundedSet(t *testing.T) {
	assert.Equal(t, "remote", originLabel(""))
	assert.Equal(t, "link-indexer", originLabel("link-indexer"))
	assert.Equal(t, "search-indexer", originLabel("search-indexer"))
	assert.Equal(t, "other", originLabel("some-client-chosen-string"))
}
