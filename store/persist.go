package store

import (
	"context"
	"time"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
)

// blobPersister is the narrow slice of blob.Store the persistence worker
// needs; keeping it narrow makes the worker trivially testable with a fake.
type blobPersister interface {
	AppendLog(ctx context.Context, docID string, update []byte) error
	PutSnapshot(ctx context.Context, docID string, snapshot []byte) error
}

// PersistWorker flushes queued update bytes to blob storage and compacts
// each document's append log into a fresh snapshot on a schedule. Dirty
// signalling uses a capacity-bounded channel; on overflow the signal is
// dropped because the worker already has a pending wakeup and the next
// pass serializes full state (spec.md §4.1, §7 "ChannelFull (dirty)").
type PersistWorker struct {
	store *Store
	blobs blobPersister

	dirty chan string
	stop  chan struct{}

	compactEvery time.Duration
	sinceCompact map[string]int

	log *nlog.Tagged
}

// NewPersistWorker builds a worker whose dirty channel has the configured
// capacity (spec.md §6 "dirty_channel_capacity").
func NewPersistWorker(store *Store, blobs blobPersister, cfg *cmn.Config) *PersistWorker {
	return &PersistWorker{
		store:        store,
		blobs:        blobs,
		dirty:        make(chan string, cfg.DirtyChannelCapacity),
		stop:         make(chan struct{}),
		compactEvery: 64, // compact once this many updates were appended since the last snapshot, see flush
		sinceCompact: make(map[string]int),
		log:          nlog.Component("persist"),
	}
}

// Signal enqueues docID for a flush pass. Never blocks: on a full channel
// the signal is dropped, which is safe because a pending wakeup already
// exists and will serialize the document's full current state.
func (w *PersistWorker) Signal(docID string) {
	select {
	case w.dirty <- docID:
	default:
	}
}

// Run drives the worker until Stop is called. Intended to run on its own
// goroutine; all blob I/O happens here, never inside a CRDT transaction or
// observer callback.
func (w *PersistWorker) Run(ctx context.Context) {
	for {
		select {
		case docID := <-w.dirty:
			w.flush(ctx, docID)
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *PersistWorker) Stop() { close(w.stop) }

func (w *PersistWorker) flush(ctx context.Context, docID string) {
	h, ok := w.store.Get(docID)
	if !ok {
		return
	}
	updates := h.drainPending()
	for _, u := range updates {
		if err := w.blobs.AppendLog(ctx, docID, u); err != nil {
			// PersistenceFailure: logged, operation returns; CRDT state stays
			// intact in memory and the next flush serializes full state.
			w.log.Errorln("append-log failed for", docID, ":", err.Error())
			return
		}
	}
	if len(updates) == 0 {
		return
	}
	w.sinceCompact[docID] += len(updates)
	if int64(w.sinceCompact[docID]) >= int64(w.compactEvery) {
		w.compact(ctx, docID, h)
	}
}

func (w *PersistWorker) compact(ctx context.Context, docID string, h *Handle) {
	snapshot := h.Doc.EncodeStateAsUpdate()
	if err := w.blobs.PutSnapshot(ctx, docID, snapshot); err != nil {
		w.log.Errorln("compaction failed for", docID, ":", err.Error())
		return
	}
	w.sinceCompact[docID] = 0
}

// CompactAll forces an immediate compaction pass over every loaded
// document; used at shutdown and by the CLI's maintenance commands.
func (w *PersistWorker) CompactAll(ctx context.Context) {
	w.store.ForEach(func(docID string, h *Handle) bool {
		w.compact(ctx, docID, h)
		return true
	})
}
