// Package blob provides the object-storage seam for document persistence:
// an append-log + compacted-snapshot key layout over an S3-compatible
// backend (spec.md §4.1, §6), with a local filesystem implementation used
// in development and tests.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package blob

import (
	"context"
	"fmt"
)

// Store is the persistence contract the document store depends on. A
// document's durable state is the snapshot plus every log segment appended
// after it, replayed in order.
type Store interface {
	// GetSnapshot returns the latest compacted snapshot for docID, or
	// (nil, nil) if none exists yet.
	GetSnapshot(ctx context.Context, docID string) ([]byte, error)
	// AppendLog appends one update to docID's log; compaction later folds
	// these into a fresh snapshot.
	AppendLog(ctx context.Context, docID string, update []byte) error
	// ListLog returns log segments appended after the snapshot, oldest first.
	ListLog(ctx context.Context, docID string) ([][]byte, error)
	// PutSnapshot writes a compacted snapshot and clears prior log segments.
	PutSnapshot(ctx context.Context, docID string, snapshot []byte) error
	// PresignGet/PresignPut mint short-lived URLs for client-assisted
	// transfer of the snapshot object (spec.md §6 "Uses presigned URLs").
	PresignGet(ctx context.Context, docID string) (string, error)
	PresignPut(ctx context.Context, docID string) (string, error)
}

func logKey(docID string) string      { return fmt.Sprintf("docs/%s/log", docID) }
func snapshotKey(docID string) string { return fmt.Sprintf("docs/%s/snapshot", docID) }
