// Package editengine implements the MCP "edit" tool's read-verify-write
// contract (spec.md §4.8, component C8): a session must have read a
// document before editing it, the old string must match exactly once, and
// the replacement is recorded as a CriticMarkup suggestion rather than a
// silent overwrite, with a second verification pass immediately before the
// write to catch a concurrent edit that landed between read and write.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package editengine

import (
	"context"
	"strings"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/mcpsession"
	"github.com/lens-academy/relay/metrics"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

// originTag is deliberately "link-indexer": spec.md §4.8 step 6 tags the
// edit-engine's write transaction this way so the mutation dispatcher
// recognizes it as a tool-origin mutation and does not re-trigger link or
// search indexing for it. Persistence still happens regardless of origin.
const originTag = "link-indexer"

const contentsContainer = "contents"

// Result describes a successful edit for the MCP tool response.
type Result struct {
	DocID      string
	Path       string
	ReplacedAt int
}

// Docs is the narrow slice of the document store the edit engine needs.
type Docs interface {
	GetOrLoad(ctx context.Context, docID string) (*store.Handle, error)
}

// Edit implements the seven-step contract:
//  1. resolve path to a doc_id
//  2. require the session to have read this document already
//  3. read-phase snapshot (outside any write lock)
//  4. exact, unique substring match of oldString
//  5. compose the CriticMarkup suggestion text
//  6. write-phase: re-verify under the transaction before mutating
//  7. return a confirmation
func Edit(ctx context.Context, sess *mcpsession.Session, docs Docs, res *resolver.Resolver, path, oldString, newString string) (*Result, error) {
	entry, ok := res.Resolve(path)
	if !ok {
		return nil, cmn.NewErrDocumentNotFound(path)
	}
	docID := store.MakeDocID(entry.RelayUUID, entry.DocUUID)

	if !sess.HasRead(docID) {
		return nil, cmn.NewErrReadBeforeEdit()
	}

	h, err := docs.GetOrLoad(ctx, docID)
	if err != nil {
		return nil, err
	}

	snapshot := h.Doc.Text(contentsContainer).String()
	offset, err := uniqueOffset(snapshot, oldString, entry.FullPath)
	if err != nil {
		return nil, err
	}

	suggestion := composeSuggestion(oldString, newString)

	var writeErr error
	h.Doc.Transact(originTag, func(txn *crdtdoc.Txn) {
		t := txn.Text(contentsContainer)
		current := t.String()
		// TOCTOU re-check: the offset and surrounding text must be exactly
		// what the read phase saw, or a concurrent editor won the race.
		verifyOffset, verr := uniqueOffset(current, oldString, entry.FullPath)
		if verr != nil || verifyOffset != offset {
			metrics.EditConflictsTotal.Inc()
			writeErr = cmn.NewErrDocumentChanged()
			return
		}
		t.RemoveRange(offset, len(oldString))
		t.InsertAt(offset, suggestion)
	})
	if writeErr != nil {
		return nil, writeErr
	}

	return &Result{DocID: docID, Path: entry.FullPath, ReplacedAt: offset}, nil
}

// uniqueOffset returns the single byte offset at which old occurs in text,
// or a domain error if it's absent or ambiguous.
func uniqueOffset(text, old, path string) (int, error) {
	first := strings.Index(text, old)
	if first < 0 {
		return 0, cmn.NewErrOldStringNotFound()
	}
	if strings.Index(text[first+1:], old) >= 0 {
		count := strings.Count(text, old)
		return 0, cmn.NewErrOldStringNotUnique(path, count)
	}
	return first, nil
}

// composeSuggestion wraps the change in CriticMarkup delete+insert markup
// (spec.md §4.8 "Suggestion format") so the edit is reviewable rather than
// a silent overwrite.
func composeSuggestion(oldString, newString string) string {
	var b strings.Builder
	if oldString != "" {
		b.WriteString("{--")
		b.WriteString(oldString)
		b.WriteString("--}")
	}
	if newString != "" {
		b.WriteString("{++")
		b.WriteString(newString)
		b.WriteString("++}")
	}
	return b.String()
}
