package crdtdoc

import rdoc "github.com/gpestana/rdoc"

// Text wraps the library's replicated sequence type for a single named
// root container. Offsets are UTF-8 byte offsets throughout, matching both
// the edit engine's substring search and rdoc's own indexing (spec.md
// §4.8 "Offset kind").
type Text struct {
	doc   *Doc
	name  string
	inner *rdoc.Text
}

// String returns a point-in-time snapshot of the text content. Safe to call
// without holding any external lock: the read lock is acquired internally.
func (t *Text) String() string {
	t.doc.mu.RLock()
	defer t.doc.mu.RUnlock()
	return t.inner.Value()
}

// InsertAt inserts s at the given UTF-8 byte offset. Must be called from
// inside a Transact callback (via Txn.Text) so the resulting mutation is
// attributed the transaction's origin.
func (t *Text) insertAt(offset int, s string) { t.inner.InsertAt(offset, s) }

// RemoveRange deletes length bytes starting at offset.
func (t *Text) removeRange(offset, length int) { t.inner.DeleteAt(offset, length) }

// Text returns the transaction-scoped handle for the named text container,
// so insert/delete calls made through it are tagged with txn.origin. Uses
// textLocked because the caller already holds doc.mu for the transaction.
func (txn *Txn) Text(name string) *TxnText {
	return &TxnText{t: txn.doc.textLocked(name)}
}

// TxnText is a Text container accessed from within a transaction.
type TxnText struct{ t *Text }

func (tt *TxnText) String() string                { return tt.t.inner.Value() }
func (tt *TxnText) InsertAt(offset int, s string)  { tt.t.insertAt(offset, s) }
func (tt *TxnText) RemoveRange(offset, length int) { tt.t.removeRange(offset, length) }
