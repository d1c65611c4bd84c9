package crdtdoc

import rdoc "github.com/gpestana/rdoc"

// Map wraps the library's replicated map type for a single named root
// container, e.g. "filemeta_v0" or "backlinks_v0".
type Map struct {
	doc   *Doc
	name  string
	inner *rdoc.Map
}

// Get returns the raw JSON-ish value stored at key, or nil if absent.
func (m *Map) Get(key string) (any, bool) {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return m.inner.Get(key)
}

// Range iterates a snapshot of the map's current entries; fn returning
// false stops iteration early.
func (m *Map) Range(fn func(key string, value any) bool) {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	m.inner.Range(fn)
}

func (m *Map) set(key string, value any) { m.inner.Set(key, value) }
func (m *Map) delete(key string)         { m.inner.Delete(key) }

// Map returns the transaction-scoped handle for the named map container.
// Uses mapLocked because the caller already holds doc.mu for the transaction.
func (txn *Txn) Map(name string) *TxnMap {
	return &TxnMap{m: txn.doc.mapLocked(name)}
}

// TxnMap is a Map container accessed from within a transaction.
type TxnMap struct{ m *Map }

func (tm *TxnMap) Get(key string) (any, bool)            { return tm.m.inner.Get(key) }
func (tm *TxnMap) Set(key string, value any)             { tm.m.set(key, value) }
func (tm *TxnMap) Delete(key string)                      { tm.m.delete(key) }
func (tm *TxnMap) Range(fn func(key string, value any) bool) { tm.m.inner.Range(fn) }
