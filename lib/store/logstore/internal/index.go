package internal

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Index maps each live key to the byte offset of its most recent Set record
// in the current log file. It is a pure in-memory mapping and performs no
// I/O. An entry exists if and only if the key's most recent applied record
// is a Set; Remove drops the entry immediately.
type Index struct {
	entries *xsync.MapOf[string, uint64]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: xsync.NewMapOf[string, uint64](),
	}
}

// Lookup returns the offset stored for key, if any.
func (idx *Index) Lookup(key string) (uint64, bool) {
	return idx.entries.Load(key)
}

// Insert stores the offset for key, overwriting any prior offset.
func (idx *Index) Insert(key string, offset uint64) {
	idx.entries.Store(key, offset)
}

// Remove deletes the entry for key and reports whether it was present.
func (idx *Index) Remove(key string) bool {
	_, ok := idx.entries.LoadAndDelete(key)
	return ok
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	return idx.entries.Size()
}

// Entries returns a snapshot of all (key, offset) pairs. Iteration order is
// unconstrained.
func (idx *Index) Entries() map[string]uint64 {
	snapshot := make(map[string]uint64, idx.entries.Size())
	idx.entries.Range(func(key string, offset uint64) bool {
		snapshot[key] = offset
		return true
	})
	return snapshot
}

// Reset replaces the whole mapping. It is used after compaction rewrites
// the log, when every stored offset becomes stale at once.
func (idx *Index) Reset(entries map[string]uint64) {
	fresh := xsync.NewMapOf[string, uint64]()
	for key, offset := range entries {
		fresh.Store(key, offset)
	}
	idx.entries = fresh
}
