// Package logstore implements a persistent, single-owner key-value store
// based on the store.IStore interface. All mutations are appended to an
// on-disk command log; the current state is derived from an in-memory index
// that maps each live key to the byte offset of its most recent Set record.
//
// Key Features:
//   - Durable storage in a single append-only log file
//   - O(1) reads through the offset index, no log rescans after open
//   - Automatic compaction that bounds log growth
//   - Typed error reporting through the store error system
//
// Implementation Details:
//
//   - Write Path: Set and Remove append one encoded record to the log and
//     then update the index (Set stores the record's start offset, Remove
//     deletes the key's entry). Records are never edited in place; a Remove
//     is a tombstone that logically deletes the prior value.
//
//   - Read Path: Get looks the key up in the index and, if present, decodes
//     exactly one record at the stored offset. The record must be a Set for
//     that exact key; anything else is surfaced as an invariant violation
//     rather than repaired silently.
//
//   - Open: The index is rebuilt by replaying the whole log once in write
//     order. During normal operation the index is authoritative and the log
//     is only read at indexed offsets.
//
//   - Compaction: At the start of every Set the log size is compared against
//     a fixed threshold. When exceeded, a fresh log holding exactly one Set
//     record per live key is written next to the old file and swapped in
//     with an atomic rename, after which the index offsets are replaced
//     wholesale. A failed compaction leaves the old log and index untouched.
//
// Ownership:
//
//	The store is synchronous and single-owner: no operation may be invoked
//	concurrently with another on the same instance, and no file locking is
//	performed against other processes opening the same path. Each operation
//	opens its own file handle and releases it on return.
//
// Usage Example:
//
//	// Open (or create) a store; a directory path selects kv.log inside it
//	s, err := logstore.Open("/var/lib/kvs")
//
//	// Store and retrieve a value
//	err = s.Set("session:123", sessionData)
//	value, exists, err := s.Get("session:123")
//
//	// Remove fails with RetCKeyNotFound if the key is absent
//	err = s.Remove("session:123")
package logstore
