// Package testing provides reusable test and benchmark suites for
// implementations of the store.IStore interface.
//
// The suites are driven through a StoreFactory so any implementation can be
// verified against the same behavioral contract: last-write-wins semantics,
// missing-key handling, Remove error reporting and durability across a
// close/reopen cycle. Implementation packages wire them up from their own
// _test.go files:
//
//	func Test(t *testing.T) {
//		storetesting.RunStoreTests(t, "LogStore", logstore.Open)
//	}
//
//	func Benchmark(b *testing.B) {
//		storetesting.RunStoreBenchmarks(b, "LogStore", logstore.Open)
//	}
package testing
