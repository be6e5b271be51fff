// Package store provides a high-level interface for key-value storage
// operations with unified error handling. It defines the contract implemented
// by the persistent log-structured store and consumed by the command-line
// layer and the reusable test suites.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations
//   - A structured error system with typed return codes
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for
//     interacting with a key-value store. All implementations share this
//     common interface, allowing applications to switch between different
//     storage backends without code changes. The interface methods return
//     custom Error types that provide detailed information about operation
//     results.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes (RetCode) and descriptive messages. Callers discriminate
//     conditions such as a Remove on a missing key (RetCKeyNotFound) or a
//     corrupted log (RetCCorruptRecord) with errors.As or the HasCode helper
//     rather than string matching.
//
// Implementations:
//
//	The repository contains one implementation of the IStore interface:
//
//	- Log Store (logstore): A persistent, single-owner implementation backed
//	  by an append-only command log with an in-memory offset index and
//	  automatic compaction. Available in the
//	  "github.com/kavirajk/kvs/lib/store/logstore" package.
package store
