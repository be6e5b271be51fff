// Package internal provides the on-disk record format and the low-level
// building blocks of the logstore package: the command codec, the log file
// manager and the in-memory offset index.
//
// This package is intended for internal use by the logstore implementation
// and should not be imported directly by external code.
//
// The package consists of three components:
//
//   - Command Codec: Defines the two record kinds of the append-only log,
//     Set (key and value) and Remove (key only, a tombstone), together with
//     their binary serialization. Every field is length-prefixed, so the
//     encoding is self-delimiting and records can be decoded back-to-back
//     from a stream. Decoding additionally reports the exact number of bytes
//     consumed, which replay and compaction use for offset bookkeeping.
//
//   - Log: Owns the log file path. It appends encoded records (returning the
//     offset at which each record started), reads a single record at a given
//     offset, replays the whole file in write order and rewrites the file
//     during compaction with an atomic rename swap.
//
//   - Index: A pure in-memory map from key to the byte offset of that key's
//     most recent Set record. Offsets stored in the index always point at the
//     start of a Set record for that exact key in the current log file.
//
// Command Format:
//
//	+------+----------+-----------+------------+-------------+
//	| Type | KeyLen   | Key       | ValueLen   | Value       |
//	| 1 B  | 4 B (BE) | KeyLen B  | 4 B (BE)   | ValueLen B  |
//	+------+----------+-----------+------------+-------------+
//
//	The ValueLen and Value fields are present only for Set records; a Remove
//	record ends after its key.
package internal
