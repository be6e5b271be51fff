// Package cmd implements the command-line interface for the kvs embedded
// key-value store. It provides a hierarchical command structure with
// operations for working with a store on the local filesystem.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, rm, info, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvs -help for a list of all commands.
package cmd
