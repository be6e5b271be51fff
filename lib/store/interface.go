package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a key–value store.
// All write operations return only an error (nil on success),
// while read operations return the requested data along with an error (nil on success).
type IStore interface {
	// Set inserts or updates a key–value pair.
	Set(key string, value []byte) (err error)
	// Get returns the value for a key. The boolean return value indicates
	// whether a value for the key was found. A missing key is a normal
	// empty result, not an error.
	Get(key string) (value []byte, loaded bool, err error)
	// Remove deletes a key–value pair. Removing a key that does not exist
	// fails with RetCKeyNotFound; the store is left unchanged.
	Remove(key string) (err error)
	// GetStoreInfo returns metadata about the store.
	// It is not guaranteed that all fields are filled in by every implementation.
	GetStoreInfo() (info StoreInfo, err error)
	// Close releases the store.
	Close() (err error)
}

// StoreInfo describes the current state of a store.
type StoreInfo struct {
	Path                     string `json:"path"`
	Keys                     int    `json:"keys"`
	LogSizeBytes             uint64 `json:"log_size_bytes"`
	CompactionThresholdBytes uint64 `json:"compaction_threshold_bytes"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new Error with the given code and a formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// HasCode reports whether err is (or wraps) an *Error carrying the given code.
func HasCode(err error, code RetCode) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Code == code
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess            RetCode = iota // 0: Command executed successfully.
	RetCIOError                           // 1: Filesystem failure opening/reading/writing/renaming the log.
	RetCEncodeError                       // 2: A record could not be encoded.
	RetCCorruptRecord                     // 3: Bytes in the log are not a valid record encoding.
	RetCOffsetNotFound                    // 4: The index points past the end of the log.
	RetCKeyNotFound                       // 5: Remove was called for a key that does not exist.
	RetCInvariantViolation                // 6: An indexed offset holds something other than a Set record.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCIOError:
		return "IOError"
	case RetCEncodeError:
		return "EncodeError"
	case RetCCorruptRecord:
		return "CorruptRecord"
	case RetCOffsetNotFound:
		return "OffsetNotFound"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCInvariantViolation:
		return "InvariantViolation"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}
