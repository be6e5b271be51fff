package internal

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kavirajk/kvs/lib/store"
)

// CommandType defines the possible operations recorded in the log.
type CommandType uint8

const (
	CommandTSet    CommandType = iota // Insert or update an entry.
	CommandTRemove                    // Tombstone: delete an entry.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTSet:
		return "Set"
	case CommandTRemove:
		return "Remove"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(ct))
	}
}

// Limits on field sizes, enforced on both sides of the codec. Encoding
// rejects oversized fields before they reach the log (an oversized record on
// disk would poison every later replay); a length prefix above these bounds
// on decode can only come from a corrupted log, so decoding rejects it
// instead of allocating.
const (
	MaxKeyBytes   = 1 << 20 // 1 MiB
	MaxValueBytes = 1 << 30 // 1 GiB
)

const (
	headerSize   = 1 + 4 // Type + KeyLen
	valueLenSize = 4
)

// Command represents a single entry in the append-only log.
// Remove commands carry no value.
type Command struct {
	Type  CommandType
	Key   string
	Value []byte
}

// Validate checks that the command's fields fit the codec's size limits.
// It must pass before Serialize is called: both lengths are written as
// uint32 prefixes that ReadCommand refuses above MaxKeyBytes/MaxValueBytes,
// so an unchecked oversized field would produce a record that can never be
// decoded again.
func (command *Command) Validate() error {
	if len(command.Key) > MaxKeyBytes {
		return store.NewErrorf(store.RetCEncodeError, "key length %d exceeds maximum %d", len(command.Key), MaxKeyBytes)
	}
	if len(command.Value) > MaxValueBytes {
		return store.NewErrorf(store.RetCEncodeError, "value length %d exceeds maximum %d", len(command.Value), MaxValueBytes)
	}
	return nil
}

// SizeBytes returns the exact number of bytes needed to serialize this command.
func (command *Command) SizeBytes() int {
	size := headerSize + len(command.Key)
	if command.Type == CommandTSet {
		size += valueLenSize + len(command.Value)
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 4 bytes for key length (big endian),
// N bytes for key data,
// and for Set commands additionally
// 4 bytes for value length (big endian),
// N bytes for value data.
//
// Every field is length-prefixed, so the encoding is self-delimiting:
// commands can be decoded back-to-back from a byte stream without any
// external framing.
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	// Set operation type
	result[0] = byte(command.Type)

	// Set key length (4 bytes, big endian) and key bytes
	binary.BigEndian.PutUint32(result[1:5], uint32(len(command.Key)))
	copy(result[5:5+len(command.Key)], command.Key)

	// Set value length and value bytes (Set commands only)
	if command.Type == CommandTSet {
		off := 5 + len(command.Key)
		binary.BigEndian.PutUint32(result[off:off+4], uint32(len(command.Value)))
		copy(result[off+4:], command.Value)
	}

	return result
}

// ReadCommand decodes exactly one command from r and returns the number of
// bytes it consumed. The byte count is what replay and compaction use to
// compute the offset at which the next record begins.
//
// If the stream is exhausted before the first byte of a command, ReadCommand
// returns io.EOF unwrapped so callers can detect a clean end-of-log. Any
// other malformed or truncated input fails with RetCCorruptRecord.
func ReadCommand(r io.Reader) (Command, int, error) {
	var command Command

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header[:1]); err != nil {
		if err == io.EOF {
			return command, 0, io.EOF
		}
		return command, 0, store.NewErrorf(store.RetCCorruptRecord, "reading command type: %v", err)
	}

	command.Type = CommandType(header[0])
	if command.Type != CommandTSet && command.Type != CommandTRemove {
		return command, 0, store.NewErrorf(store.RetCCorruptRecord, "unknown command type %d", header[0])
	}

	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return command, 0, store.NewErrorf(store.RetCCorruptRecord, "reading key length: %v", err)
	}

	keyLen := binary.BigEndian.Uint32(header[1:5])
	if keyLen > MaxKeyBytes {
		return command, 0, store.NewErrorf(store.RetCCorruptRecord, "key length %d exceeds maximum %d", keyLen, MaxKeyBytes)
	}

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return command, 0, store.NewErrorf(store.RetCCorruptRecord, "reading key of length %d: %v", keyLen, err)
	}
	command.Key = string(key)

	n := headerSize + int(keyLen)

	if command.Type == CommandTSet {
		lenBuf := make([]byte, valueLenSize)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return command, 0, store.NewErrorf(store.RetCCorruptRecord, "reading value length: %v", err)
		}

		valueLen := binary.BigEndian.Uint32(lenBuf)
		if valueLen > MaxValueBytes {
			return command, 0, store.NewErrorf(store.RetCCorruptRecord, "value length %d exceeds maximum %d", valueLen, MaxValueBytes)
		}

		command.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(r, command.Value); err != nil {
			return command, 0, store.NewErrorf(store.RetCCorruptRecord, "reading value of length %d: %v", valueLen, err)
		}

		n += valueLenSize + int(valueLen)
	}

	return command, n, nil
}
