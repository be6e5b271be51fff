package internal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kavirajk/kvs/lib/store"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name: "Set with key and value",
			command: Command{
				Type:  CommandTSet,
				Key:   "testkey",
				Value: []byte("testvalue"),
			},
			expected: 1 + 4 + 7 + 4 + 9, // Type + KeyLen + Key + ValueLen + Value
		},
		{
			name: "Set with empty key",
			command: Command{
				Type:  CommandTSet,
				Key:   "",
				Value: []byte("testvalue"),
			},
			expected: 1 + 4 + 0 + 4 + 9,
		},
		{
			name: "Remove carries no value fields",
			command: Command{
				Type: CommandTRemove,
				Key:  "testkey",
			},
			expected: 1 + 4 + 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestValidate tests the encode-side size limits. A field that passes
// Validate must also pass the decode-side checks in ReadCommand.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		command Command
		wantErr bool
	}{
		{
			name:    "Small command",
			command: Command{Type: CommandTSet, Key: "k", Value: []byte("v")},
		},
		{
			name:    "Key exactly at the limit",
			command: Command{Type: CommandTRemove, Key: strings.Repeat("k", MaxKeyBytes)},
		},
		{
			name:    "Key over the limit",
			command: Command{Type: CommandTSet, Key: strings.Repeat("k", MaxKeyBytes+1), Value: []byte("v")},
			wantErr: true,
		},
		{
			name:    "Value over the limit",
			command: Command{Type: CommandTSet, Key: "k", Value: make([]byte, MaxValueBytes+1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.command.Validate()
			if tt.wantErr {
				if !store.HasCode(err, store.RetCEncodeError) {
					t.Errorf("Expected RetCEncodeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

// TestSerializeReadCommand tests that Serialize and ReadCommand round-trip
func TestSerializeReadCommand(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Standard set command",
			command: Command{
				Type:  CommandTSet,
				Key:   "testkey",
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Remove command",
			command: Command{
				Type: CommandTRemove,
				Key:  "testkey",
			},
		},
		{
			name: "Set with empty key",
			command: Command{
				Type:  CommandTSet,
				Key:   "",
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Set with empty value",
			command: Command{
				Type:  CommandTSet,
				Key:   "testkey",
				Value: []byte{},
			},
		},
		{
			name: "Set with binary value",
			command: Command{
				Type:  CommandTSet,
				Key:   "binary",
				Value: []byte{0, 1, 2, 3, 254, 255},
			},
		},
		{
			name: "Set with Unicode key",
			command: Command{
				Type:  CommandTSet,
				Key:   "你好世界", // Hello World in Chinese
				Value: []byte("unicode test"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			decoded, n, err := ReadCommand(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("ReadCommand() error = %v", err)
			}

			if decoded.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", decoded.Type, tt.command.Type)
			}
			if decoded.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", decoded.Key, tt.command.Key)
			}

			// Value comparison handling nil case
			if tt.command.Value == nil {
				if len(decoded.Value) != 0 {
					t.Errorf("Value should be nil or empty, got %v", decoded.Value)
				}
			} else if !bytes.Equal(decoded.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", decoded.Value, tt.command.Value)
			}

			// The reported byte count is the offset bookkeeping contract
			if n != len(data) {
				t.Errorf("ReadCommand consumed %d bytes, serialized length is %d", n, len(data))
			}
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{
		Type:  CommandTSet,
		Key:   "testkey",
		Value: []byte("testvalue"),
	}

	expected := make([]byte, cmd.SizeBytes())
	// Type
	expected[0] = byte(CommandTSet)
	// Key length
	binary.BigEndian.PutUint32(expected[1:5], 7) // "testkey" length
	// Key
	copy(expected[5:12], []byte("testkey"))
	// Value length
	binary.BigEndian.PutUint32(expected[12:16], 9) // "testvalue" length
	// Value
	copy(expected[16:], []byte("testvalue"))

	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestReadCommandStream verifies back-to-back decoding without external
// framing, the property replay depends on.
func TestReadCommandStream(t *testing.T) {
	commands := []Command{
		{Type: CommandTSet, Key: "a", Value: []byte("1")},
		{Type: CommandTSet, Key: "bb", Value: []byte("22")},
		{Type: CommandTRemove, Key: "a"},
		{Type: CommandTSet, Key: "ccc", Value: []byte{}},
	}

	var stream bytes.Buffer
	var wantOffsets []int
	for _, cmd := range commands {
		wantOffsets = append(wantOffsets, stream.Len())
		stream.Write(cmd.Serialize())
	}

	r := bytes.NewReader(stream.Bytes())
	offset := 0
	for i, want := range commands {
		if offset != wantOffsets[i] {
			t.Errorf("record %d: expected to begin at offset %d, bookkeeping says %d", i, wantOffsets[i], offset)
		}

		got, n, err := ReadCommand(r)
		if err != nil {
			t.Fatalf("record %d: ReadCommand failed: %v", i, err)
		}
		if got.Type != want.Type || got.Key != want.Key || !bytes.Equal(got.Value, want.Value) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
		offset += n
	}

	if _, _, err := ReadCommand(r); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF at end of stream, got %v", err)
	}
}

// TestReadCommandErrors tests error cases in ReadCommand
func TestReadCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "Unknown command type",
			data: []byte{0xFF, 0, 0, 0, 0},
		},
		{
			name: "Truncated key length",
			data: []byte{byte(CommandTSet), 0, 0},
		},
		{
			name: "Truncated key",
			data: func() []byte {
				data := make([]byte, 5)
				data[0] = byte(CommandTSet)
				binary.BigEndian.PutUint32(data[1:5], 10)
				return append(data, 'a', 'b')
			}(),
		},
		{
			name: "Set cut off before value length",
			data: (&Command{Type: CommandTSet, Key: "k", Value: []byte("v")}).Serialize()[:6],
		},
		{
			name: "Truncated value",
			data: func() []byte {
				data := (&Command{Type: CommandTSet, Key: "k", Value: []byte("longvalue")}).Serialize()
				return data[:len(data)-3]
			}(),
		},
		{
			name: "Key length beyond sanity cap",
			data: func() []byte {
				data := make([]byte, 5)
				data[0] = byte(CommandTRemove)
				binary.BigEndian.PutUint32(data[1:5], MaxKeyBytes+1)
				return data
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadCommand(bytes.NewReader(tt.data))
			if !store.HasCode(err, store.RetCCorruptRecord) {
				t.Errorf("Expected RetCCorruptRecord, got %v", err)
			}
		})
	}
}

// TestReadCommandEmptyStream tests that a clean end-of-stream is io.EOF
func TestReadCommandEmptyStream(t *testing.T) {
	_, _, err := ReadCommand(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}
