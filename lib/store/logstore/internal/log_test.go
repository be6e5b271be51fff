package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kavirajk/kvs/lib/store"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l := NewLog(filepath.Join(t.TempDir(), "kv.log"))
	if err := l.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	return l
}

func mustAppend(t *testing.T, l *Log, cmd Command) uint64 {
	t.Helper()
	offset, err := l.Append(cmd)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return offset
}

func TestEnsureExists(t *testing.T) {
	l := newTestLog(t)

	info, err := os.Stat(l.Path())
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty log file, got %d bytes", info.Size())
	}

	// must not truncate an existing log
	mustAppend(t, l, Command{Type: CommandTSet, Key: "k", Value: []byte("v")})
	if err := l.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists on existing file failed: %v", err)
	}
	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size == 0 {
		t.Errorf("EnsureExists truncated the log")
	}
}

// TestAppendRejectsOversizedCommand ensures a record that decoding would
// refuse never reaches the log file in the first place.
func TestAppendRejectsOversizedCommand(t *testing.T) {
	l := newTestLog(t)

	_, err := l.Append(Command{Type: CommandTSet, Key: strings.Repeat("k", MaxKeyBytes+1), Value: []byte("v")})
	if !store.HasCode(err, store.RetCEncodeError) {
		t.Errorf("Expected RetCEncodeError, got %v", err)
	}

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 0 {
		t.Errorf("Expected rejected append to write nothing, log has %d bytes", size)
	}
}

func TestAppendReturnsStartOffset(t *testing.T) {
	l := newTestLog(t)

	commands := []Command{
		{Type: CommandTSet, Key: "a", Value: []byte("1")},
		{Type: CommandTSet, Key: "bb", Value: []byte("22")},
		{Type: CommandTRemove, Key: "a"},
	}

	var want uint64
	for i, cmd := range commands {
		offset := mustAppend(t, l, cmd)
		if offset != want {
			t.Errorf("record %d: Append returned offset %d, want %d", i, offset, want)
		}
		want += uint64(cmd.SizeBytes())
	}

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != want {
		t.Errorf("log size = %d, want %d", size, want)
	}
}

func TestReadAt(t *testing.T) {
	l := newTestLog(t)

	first := Command{Type: CommandTSet, Key: "a", Value: []byte("1")}
	second := Command{Type: CommandTSet, Key: "b", Value: []byte("2")}
	firstOffset := mustAppend(t, l, first)
	secondOffset := mustAppend(t, l, second)

	got, err := l.ReadAt(secondOffset)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if got.Key != "b" || !bytes.Equal(got.Value, []byte("2")) {
		t.Errorf("ReadAt(%d) = %+v, want %+v", secondOffset, got, second)
	}

	got, err = l.ReadAt(firstOffset)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if got.Key != "a" || !bytes.Equal(got.Value, []byte("1")) {
		t.Errorf("ReadAt(%d) = %+v, want %+v", firstOffset, got, first)
	}
}

func TestReadAtPastEnd(t *testing.T) {
	l := newTestLog(t)
	mustAppend(t, l, Command{Type: CommandTSet, Key: "a", Value: []byte("1")})

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}

	_, err = l.ReadAt(size)
	if !store.HasCode(err, store.RetCOffsetNotFound) {
		t.Errorf("Expected RetCOffsetNotFound, got %v", err)
	}
}

func TestReadAtGarbage(t *testing.T) {
	l := newTestLog(t)
	offset := mustAppend(t, l, Command{Type: CommandType(0xFF), Key: "junk"})

	_, err := l.ReadAt(offset)
	if !store.HasCode(err, store.RetCCorruptRecord) {
		t.Errorf("Expected RetCCorruptRecord, got %v", err)
	}
}

func TestReplayPairsRecordsWithOffsets(t *testing.T) {
	l := newTestLog(t)

	commands := []Command{
		{Type: CommandTSet, Key: "a", Value: []byte("1")},
		{Type: CommandTSet, Key: "b", Value: []byte("2")},
		{Type: CommandTRemove, Key: "a"},
		{Type: CommandTSet, Key: "a", Value: []byte("3")},
	}
	var wantOffsets []uint64
	for _, cmd := range commands {
		wantOffsets = append(wantOffsets, mustAppend(t, l, cmd))
	}

	var gotCommands []Command
	var gotOffsets []uint64
	err := l.Replay(func(cmd Command, offset uint64) error {
		gotCommands = append(gotCommands, cmd)
		gotOffsets = append(gotOffsets, offset)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if len(gotCommands) != len(commands) {
		t.Fatalf("Replay yielded %d records, want %d", len(gotCommands), len(commands))
	}
	for i := range commands {
		if gotOffsets[i] != wantOffsets[i] {
			t.Errorf("record %d: replay offset %d, want %d", i, gotOffsets[i], wantOffsets[i])
		}
		if gotCommands[i].Type != commands[i].Type || gotCommands[i].Key != commands[i].Key {
			t.Errorf("record %d: replay yielded %+v, want %+v", i, gotCommands[i], commands[i])
		}
	}
}

func TestReplayEmptyLog(t *testing.T) {
	l := newTestLog(t)

	err := l.Replay(func(cmd Command, offset uint64) error {
		t.Errorf("Unexpected record %+v at offset %d in empty log", cmd, offset)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
}

func TestCompact(t *testing.T) {
	l := newTestLog(t)

	// a history with overwrites and a tombstone
	mustAppend(t, l, Command{Type: CommandTSet, Key: "a", Value: []byte("stale")})
	mustAppend(t, l, Command{Type: CommandTSet, Key: "dead", Value: []byte("x")})
	aOffset := mustAppend(t, l, Command{Type: CommandTSet, Key: "a", Value: []byte("live")})
	mustAppend(t, l, Command{Type: CommandTRemove, Key: "dead"})
	bOffset := mustAppend(t, l, Command{Type: CommandTSet, Key: "b", Value: []byte("2")})

	sizeBefore, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}

	live := map[string]uint64{"a": aOffset, "b": bOffset}
	newOffsets, err := l.Compact(live)
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	if len(newOffsets) != len(live) {
		t.Fatalf("Compact returned %d offsets, want %d", len(newOffsets), len(live))
	}

	// fresh offsets must resolve to the live values
	wantValues := map[string][]byte{"a": []byte("live"), "b": []byte("2")}
	for key, offset := range newOffsets {
		cmd, err := l.ReadAt(offset)
		if err != nil {
			t.Fatalf("ReadAt(%d) after compaction failed: %v", offset, err)
		}
		if cmd.Type != CommandTSet || cmd.Key != key || !bytes.Equal(cmd.Value, wantValues[key]) {
			t.Errorf("offset %d: got %+v, want Set %s=%s", offset, cmd, key, wantValues[key])
		}
	}

	// exactly one Set per live key, nothing else
	count := 0
	err = l.Replay(func(cmd Command, _ uint64) error {
		count++
		if cmd.Type != CommandTSet {
			t.Errorf("Compacted log contains a %s record", cmd.Type)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Replay of compacted log failed: %v", err)
	}
	if count != len(live) {
		t.Errorf("Compacted log has %d records, want %d", count, len(live))
	}

	sizeAfter, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if sizeAfter > sizeBefore {
		t.Errorf("Compaction grew the log: before=%d after=%d", sizeBefore, sizeAfter)
	}

	// no temporary file may be left behind
	if _, err := os.Stat(l.Path() + ".compact"); !os.IsNotExist(err) {
		t.Errorf("Expected compaction temp file to be gone, stat returned %v", err)
	}
}

func TestCompactFailsClosed(t *testing.T) {
	l := newTestLog(t)

	mustAppend(t, l, Command{Type: CommandTSet, Key: "a", Value: []byte("1")})
	removeOffset := mustAppend(t, l, Command{Type: CommandTRemove, Key: "a"})

	before, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	// an index entry pointing at a tombstone violates the offset invariant
	_, err = l.Compact(map[string]uint64{"a": removeOffset})
	if !store.HasCode(err, store.RetCInvariantViolation) {
		t.Errorf("Expected RetCInvariantViolation, got %v", err)
	}

	after, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("Failed compaction modified the original log")
	}
	if _, err := os.Stat(l.Path() + ".compact"); !os.IsNotExist(err) {
		t.Errorf("Expected compaction temp file to be cleaned up, stat returned %v", err)
	}
}

func TestCompactEmptyIndex(t *testing.T) {
	l := newTestLog(t)

	mustAppend(t, l, Command{Type: CommandTSet, Key: "a", Value: []byte("1")})
	mustAppend(t, l, Command{Type: CommandTRemove, Key: "a"})

	newOffsets, err := l.Compact(map[string]uint64{})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if len(newOffsets) != 0 {
		t.Errorf("Expected no offsets, got %v", newOffsets)
	}

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 0 {
		t.Errorf("Expected empty log after compacting away all entries, got %d bytes", size)
	}
}
