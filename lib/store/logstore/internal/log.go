package internal

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/kavirajk/kvs/lib/store"
)

// Log owns the on-disk log path: it appends records, reads a record at a
// given offset and performs the atomic file swap during compaction.
//
// Every operation opens its own file handle for that single call and
// releases it on return; no handle is cached across calls. The log assumes
// exclusive ownership by one process, no file locking is performed.
type Log struct {
	path string
}

// NewLog creates a Log for the file at path. The file is not touched until
// EnsureExists or one of the record operations is called.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the on-disk location of the log file.
func (l *Log) Path() string {
	return l.path
}

// EnsureExists creates an empty log file at the path if none exists, so
// that later operations may assume the file is present.
func (l *Log) EnsureExists() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return store.NewErrorf(store.RetCIOError, "creating log file %s: %v", l.path, err)
	}
	if err := f.Close(); err != nil {
		return store.NewErrorf(store.RetCIOError, "closing log file %s: %v", l.path, err)
	}
	return nil
}

// Size returns the current size of the log file in bytes.
func (l *Log) Size() (uint64, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return 0, store.NewErrorf(store.RetCIOError, "stat log file %s: %v", l.path, err)
	}
	return uint64(info.Size()), nil
}

// Append writes the encoded command to the end of the log and returns the
// byte offset at which the record started, i.e. the end-of-file position
// before the write. That offset is what the index stores for Set records.
// Commands exceeding the codec's size limits are rejected with
// RetCEncodeError before anything is written.
func (l *Log) Append(cmd Command) (uint64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, store.NewErrorf(store.RetCIOError, "opening log file %s for append: %v", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, store.NewErrorf(store.RetCIOError, "stat log file %s: %v", l.path, err)
	}
	offset := uint64(info.Size())

	if _, err := f.Write(cmd.Serialize()); err != nil {
		return 0, store.NewErrorf(store.RetCIOError, "appending %s record to %s: %v", cmd.Type, l.path, err)
	}

	return offset, nil
}

// ReadAt seeks to offset and decodes exactly one record from that position.
// It fails with RetCOffsetNotFound if no record begins there (end of file)
// and with RetCCorruptRecord if the bytes do not decode as a valid record.
// Both indicate an internal-consistency violation: the index should never
// point at an invalid offset.
func (l *Log) ReadAt(offset uint64) (Command, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return Command{}, store.NewErrorf(store.RetCIOError, "opening log file %s for read: %v", l.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return Command{}, store.NewErrorf(store.RetCIOError, "seeking to offset %d in %s: %v", offset, l.path, err)
	}

	cmd, _, err := ReadCommand(bufio.NewReader(f))
	if errors.Is(err, io.EOF) {
		return Command{}, store.NewErrorf(store.RetCOffsetNotFound, "no record begins at offset %d in %s", offset, l.path)
	}
	if err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Replay sequentially decodes every record in the log from the start,
// invoking fn with each command and the offset where it began. The scan is
// one-shot and stops at the first error returned by fn or by decoding.
// Replay is used only at open (to rebuild the index) and by tests.
func (l *Log) Replay(fn func(cmd Command, offset uint64) error) error {
	f, err := os.Open(l.path)
	if err != nil {
		return store.NewErrorf(store.RetCIOError, "opening log file %s for replay: %v", l.path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var offset uint64
	for {
		cmd, n, err := ReadCommand(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(cmd, offset); err != nil {
			return err
		}
		offset += uint64(n)
	}
}

// Compact writes a new log file containing exactly one Set record for each
// live (key, offset) pair, fetched via ReadAt on the old log, then
// atomically replaces the old log with the new one. It returns the offset
// of each key in the freshly written file.
//
// Iteration order over the live entries is unconstrained: each key's latest
// Set is self-contained, so no cross-key ordering is required.
//
// Compaction fails closed: on any error the original log file is left
// untouched and the temporary file is removed.
func (l *Log) Compact(live map[string]uint64) (map[string]uint64, error) {
	tmpPath := l.path + ".compact"

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, store.NewErrorf(store.RetCIOError, "creating compaction file %s: %v", tmpPath, err)
	}

	// Until the rename happens, any failure must leave no trace on disk.
	swapped := false
	defer func() {
		if !swapped {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	newOffsets := make(map[string]uint64, len(live))
	var offset uint64

	for key, oldOffset := range live {
		cmd, err := l.ReadAt(oldOffset)
		if err != nil {
			return nil, err
		}
		if cmd.Type != CommandTSet || cmd.Key != key {
			return nil, store.NewErrorf(store.RetCInvariantViolation,
				"index for key %q points at offset %d holding a %s record for key %q", key, oldOffset, cmd.Type, cmd.Key)
		}

		encoded := cmd.Serialize()
		if _, err := bw.Write(encoded); err != nil {
			return nil, store.NewErrorf(store.RetCIOError, "writing compacted record for key %q: %v", key, err)
		}
		newOffsets[key] = offset
		offset += uint64(len(encoded))
	}

	if err := bw.Flush(); err != nil {
		return nil, store.NewErrorf(store.RetCIOError, "flushing compaction file %s: %v", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, store.NewErrorf(store.RetCIOError, "syncing compaction file %s: %v", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, store.NewErrorf(store.RetCIOError, "closing compaction file %s: %v", tmpPath, err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		return nil, store.NewErrorf(store.RetCIOError, "swapping compacted log into %s: %v", l.path, err)
	}
	swapped = true

	// Sync the directory so the rename survives a crash. The swap itself has
	// already happened, so a failure here is not surfaced to the caller.
	if dir, err := os.Open(filepath.Dir(l.path)); err == nil {
		dir.Sync()
		dir.Close()
	}

	return newOffsets, nil
}
