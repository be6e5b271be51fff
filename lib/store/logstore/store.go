package logstore

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/kavirajk/kvs/lib/store"
	"github.com/kavirajk/kvs/lib/store/logstore/internal"
)

const (
	// DefaultLogName is the log filename used when the store is opened on a
	// directory instead of a file.
	DefaultLogName = "kv.log"

	// compactionThresholdBytes is the fixed size the log may grow to before
	// a Set triggers compaction. The check runs at the start of every Set,
	// but compaction itself only runs once per threshold crossing since the
	// post-compaction size drops well below it in the common case.
	compactionThresholdBytes = 64 * 1024
)

// storeImpl is the log-structured store facade. It resolves reads through
// the index into the log, appends writes to the log and updates the index,
// and triggers compaction when the log exceeds compactionThresholdBytes.
type storeImpl struct {
	log   *internal.Log
	index *internal.Index

	metrics         *metrics.Set
	setTotal        *metrics.Counter
	getTotal        *metrics.Counter
	removeTotal     *metrics.Counter
	compactionTotal *metrics.Counter
	compactionSecs  *metrics.Histogram
}

// Open opens the store at path, creating the log file if it does not exist.
// If path is a directory, DefaultLogName inside it is used. The in-memory
// index is rebuilt by replaying the entire log in write order: a Set record
// inserts or overwrites the key's offset, a Remove record deletes it.
//
// The returned store assumes exclusive ownership by a single caller; no
// operation may be invoked concurrently with another on the same instance.
func Open(path string) (store.IStore, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultLogName)
	}

	log := internal.NewLog(path)
	if err := log.EnsureExists(); err != nil {
		return nil, err
	}

	index := internal.NewIndex()
	err := log.Replay(func(cmd internal.Command, offset uint64) error {
		switch cmd.Type {
		case internal.CommandTSet:
			index.Insert(cmd.Key, offset)
		case internal.CommandTRemove:
			index.Remove(cmd.Key)
		default:
			return store.NewErrorf(store.RetCCorruptRecord, "unknown command type %d at offset %d", cmd.Type, offset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := &storeImpl{
		log:     log,
		index:   index,
		metrics: metrics.NewSet(),
	}
	s.setTotal = s.metrics.NewCounter(`kvs_operations_total{op="set"}`)
	s.getTotal = s.metrics.NewCounter(`kvs_operations_total{op="get"}`)
	s.removeTotal = s.metrics.NewCounter(`kvs_operations_total{op="remove"}`)
	s.compactionTotal = s.metrics.NewCounter("kvs_compactions_total")
	s.compactionSecs = s.metrics.NewHistogram("kvs_compaction_duration_seconds")
	return s, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	s.setTotal.Inc()

	if err := s.maybeCompact(); err != nil {
		return err
	}

	offset, err := s.log.Append(internal.Command{Type: internal.CommandTSet, Key: key, Value: value})
	if err != nil {
		return err
	}

	s.index.Insert(key, offset)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	s.getTotal.Inc()

	offset, ok := s.index.Lookup(key)
	if !ok {
		return nil, false, nil
	}

	cmd, err := s.log.ReadAt(offset)
	if err != nil {
		return nil, false, err
	}

	// Only Set offsets are ever stored, so anything else here is a bug in
	// the store itself and must not be swallowed.
	if cmd.Type != internal.CommandTSet || cmd.Key != key {
		return nil, false, store.NewErrorf(store.RetCInvariantViolation,
			"offset %d indexed for key %q holds a %s record for key %q", offset, key, cmd.Type, cmd.Key)
	}

	return cmd.Value, true, nil
}

func (s *storeImpl) Remove(key string) error {
	s.removeTotal.Inc()

	if _, ok := s.index.Lookup(key); !ok {
		return store.NewErrorf(store.RetCKeyNotFound, "key %q not found", key)
	}

	if _, err := s.log.Append(internal.Command{Type: internal.CommandTRemove, Key: key}); err != nil {
		return err
	}

	s.index.Remove(key)
	return nil
}

func (s *storeImpl) GetStoreInfo() (store.StoreInfo, error) {
	size, err := s.log.Size()
	if err != nil {
		return store.StoreInfo{}, err
	}
	return store.StoreInfo{
		Path:                     s.log.Path(),
		Keys:                     s.index.Len(),
		LogSizeBytes:             size,
		CompactionThresholdBytes: compactionThresholdBytes,
	}, nil
}

func (s *storeImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Compaction
// --------------------------------------------------------------------------

// maybeCompact rewrites the log to contain only the latest live entries if
// its current size exceeds the threshold. On success all index offsets are
// replaced wholesale with the offsets in the fresh file; on failure the log
// and the index remain unchanged.
func (s *storeImpl) maybeCompact() error {
	size, err := s.log.Size()
	if err != nil {
		return err
	}
	if size <= compactionThresholdBytes {
		return nil
	}

	start := time.Now()
	newOffsets, err := s.log.Compact(s.index.Entries())
	if err != nil {
		return err
	}
	s.index.Reset(newOffsets)

	s.compactionTotal.Inc()
	s.compactionSecs.UpdateDuration(start)
	return nil
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// WritePrometheus dumps the store's operation metrics in Prometheus text
// format. It is exposed outside the store.IStore interface; callers that
// want metrics type-assert for it.
func (s *storeImpl) WritePrometheus(w io.Writer) {
	s.metrics.WritePrometheus(w)
}
