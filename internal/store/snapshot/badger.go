package snapshot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
)

// snapshotKey is the single key used for the snapshot payload.
var snapshotKey = []byte("varmesh/snapshot")

// BadgerSink stores the snapshot payload in an embedded Badger database.
// Useful for hosts that prefer an embedded KV file with its own crash
// consistency over a bare JSON file on disk.
type BadgerSink struct {
	db *badger.DB
}

// NewBadgerSink opens (or creates) a Badger database at dir.
func NewBadgerSink(dir string, log *slog.Logger) (*BadgerSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot: badger dir is required")
	}
	if log == nil {
		log = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: log}
	// Snapshots are small and infrequent; favour durability.
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open badger: %w", err)
	}
	return &BadgerSink{db: db}, nil
}

// Load reads the snapshot payload from the database.
func (s *BadgerSink) Load() ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("snapshot: badger load: %w", err)
	}
	return data, true, nil
}

// Store replaces the snapshot payload. Badger transactions make the
// replacement atomic.
func (s *BadgerSink) Store(data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("snapshot: badger store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerSink) Close() error {
	return s.db.Close()
}

// badgerLogger adapts slog to Badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
