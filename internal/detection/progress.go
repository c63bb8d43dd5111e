// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package detection

import (
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
)

// progressRecordKey is the single BadgerDB key a ProgressStore persists
// under; detection is a single job per engine, so there is only ever one
// record in flight.
const progressRecordKey = "detection_progress"

// ProgressRecord is the durable snapshot of an in-flight or most-recently
// finished run, enough for poll() to survive a process restart mid-run.
type ProgressRecord struct {
	Generation uint64
	Status     Status
	Phase      Phase
	Completed  int
	Total      int
}

// ProgressStore persists ProgressRecord across Job restarts. "memory"
// persistence (the default) keeps it in-process only; "badger" persistence
// survives a crash mid-detection, per DetectionConfig.ProgressPersistence.
type ProgressStore interface {
	Save(rec ProgressRecord) error
	Load() (ProgressRecord, bool, error)
	Close() error
}

// NewProgressStore builds the ProgressStore selected by cfg.ProgressPersistence.
func NewProgressStore(cfg config.DetectionConfig, progressCfg config.ProgressConfig) (ProgressStore, error) {
	switch cfg.ProgressPersistence {
	case "badger":
		return newBadgerProgressStore(progressCfg.DataDir)
	default:
		return newMemoryProgressStore(), nil
	}
}

type memoryProgressStore struct {
	mu     sync.Mutex
	rec    ProgressRecord
	loaded bool
}

func newMemoryProgressStore() *memoryProgressStore {
	return &memoryProgressStore{}
}

func (m *memoryProgressStore) Save(rec ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	m.loaded = true
	return nil
}

func (m *memoryProgressStore) Load() (ProgressRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, m.loaded, nil
}

func (m *memoryProgressStore) Close() error { return nil }

// badgerProgressStore survives a process restart, so poll() can report the
// phase a crashed run reached rather than silently resetting to idle.
type badgerProgressStore struct {
	db *badger.DB
}

func newBadgerProgressStore(dataDir string) (*badgerProgressStore, error) {
	if dataDir == "" {
		return nil, errs.New(errs.InvalidInput, "progress.data_dir is required for badger persistence")
	}
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "opening badger progress store", err)
	}
	return &badgerProgressStore{db: db}, nil
}

func (b *badgerProgressStore) Save(rec ProgressRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshaling progress record", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressRecordKey), data)
	})
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "persisting progress record", err)
	}
	return nil
}

func (b *badgerProgressStore) Load() (ProgressRecord, bool, error) {
	var rec ProgressRecord
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressRecordKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return ProgressRecord{}, false, errs.Wrap(errs.StorageFailure, "reading progress record", err)
	}
	return rec, found, nil
}

func (b *badgerProgressStore) Close() error {
	return b.db.Close()
}
