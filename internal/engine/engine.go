// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"os"
	"sync"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/geotrail/internal/aggregate"
	"github.com/tomtom215/geotrail/internal/cache"
	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/detection"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/logging"
	"github.com/tomtom215/geotrail/internal/metrics"
	"github.com/tomtom215/geotrail/internal/performance"
	"github.com/tomtom215/geotrail/internal/spatialindex"
	"github.com/tomtom215/geotrail/internal/store"
	"github.com/tomtom215/geotrail/internal/supervisor"
)

// Topic is one of the four fixed pub/sub channels from §4.7.
type Topic string

const (
	TopicActivities Topic = "activities"
	TopicGroups     Topic = "groups"
	TopicSections   Topic = "sections"
	TopicSyncReset  Topic = "syncReset"
)

type lifecycleState int

const (
	stateUninitialized lifecycleState = iota
	stateReady
)

// Unsubscribe removes a previously registered subscriber.
type Unsubscribe func()

// Stats is get_stats()'s combined result: storage counts, dirty flags, and
// cache sizes the engine alone tracks.
type Stats struct {
	ActivityCount      int
	GpsTrackCount      int
	GroupCount         int
	SectionCount       int
	GroupsDirty        bool
	SectionsDirty      bool
	SignatureCacheSize int
	ConsensusCacheSize int
	OldestDate         *int64
	NewestDate         *int64
}

// Engine is the process-wide facade. Zero value is not usable; build one
// with New.
type Engine struct {
	cfg config.Config

	mu     sync.RWMutex
	state  lifecycleState
	dbPath string

	store          *store.Store
	idx            *spatialindex.Index
	job            *detection.Job
	jobToken       suture.ServiceToken
	tree           *supervisor.Tree
	treeCancel     context.CancelFunc
	progressStore  detection.ProgressStore
	perf           *performance.Engine
	agg            *aggregate.Engine
	m              *metrics.Metrics
	sigCache       *cache.LRU[string]
	consensusCache *cache.LRU[string]

	lastPolledStatus detection.Status

	subMu       sync.Mutex
	subscribers map[Topic]map[int]func()
	nextSubID   int
}

// New builds an Engine in the Uninitialized state. cfg supplies every
// setting Init itself doesn't take as an argument (detection tuning, cache
// sizes, metrics namespace, ...).
func New(cfg config.Config) *Engine {
	return &Engine{
		cfg:         cfg,
		state:       stateUninitialized,
		subscribers: make(map[Topic]map[int]func()),
	}
}

// IsInitialized reports whether this process has a live Engine, per §4.7.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == stateReady
}

// ProbeInitialized checks whether dbPath looks like an already-initialized
// store, without mutating this Engine's in-process state: §4.7's
// "is_initialized reflects ... a successful probe of the database file"
// clause, for the case where a different process initialized the file.
func ProbeInitialized(dbPath string) bool {
	if dbPath == "" || dbPath == ":memory:" {
		return false
	}
	_, err := os.Stat(dbPath)
	return err == nil
}

// Init moves Uninitialized -> Ready, opening the store at dbPath and wiring
// every collaborator. Calling Init again with the same path is a no-op;
// calling it with a different path is AlreadyInitializedDifferentPath.
func (e *Engine) Init(dbPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateReady {
		if e.dbPath == dbPath {
			return nil
		}
		return errs.Newf(errs.AlreadyInitializedDifferentPath,
			"engine already initialized at %q, cannot reinitialize at %q", e.dbPath, dbPath)
	}

	storeCfg := e.cfg.Store
	storeCfg.Path = dbPath
	st, err := store.Open(storeCfg)
	if err != nil {
		return err
	}

	progressStore, err := detection.NewProgressStore(e.cfg.Detection, e.cfg.Progress)
	if err != nil {
		_ = st.Close()
		return err
	}

	idx := spatialindex.New(st)
	m := metrics.New(e.cfg.Metrics)
	job := detection.New(st, idx, e.cfg.Detection, m, progressStore)
	if err := job.RestorePersistedProgress(); err != nil {
		logging.Warn().Err(err).Msg("failed to restore persisted detection progress, continuing idle")
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		_ = progressStore.Close()
		_ = st.Close()
		return errs.Wrap(errs.Internal, "building supervisor tree", err)
	}
	treeCtx, cancel := context.WithCancel(context.Background())
	token := tree.Add(job)
	go func() { _ = tree.Serve(treeCtx) }()

	e.store = st
	e.idx = idx
	e.job = job
	e.jobToken = token
	e.tree = tree
	e.treeCancel = cancel
	e.progressStore = progressStore
	e.m = m
	e.perf = performance.New(st)
	e.agg = aggregate.New(st, e.cfg.Aggregate)
	e.sigCache = cache.NewLRU[string](e.cfg.Cache.SignatureCacheSize, e.cfg.Cache.DefaultTTL)
	e.consensusCache = cache.NewLRU[string](e.cfg.Cache.PolylineCacheSize, e.cfg.Cache.DefaultTTL)
	e.lastPolledStatus = detection.StatusIdle
	e.dbPath = dbPath
	e.state = stateReady
	return nil
}

// Clear empties every table (Ready -> Ready) and invalidates every cache,
// per §4.2's Clear contract. Publishes {activities, groups, sections,
// syncReset}.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	if e.state != stateReady {
		e.mu.Unlock()
		return errs.New(errs.NotInitialized, "engine.Clear called before Init")
	}
	e.job.Cancel()
	err := e.store.Clear(ctx)
	if err == nil {
		e.idx.Invalidate()
		e.sigCache.Clear()
		e.consensusCache.Clear()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.m.RecordMutation("clear")
	e.publish(TopicActivities, TopicGroups, TopicSections, TopicSyncReset)
	return nil
}

// Teardown moves Ready -> Uninitialized, stopping the supervised detection
// job and closing the store. The process may Init again afterward, with the
// same or a different path.
func (e *Engine) Teardown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateReady {
		return nil
	}
	e.job.Cancel()
	if e.treeCancel != nil {
		e.treeCancel()
	}
	_ = e.progressStore.Close()
	err := e.store.Close()

	e.store = nil
	e.idx = nil
	e.job = nil
	e.tree = nil
	e.treeCancel = nil
	e.progressStore = nil
	e.perf = nil
	e.agg = nil
	e.m = nil
	e.sigCache = nil
	e.consensusCache = nil
	e.dbPath = ""
	e.state = stateUninitialized
	return err
}

// requireReady must be called with e.mu already held (read or write).
func (e *Engine) requireReady() error {
	if e.state != stateReady {
		return errs.New(errs.NotInitialized, "engine method called before Init")
	}
	return nil
}

// Subscribe registers callback for topic; callback is invoked synchronously,
// same-thread, after any mutator that publishes to topic completes its store
// transaction. A panicking callback is caught and logged; it never corrupts
// engine state and never stops the remaining subscribers from running.
func (e *Engine) Subscribe(topic Topic, callback func()) Unsubscribe {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	if e.subscribers[topic] == nil {
		e.subscribers[topic] = make(map[int]func())
	}
	e.subscribers[topic][id] = callback

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subscribers[topic], id)
	}
}

func (e *Engine) publish(topics ...Topic) {
	for _, topic := range topics {
		e.subMu.Lock()
		callbacks := make([]func(), 0, len(e.subscribers[topic]))
		for _, cb := range e.subscribers[topic] {
			callbacks = append(callbacks, cb)
		}
		e.subMu.Unlock()

		for _, cb := range callbacks {
			e.invokeSubscriber(cb)
		}
	}
}

func (e *Engine) invokeSubscriber(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("engine subscriber panicked, continuing")
		}
	}()
	cb()
}
