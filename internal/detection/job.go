// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package detection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/metrics"
	"github.com/tomtom215/geotrail/internal/spatialindex"
	"github.com/tomtom215/geotrail/internal/store"
)

// Status is poll()'s coarse view of the job.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Phase is one step of the seven-phase pipeline.
type Phase string

const (
	PhaseLoading         Phase = "loading"
	PhaseBuildingRtrees  Phase = "building_rtrees"
	PhaseFindingOverlaps Phase = "finding_overlaps"
	PhaseClustering      Phase = "clustering"
	PhaseBuildingSections Phase = "building_sections"
	PhasePostprocessing  Phase = "postprocessing"
	PhaseComplete        Phase = "complete"
)

// Progress is progress()'s view of an in-flight run.
type Progress struct {
	Phase     Phase
	Completed int
	Total     int
}

// progressFunc reports progress for generation gen. It returns false when gen
// has been superseded, a signal to the caller to stop its current phase.
type progressFunc func(gen uint64, p Progress) bool

// Result is the committed output of one completed run.
type Result struct {
	Groups        []store.Group
	GroupMembers  map[string][]string
	Sections      []store.Section
	SectionTraces map[string][]store.SectionActivity
}

// Job runs the detection pipeline in its own goroutine, at most one run in
// flight. Starting a new run cancels and supersedes whatever run preceded it,
// per §8's cancellation invariant: no partial result from a superseded run is
// ever committed.
type Job struct {
	store    *store.Store
	idx      *spatialindex.Index
	cfg      config.DetectionConfig
	metrics  *metrics.Metrics
	progress ProgressStore

	mu            sync.Mutex
	generation    uint64
	status        Status
	progressState Progress
	lastErr       error
	cancel        context.CancelFunc
}

// New builds a Job over the given store and spatial index. m may be nil, in
// which case phase and outcome recording is skipped. progressStore may be
// nil, in which case progress is kept in-process only.
func New(st *store.Store, idx *spatialindex.Index, cfg config.DetectionConfig, m *metrics.Metrics, progressStore ProgressStore) *Job {
	if progressStore == nil {
		progressStore = newMemoryProgressStore()
	}
	return &Job{store: st, idx: idx, cfg: cfg, metrics: m, progress: progressStore, status: StatusIdle}
}

// Start begins a run, optionally restricted to one sport type ("" means all
// sports). It supersedes any run already in flight and always returns true:
// the caller never has to retry a "busy" rejection.
func (j *Job) Start(sportFilter string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		j.cancel()
	}
	j.generation++
	gen := j.generation

	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.status = StatusRunning
	j.progressState = Progress{Phase: PhaseLoading}
	j.lastErr = nil

	go j.run(ctx, gen, sportFilter)
	return true
}

// RestorePersistedProgress loads whatever ProgressRecord the configured
// ProgressStore last saved and reflects it in Poll/ProgressSnapshot, so a
// process that restarted mid-run can report where the crashed run left off
// instead of reporting idle. A run that was StatusRunning when the record
// was saved is reported as StatusError, since the pipeline itself cannot be
// resumed from a persisted phase - only re-started from scratch.
func (j *Job) RestorePersistedProgress() error {
	rec, found, err := j.progress.Load()
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.generation = rec.Generation
	j.progressState = Progress{Phase: rec.Phase, Completed: rec.Completed, Total: rec.Total}
	if rec.Status == StatusRunning {
		j.status = StatusError
		j.lastErr = errs.New(errs.Cancelled, "detection run was in progress when the process last stopped")
		return nil
	}
	j.status = rec.Status
	return nil
}

// Cancel stops the current run, if any. The store is left exactly as it was
// before Start was called.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
	}
}

// Poll returns the job's current coarse status.
func (j *Job) Poll() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// ProgressSnapshot returns the most recently reported progress.
func (j *Job) ProgressSnapshot() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progressState
}

// LastError returns the error from the most recent failed run, if any.
func (j *Job) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

func (j *Job) run(ctx context.Context, gen uint64, sportFilter string) {
	phaseStart := time.Now()
	var lastPhase Phase = PhaseLoading

	report := func(reportGen uint64, p Progress) bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		if reportGen != j.generation {
			return false
		}
		if p.Phase != lastPhase {
			if j.metrics != nil {
				j.metrics.ObserveDetectionPhase(string(lastPhase), time.Since(phaseStart))
			}
			lastPhase = p.Phase
			phaseStart = time.Now()
		}
		j.progressState = p
		// Best-effort: a persistence failure here must not abort the run
		// itself, only degrade poll()'s crash-survival guarantee.
		_ = j.progress.Save(ProgressRecord{Generation: gen, Status: StatusRunning, Phase: p.Phase, Completed: p.Completed, Total: p.Total})
		return true
	}

	result, err := runPipeline(ctx, j.store, j.cfg, sportFilter, gen, report)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.metrics != nil {
		j.metrics.ObserveDetectionPhase(string(lastPhase), time.Since(phaseStart))
	}
	if gen != j.generation {
		// Superseded by a later Start call; this run's result, partial or
		// otherwise, is discarded.
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			j.status = StatusError
			j.lastErr = errs.Wrap(errs.Cancelled, "detection run was cancelled", err)
			if j.metrics != nil {
				j.metrics.RecordDetectionRun("cancelled")
			}
			_ = j.progress.Save(ProgressRecord{Generation: gen, Status: StatusError, Phase: j.progressState.Phase})
			return
		}
		j.status = StatusError
		j.lastErr = err
		if j.metrics != nil {
			j.metrics.RecordDetectionRun("error")
		}
		_ = j.progress.Save(ProgressRecord{Generation: gen, Status: StatusError, Phase: j.progressState.Phase})
		return
	}

	if err := commitResult(ctx, j.store, result); err != nil {
		j.status = StatusError
		j.lastErr = err
		if j.metrics != nil {
			j.metrics.RecordDetectionRun("error")
		}
		_ = j.progress.Save(ProgressRecord{Generation: gen, Status: StatusError, Phase: j.progressState.Phase})
		return
	}
	j.idx.Invalidate()

	j.status = StatusComplete
	j.progressState = Progress{Phase: PhaseComplete, Completed: j.progressState.Total, Total: j.progressState.Total}
	if j.metrics != nil {
		j.metrics.RecordDetectionRun("complete")
	}
	_ = j.progress.Save(ProgressRecord{Generation: gen, Status: StatusComplete, Phase: PhaseComplete, Completed: j.progressState.Total, Total: j.progressState.Total})
}

// Serve implements suture.Service. The pipeline itself runs on the goroutine
// spawned by Start, independent of the supervisor's lifecycle; Serve exists
// so a coordination bug that panics here is caught and restarted by the
// supervisor tree rather than silently killing the engine's job surface.
func (j *Job) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func commitResult(ctx context.Context, st *store.Store, result *Result) error {
	if result == nil {
		return errs.New(errs.Internal, "detection pipeline returned a nil result")
	}
	if err := st.ReplaceAutoGroups(ctx, result.Groups, result.GroupMembers); err != nil {
		return err
	}
	if err := st.ReplaceAutoSections(ctx, result.Sections, result.SectionTraces); err != nil {
		return err
	}
	// A completed run has re-derived groups and sections from scratch, so
	// whatever made them stale (§4.2's cleanup, new activities) no longer
	// applies.
	if err := st.MarkGroupsDirty(ctx, false); err != nil {
		return err
	}
	if err := st.MarkSectionsDirty(ctx, false); err != nil {
		return err
	}
	return nil
}
