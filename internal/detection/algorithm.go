// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package detection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/spatialindex"
	"github.com/tomtom215/geotrail/internal/store"
)

// groupOverlapDistanceM is the per-point distance threshold used when
// deciding whether two whole tracks are "the same route", per §4.4's
// overlap_ratio(A, B, 50m) call in the group-building phase. It is a fixed
// algorithm constant, distinct from DetectionConfig.MinOverlapMeters, which
// tunes the separate section-window matching pass below.
const groupOverlapDistanceM = 50.0

// cancelEvery bounds how often a hot loop pays for a context.Done() select,
// per §5's "checked at most every 16ms of work" cancellation rule.
const cancelEvery = 16 * time.Millisecond

type cancelChecker struct {
	ctx  context.Context
	last time.Time
}

func newCancelChecker(ctx context.Context) *cancelChecker {
	return &cancelChecker{ctx: ctx, last: time.Now()}
}

func (c *cancelChecker) check() error {
	if time.Since(c.last) < cancelEvery {
		return nil
	}
	c.last = time.Now()
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return nil
	}
}

// candidate is one activity's track plus its detection-ready signature.
type candidate struct {
	Activity  store.Activity
	Points    []geo.Point
	Signature []geo.Point
	BBox      geo.BBox
}

func runPipeline(ctx context.Context, st *store.Store, cfg config.DetectionConfig, sportFilter string, gen uint64, report progressFunc) (*Result, error) {
	checker := newCancelChecker(ctx)

	candidates, err := loadCandidates(ctx, st, sportFilter, gen, report)
	if err != nil {
		return nil, err
	}
	if !report(gen, Progress{Phase: PhaseBuildingRtrees, Completed: 0, Total: len(candidates)}) {
		return nil, context.Canceled
	}

	for i := range candidates {
		if err := checker.check(); err != nil {
			return nil, err
		}
		tol := geo.SignatureTolerance(candidates[i].Points)
		candidates[i].Signature = geo.Simplify(candidates[i].Points, tol)
	}

	if !report(gen, Progress{Phase: PhaseFindingOverlaps, Completed: 0, Total: len(candidates)}) {
		return nil, context.Canceled
	}
	overlaps, err := findOverlaps(ctx, candidates, checker)
	if err != nil {
		return nil, err
	}

	if !report(gen, Progress{Phase: PhaseClustering, Completed: 0, Total: len(candidates)}) {
		return nil, context.Canceled
	}
	groups, groupMembers := clusterGroups(candidates, overlaps, cfg)

	if !report(gen, Progress{Phase: PhaseBuildingSections, Completed: 0, Total: 3}) {
		return nil, context.Canceled
	}
	sections, sectionTraces, err := buildSections(ctx, candidates, cfg, checker)
	if err != nil {
		return nil, err
	}

	if !report(gen, Progress{Phase: PhasePostprocessing, Completed: 0, Total: 1}) {
		return nil, context.Canceled
	}

	return &Result{
		Groups:        groups,
		GroupMembers:  groupMembers,
		Sections:      sections,
		SectionTraces: sectionTraces,
	}, nil
}

func loadCandidates(ctx context.Context, st *store.Store, sportFilter string, gen uint64, report progressFunc) ([]candidate, error) {
	ids, err := st.GetActivityIDs(ctx)
	if err != nil {
		return nil, err
	}

	checker := newCancelChecker(ctx)
	candidates := make([]candidate, 0, len(ids))
	for i, id := range ids {
		if err := checker.check(); err != nil {
			return nil, err
		}
		if !report(gen, Progress{Phase: PhaseLoading, Completed: i, Total: len(ids)}) {
			return nil, context.Canceled
		}

		act, err := st.GetActivity(ctx, id)
		if err != nil {
			return nil, err
		}
		if sportFilter != "" && act.SportType != sportFilter {
			continue
		}

		track, err := st.GetGPSTrack(ctx, id)
		if err != nil {
			if errs.KindOf(err) == errs.NotFound {
				continue
			}
			return nil, err
		}
		if len(track.Points) < 2 {
			continue
		}

		candidates = append(candidates, candidate{
			Activity: *act,
			Points:   track.Points,
			BBox:     track.BBox,
		})
	}
	return candidates, nil
}

// overlapEdge is one pair's symmetric overlap_ratio, used both to decide
// group membership and, among members of the same group, to pick a medoid.
type overlapEdge struct {
	i, j  int
	ratio float64
}

func findOverlaps(ctx context.Context, candidates []candidate, checker *cancelChecker) ([]overlapEdge, error) {
	var edges []overlapEdge
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if err := checker.check(); err != nil {
				return nil, err
			}
			a, b := candidates[i], candidates[j]
			if a.Activity.SportType != b.Activity.SportType {
				continue
			}
			if !a.BBox.Intersects(b.BBox) {
				continue
			}
			ratio := symmetricOverlap(a.Signature, b.Signature, groupOverlapDistanceM)
			edges = append(edges, overlapEdge{i: i, j: j, ratio: ratio})
		}
	}
	return edges, nil
}

func symmetricOverlap(a, b []geo.Point, thresholdM float64) float64 {
	return (spatialindex.OverlapRatio(a, b, thresholdM) + spatialindex.OverlapRatio(b, a, thresholdM)) / 2
}

// unionFind is a standard disjoint-set structure used to cluster candidates
// into connected components of sufficiently-overlapping tracks.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx != ry {
		uf.parent[rx] = ry
	}
}

func clusterGroups(candidates []candidate, edges []overlapEdge, cfg config.DetectionConfig) ([]store.Group, map[string][]string) {
	uf := newUnionFind(len(candidates))
	pairRatio := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		if e.ratio >= cfg.GroupOverlapThreshold {
			uf.union(e.i, e.j)
		}
		pairRatio[[2]int{e.i, e.j}] = e.ratio
	}

	components := make(map[int][]int)
	for i := range candidates {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	// Deterministic iteration order: sort component keys by their union-find
	// root index.
	roots := make([]int, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	var groups []store.Group
	members := make(map[string][]string)
	for _, root := range roots {
		memberIdxs := components[root]
		if len(memberIdxs) < 2 {
			continue
		}

		medoidIdx := pickMedoid(candidates, memberIdxs, pairRatio)
		groupID := uuid.New().String()
		consensus := candidates[medoidIdx].Activity.ID

		var activityIDs []string
		for _, idx := range memberIdxs {
			activityIDs = append(activityIDs, candidates[idx].Activity.ID)
		}
		sort.Strings(activityIDs)

		groups = append(groups, store.Group{
			ID:                  groupID,
			SportType:           candidates[medoidIdx].Activity.SportType,
			ConsensusActivityID: &consensus,
		})
		members[groupID] = activityIDs
	}
	return groups, members
}

// pickMedoid picks the member with the highest mean pairwise overlap_ratio
// against the rest of the component. Ties break on the lexicographically
// smallest activity id, per §4.4's tie-breaking rule.
func pickMedoid(candidates []candidate, idxs []int, pairRatio map[[2]int]float64) int {
	bestIdx := idxs[0]
	bestScore := -1.0
	for _, i := range idxs {
		var sum float64
		var n int
		for _, j := range idxs {
			if i == j {
				continue
			}
			key := [2]int{i, j}
			if i > j {
				key = [2]int{j, i}
			}
			sum += pairRatio[key]
			n++
		}
		score := 0.0
		if n > 0 {
			score = sum / float64(n)
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		} else if score == bestScore && candidates[i].Activity.ID < candidates[bestIdx].Activity.ID {
			bestIdx = i
		}
	}
	return bestIdx
}

// extractWindows slides a roughly windowMeters-long, half-overlapping window
// along a track's raw points, yielding the (start, end) sample index ranges
// that section traces are ultimately reported in.
func extractWindows(points []geo.Point, windowMeters float64) [][2]int {
	if len(points) < 2 {
		return nil
	}
	stride := windowMeters / 2
	var spans [][2]int
	start := 0
	for start < len(points)-1 {
		end := advanceByDistance(points, start, windowMeters)
		if end > start {
			spans = append(spans, [2]int{start, end})
		}
		if end >= len(points)-1 {
			break
		}
		next := advanceByDistance(points, start, stride)
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

func advanceByDistance(points []geo.Point, from int, meters float64) int {
	covered := 0.0
	i := from
	for i < len(points)-1 {
		covered += geo.DistanceM(points[i], points[i+1])
		i++
		if covered >= meters {
			break
		}
	}
	return i
}

// sectionBuild is one detected-but-not-yet-persisted section.
type sectionBuild struct {
	section store.Section
	traces  []store.SectionActivity
	// repPoints is the representative polyline's points, kept around so a
	// later scale pass can test containment against it.
	repPoints []geo.Point
}

func buildSections(ctx context.Context, candidates []candidate, cfg config.DetectionConfig, checker *cancelChecker) ([]store.Section, map[string][]store.SectionActivity, error) {
	scales := []struct {
		name    string
		windowM float64
	}{
		{"long", cfg.ScaleWindowMeters.Long},
		{"medium", cfg.ScaleWindowMeters.Medium},
		{"short", cfg.ScaleWindowMeters.Short},
	}

	var accepted []sectionBuild
	for _, scale := range scales {
		builds, err := buildSectionsAtScale(ctx, candidates, scale.name, scale.windowM, cfg, checker)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range builds {
			if containedInAny(b.repPoints, accepted) {
				continue
			}
			accepted = append(accepted, b)
		}
	}

	ordinals := make(map[string]int)
	sections := make([]store.Section, 0, len(accepted))
	traces := make(map[string][]store.SectionActivity, len(accepted))
	for _, b := range accepted {
		ordinals[b.section.SportType]++
		b.section.Name = fmt.Sprintf("%s Section %d", b.section.SportType, ordinals[b.section.SportType])
		sections = append(sections, b.section)
		traces[b.section.ID] = b.traces
	}
	return sections, traces, nil
}

// containedInAny reports whether points is effectively covered by an
// already-accepted, larger-scale section, per §4.4's cross-scale merge rule:
// a short-scale section wholly inside a medium- or long-scale one is
// redundant and dropped.
func containedInAny(points []geo.Point, accepted []sectionBuild) bool {
	const containmentThreshold = 0.9
	for _, a := range accepted {
		if spatialindex.OverlapRatio(points, a.repPoints, groupOverlapDistanceM) >= containmentThreshold {
			return true
		}
	}
	return false
}

func buildSectionsAtScale(ctx context.Context, candidates []candidate, scaleName string, windowMeters float64, cfg config.DetectionConfig, checker *cancelChecker) ([]sectionBuild, error) {
	type instance struct {
		candidateIdx int
		span         [2]int
		points       []geo.Point
	}

	var instances []instance
	for ci, c := range candidates {
		for _, span := range extractWindows(c.Points, windowMeters) {
			instances = append(instances, instance{candidateIdx: ci, span: span, points: c.Points[span[0] : span[1]+1]})
		}
	}

	// Deterministic order: earliest activity start first, then by start index.
	sort.Slice(instances, func(i, j int) bool {
		ci, cj := candidates[instances[i].candidateIdx], candidates[instances[j].candidateIdx]
		if ci.Activity.StartDate != cj.Activity.StartDate {
			return ci.Activity.StartDate < cj.Activity.StartDate
		}
		if ci.Activity.ID != cj.Activity.ID {
			return ci.Activity.ID < cj.Activity.ID
		}
		return instances[i].span[0] < instances[j].span[0]
	})

	used := make([]bool, len(instances))
	var builds []sectionBuild
	for i := range instances {
		if used[i] {
			continue
		}
		cluster := []int{i}
		used[i] = true
		sumRatio := 0.0
		pairCount := 0

		for j := i + 1; j < len(instances); j++ {
			if used[j] {
				continue
			}
			if err := checker.check(); err != nil {
				return nil, err
			}
			ci, cj := candidates[instances[i].candidateIdx], candidates[instances[j].candidateIdx]
			if ci.Activity.SportType != cj.Activity.SportType {
				continue
			}
			ratio := symmetricOverlap(instances[i].points, instances[j].points, cfg.MinOverlapMeters)
			if ratio >= cfg.MinOverlapFraction {
				cluster = append(cluster, j)
				used[j] = true
				sumRatio += ratio
				pairCount++
			}
		}

		distinctActivities := make(map[string]bool)
		for _, idx := range cluster {
			distinctActivities[candidates[instances[idx].candidateIdx].Activity.ID] = true
		}
		if len(distinctActivities) < cfg.MinSectionVisits {
			continue
		}

		rep := instances[i]
		repCandidate := candidates[rep.candidateIdx]
		confidence := 1.0
		if pairCount > 0 {
			confidence = sumRatio / float64(pairCount)
		}
		scale := scaleName

		sectionID := uuid.New().String()
		traces := make([]store.SectionActivity, 0, len(cluster))
		for _, idx := range cluster {
			inst := instances[idx]
			direction := classifyDirection(rep.points, inst.points)
			matchPct := symmetricOverlap(inst.points, rep.points, cfg.MinOverlapMeters) * 100
			traces = append(traces, store.SectionActivity{
				SectionID:       sectionID,
				ActivityID:      candidates[inst.candidateIdx].Activity.ID,
				StartIndex:      inst.span[0],
				EndIndex:        inst.span[1],
				Direction:       direction,
				MatchPercentage: matchPct,
			})
		}

		builds = append(builds, sectionBuild{
			section: store.Section{
				ID:         sectionID,
				Type:       "auto",
				SportType:  repCandidate.Activity.SportType,
				Polyline:   geo.EncodePolyline(rep.points),
				DistanceM:  geo.PathDistanceM(rep.points),
				VisitCount: len(distinctActivities),
				Confidence: &confidence,
				Scale:      &scale,
			},
			traces:    traces,
			repPoints: rep.points,
		})
	}
	return builds, nil
}

// classifyDirection compares a window's end-to-end vector against the
// representative section's, per §4.4's direction classification. "partial"
// (a window covering only part of the section) is not distinguished here;
// every match is reported as "same" or "reverse".
func classifyDirection(rep, w []geo.Point) string {
	if len(rep) < 2 || len(w) < 2 {
		return "same"
	}
	rLat, rLng := rep[len(rep)-1].Lat-rep[0].Lat, rep[len(rep)-1].Lng-rep[0].Lng
	wLat, wLng := w[len(w)-1].Lat-w[0].Lat, w[len(w)-1].Lng-w[0].Lng
	dot := rLat*wLat + rLng*wLng
	if dot < 0 {
		return "reverse"
	}
	return "same"
}
