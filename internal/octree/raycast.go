package octree

import (
	"cmp"
	"slices"

	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// RayQueryLevel tells ray testers how precisely to test.
type RayQueryLevel uint8

const (
	RayAABB RayQueryLevel = iota
	RayOBB
	RayTriangle
)

// RayQuery describes a ray cast and receives its hits.
type RayQuery struct {
	Ray         geom.Ray
	Level       RayQueryLevel
	MaxDistance float32
	Flags       Flags
	ViewMask    uint32
	Result      []RayQueryResult
}

// NewRayQuery returns a query with unlimited distance that matches every
// drawable.
func NewRayQuery(ray geom.Ray, level RayQueryLevel) *RayQuery {
	return &RayQuery{
		Ray:         ray,
		Level:       level,
		MaxDistance: geom.Infinity,
		Flags:       FlagAny,
		ViewMask:    DefaultViewMask,
	}
}

// RayQueryResult is one ray hit.
type RayQueryResult struct {
	Position  math.Vec3
	Distance  float32
	Drawable  Drawable
	SubObject int
}

type rayCandidate struct {
	drawable Drawable
	distance float32
}

func compareResults(a, b RayQueryResult) int {
	return cmp.Compare(a.Distance, b.Distance)
}

// processRayQuery tests one drawable, using its own ray test when it has one.
func processRayQuery(d Drawable, q *RayQuery, results []RayQueryResult) []RayQueryResult {
	if tester, ok := d.(RayTester); ok {
		return tester.ProcessRayQuery(q, results)
	}
	dist := q.Ray.HitDistance(d.WorldBoundingBox())
	if dist >= q.MaxDistance {
		return results
	}
	return append(results, RayQueryResult{
		Position: q.Ray.Point(dist),
		Distance: dist,
		Drawable: d,
	})
}

// Raycast collects every hit closer than q.MaxDistance, sorted by distance.
func (t *Octree) Raycast(q *RayQuery) {
	q.Result = q.Result[:0]
	t.collectRayHits(rootOctant, q)
	slices.SortStableFunc(q.Result, compareResults)
	t.metrics.instrumentQuery("raycast")
}

// RaycastSingle finds the closest hit only. Candidates are sorted by the
// distance to their bounding box and tested in that order, stopping once no
// remaining box can beat the closest hit. q.Result holds at most one entry.
func (t *Octree) RaycastSingle(q *RayQuery) {
	q.Result = q.Result[:0]

	var drawables []Drawable
	drawables = t.collectRayCandidates(rootOctant, q, drawables)

	candidates := t.rayCandidates[:0]
	for _, d := range drawables {
		candidates = append(candidates, rayCandidate{
			drawable: d,
			distance: q.Ray.HitDistance(d.WorldBoundingBox()),
		})
	}
	slices.SortFunc(candidates, func(a, b rayCandidate) int {
		return cmp.Compare(a.distance, b.distance)
	})

	closest := geom.Infinity
	for _, c := range candidates {
		if c.distance >= min(closest, q.MaxDistance) {
			break
		}
		before := len(q.Result)
		q.Result = processRayQuery(c.drawable, q, q.Result)
		for _, r := range q.Result[before:] {
			closest = min(closest, r.Distance)
		}
	}

	if len(q.Result) > 1 {
		slices.SortStableFunc(q.Result, compareResults)
		q.Result = q.Result[:1]
	}

	clear(candidates)
	t.rayCandidates = candidates[:0]
	t.metrics.instrumentQuery("raycast_single")
}
