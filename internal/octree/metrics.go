package octree

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	octreeLabel = "octree"
	kindLabel   = "kind"
)

var (
	octantsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_octants",
		Help: "The number of allocated octants, root included.",
	}, []string{octreeLabel})

	drawablesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_drawables",
		Help: "The number of drawables held by the octree.",
	}, []string{octreeLabel})

	drawableUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_drawable_updates_total",
		Help: "The number of drawable updates run by the octree.",
	}, []string{octreeLabel})

	reinsertionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_reinsertions_total",
		Help: "The number of drawables reinserted after an update.",
	}, []string{octreeLabel})

	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_queries_total",
		Help: "The number of octree queries, by kind.",
	}, []string{octreeLabel, kindLabel})

	updateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octree_update_duration_seconds",
		Help:    "The time spent in a frame update, reinsertion included.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{octreeLabel})
)

// treeMetrics holds the series of one tree, resolved once in New so the
// insert path never looks up labels.
type treeMetrics struct {
	octants        prometheus.Gauge
	drawables      prometheus.Gauge
	updates        prometheus.Counter
	reinsertions   prometheus.Counter
	updateDuration prometheus.Observer
	queries        *prometheus.CounterVec
}

func newTreeMetrics(name string) *treeMetrics {
	labels := prometheus.Labels{octreeLabel: name}
	return &treeMetrics{
		octants:        octantsGauge.With(labels),
		drawables:      drawablesGauge.With(labels),
		updates:        drawableUpdatesTotal.With(labels),
		reinsertions:   reinsertionsTotal.With(labels),
		updateDuration: updateDuration.With(labels),
		queries:        queriesTotal.MustCurryWith(labels),
	}
}

func (m *treeMetrics) instrumentUpdateDuration(start time.Time) {
	m.updateDuration.Observe(time.Since(start).Seconds())
}

func (m *treeMetrics) instrumentQuery(kind string) {
	m.queries.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func (m *treeMetrics) instrumentDrawableUpdates(n int) {
	if n == 0 {
		return
	}
	m.updates.Add(float64(n))
}

func (m *treeMetrics) instrumentReinsertions(n int) {
	if n == 0 {
		return
	}
	m.reinsertions.Add(float64(n))
}

func (m *treeMetrics) instrumentOctants(n int) {
	m.octants.Set(float64(n))
}

func (m *treeMetrics) instrumentDrawables(n int) {
	m.drawables.Set(float64(n))
}
