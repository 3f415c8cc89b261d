package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticks         prometheus.Counter
	tickDuration  prometheus.Histogram
	updates       *prometheus.CounterVec
	screens       *prometheus.CounterVec
	matches       *prometheus.GaugeVec
	backlog       *prometheus.GaugeVec
	filterFaults  *prometheus.CounterVec
	groupRefresh  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sourceLoads   *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "screener_ticks_total",
			Help: "Scheduling loop iterations",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_tick_duration_seconds",
			Help:    "Time spent in the update and screen passes of one tick",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		updates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_updates_total",
				Help: "Update attempts by screener and result",
			},
			[]string{"screener", "result"},
		),
		screens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_screens_total",
				Help: "Completed screen passes",
			},
			[]string{"screener"},
		),
		matches: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "screener_matches",
				Help: "Symbols matched by the last screen pass",
			},
			[]string{"screener"},
		),
		backlog: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "screener_backlog",
				Help: "1 while the last update attempt of a screener failed",
			},
			[]string{"screener"},
		),
		filterFaults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_filter_faults_total",
				Help: "Symbols skipped because their record could not be screened",
			},
			[]string{"screener"},
		),
		groupRefresh: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_group_refresh_total",
				Help: "Ticker group refresh attempts",
			},
			[]string{"result"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_notifications_total",
				Help: "Notifications by channel kind and outcome",
			},
			[]string{"kind", "result"},
		),
		sourceLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_source_loads_total",
				Help: "Stats source loads by result",
			},
			[]string{"source", "result"},
		),
		sourceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_source_load_seconds",
				Help:    "Duration of stats source loads",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

// RecordTick records one loop iteration and its busy time.
func (r *Recorder) RecordTick(seconds float64) {
	r.ticks.Inc()
	r.tickDuration.Observe(seconds)
}

func (r *Recorder) RecordUpdate(screener string, ok bool) {
	r.updates.WithLabelValues(screener, result(ok)).Inc()
}

func (r *Recorder) RecordScreen(screener string, matches int) {
	r.screens.WithLabelValues(screener).Inc()
	r.matches.WithLabelValues(screener).Set(float64(matches))
}

// RecordBacklog flags a screener whose data is not ready.
func (r *Recorder) RecordBacklog(screener string, backlog bool) {
	v := 0.0
	if backlog {
		v = 1
	}
	r.backlog.WithLabelValues(screener).Set(v)
}

func (r *Recorder) RecordFilterFault(screener string) {
	r.filterFaults.WithLabelValues(screener).Inc()
}

func (r *Recorder) RecordGroupRefresh(ok bool) {
	r.groupRefresh.WithLabelValues(result(ok)).Inc()
}

func (r *Recorder) RecordNotification(kind, res string) {
	r.notifications.WithLabelValues(kind, res).Inc()
}

func (r *Recorder) RecordSourceLoad(source string, ok bool, seconds float64) {
	r.sourceLoads.WithLabelValues(source, result(ok)).Inc()
	r.sourceLatency.WithLabelValues(source).Observe(seconds)
}
