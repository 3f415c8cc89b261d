package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	drepo "FinScreen/internal/domain/repository"
)

var (
	_ drepo.Metrics = (*Recorder)(nil)
	_ drepo.Metrics = Nop{}
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordUpdate("CASH_MCAP", true)
	r.RecordUpdate("CASH_MCAP", false)
	r.RecordUpdate("CASH_MCAP", false)
	r.RecordScreen("CASH_MCAP", 7)
	r.RecordBacklog("OPT_IV", true)
	r.RecordFilterFault("OPT_IV")
	r.RecordNotification("telegram", "dropped")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.updates.WithLabelValues("CASH_MCAP", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.updates.WithLabelValues("CASH_MCAP", "fail")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.matches.WithLabelValues("CASH_MCAP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.backlog.WithLabelValues("OPT_IV")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filterFaults.WithLabelValues("OPT_IV")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues("telegram", "dropped")))

	r.RecordBacklog("OPT_IV", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.backlog.WithLabelValues("OPT_IV")))
}

func TestRecorderSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
