package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	require.NotPanics(t, Register)
	require.NotPanics(t, Register)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["courierstats_deliveries_recorded_total"])
	assert.True(t, names["courierstats_reports_failed_total"])
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DeliveriesDroppedTotal)
	DeliveriesDroppedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DeliveriesDroppedTotal))
}
