package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/aidash/internal/api"
)

func TestSeriesFrom_Empty(t *testing.T) {
	assert.Equal(t, Series{}, SeriesFrom(nil))
	assert.Equal(t, Series{}, SeriesFrom(&api.HistoryResponse{}))
}

func TestSeriesFrom_OrdersByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &api.HistoryResponse{Points: []api.HistoryPoint{
		{CollectedAt: base.Add(2 * time.Minute), CPUUsagePercent: 30, MemoryPercent: 3, NetworkRxBps: 100, NetworkTxBps: 50},
		{CollectedAt: base, CPUUsagePercent: 10, MemoryPercent: 1, DiskUtilPercent: 5},
		{CollectedAt: base.Add(time.Minute), CPUUsagePercent: 20, MemoryPercent: 2, SwapPercent: 7},
	}}

	s := SeriesFrom(h)
	assert.Equal(t, []float64{10, 20, 30}, s.CPU)
	assert.Equal(t, []float64{1, 2, 3}, s.Memory)
	assert.Equal(t, []float64{0, 7, 0}, s.Swap)
	assert.Equal(t, []float64{5, 0, 0}, s.DiskUtil)
	assert.Equal(t, []float64{0, 0, 150}, s.Network)
	assert.Empty(t, s.GPU)

	assert.Equal(t, base.Add(2*time.Minute), h.Points[0].CollectedAt, "the response is not reordered in place")
}

func TestSeriesFrom_GPUSkipsMissingReadings(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &api.HistoryResponse{Points: []api.HistoryPoint{
		{CollectedAt: base, GPUTopUtilPercent: ptr(50.0)},
		{CollectedAt: base.Add(time.Minute)},
		{CollectedAt: base.Add(2 * time.Minute), GPUTopUtilPercent: ptr(70.0)},
	}}

	assert.Equal(t, []float64{50, 70}, SeriesFrom(h).GPU)
}

func TestLastAndPeak(t *testing.T) {
	v, ok := Last(nil)
	assert.False(t, ok)
	assert.Zero(t, v)

	v, ok = Last([]float64{1, 9, 4})
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	assert.Equal(t, 9.0, Peak([]float64{1, 9, 4}))
	assert.Zero(t, Peak(nil))
}
