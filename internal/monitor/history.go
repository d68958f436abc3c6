package monitor

import (
	"sort"

	"github.com/rileyhilliard/aidash/internal/api"
)

// Series holds chart-ready values taken from a history window, oldest
// first. GPU is empty when no point reported a GPU.
type Series struct {
	CPU      []float64
	Memory   []float64
	Swap     []float64
	DiskUtil []float64
	Network  []float64 // rx + tx bytes per second
	GPU      []float64
}

// SeriesFrom extracts chart series from a history response. Points are
// ordered by collection time whatever order the backend sent them in.
func SeriesFrom(h *api.HistoryResponse) Series {
	if h == nil || len(h.Points) == 0 {
		return Series{}
	}

	points := make([]api.HistoryPoint, len(h.Points))
	copy(points, h.Points)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CollectedAt.Before(points[j].CollectedAt)
	})

	s := Series{
		CPU:      make([]float64, 0, len(points)),
		Memory:   make([]float64, 0, len(points)),
		Swap:     make([]float64, 0, len(points)),
		DiskUtil: make([]float64, 0, len(points)),
		Network:  make([]float64, 0, len(points)),
	}
	for _, p := range points {
		s.CPU = append(s.CPU, p.CPUUsagePercent)
		s.Memory = append(s.Memory, p.MemoryPercent)
		s.Swap = append(s.Swap, p.SwapPercent)
		s.DiskUtil = append(s.DiskUtil, p.DiskUtilPercent)
		s.Network = append(s.Network, p.NetworkRxBps+p.NetworkTxBps)
		if p.GPUTopUtilPercent != nil {
			s.GPU = append(s.GPU, *p.GPUTopUtilPercent)
		}
	}
	return s
}

// Last returns the newest value of a series.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// Peak returns the largest value of a series.
func Peak(series []float64) float64 {
	var peak float64
	for _, v := range series {
		if v > peak {
			peak = v
		}
	}
	return peak
}
