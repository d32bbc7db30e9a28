package bridge

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// latencyWindowSize bounds the samples kept per feed.
const latencyWindowSize = 64

// LatencyStats summarizes poll→update round trips for a feed, in
// milliseconds.
type LatencyStats struct {
	Samples int     `json:"samples"`
	MeanMs  float64 `json:"mean_ms"`
	StdDev  float64 `json:"stddev_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// latencyWindow is a ring of the most recent round-trip samples.
type latencyWindow struct {
	samples []float64
	next    int
}

func (w *latencyWindow) add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if len(w.samples) < latencyWindowSize {
		w.samples = append(w.samples, ms)
		return
	}
	w.samples[w.next] = ms
	w.next = (w.next + 1) % latencyWindowSize
}

func (w *latencyWindow) summary() LatencyStats {
	if len(w.samples) == 0 {
		return LatencyStats{}
	}
	s := LatencyStats{Samples: len(w.samples)}
	if len(w.samples) == 1 {
		s.MeanMs = w.samples[0]
	} else {
		s.MeanMs, s.StdDev = stat.MeanStdDev(w.samples, nil)
	}
	for _, v := range w.samples {
		if v > s.MaxMs {
			s.MaxMs = v
		}
	}
	return s
}
