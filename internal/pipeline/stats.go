package pipeline

import "sync"

// Stats is the running aggregate over documents a pipeline has finished.
// It is updated only after a document fully completes, so there is no
// intra-document sharing.
type Stats struct {
	mu         sync.Mutex
	documents  int
	successes  int
	avgTotalMs float64
	avgOCRMs   float64
	avgParseMs float64
}

// StatsSnapshot is a point-in-time copy of the running aggregates.
type StatsSnapshot struct {
	Documents  int     `json:"documents"`
	Successes  int     `json:"successes"`
	Failures   int     `json:"failures"`
	AvgTotalMs float64 `json:"avgTotalMs"`
	AvgOCRMs   float64 `json:"avgOcrMs"`
	AvgParseMs float64 `json:"avgParsingMs"`
}

func (s *Stats) record(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents++
	if res.Success {
		s.successes++
	}
	n := float64(s.documents)
	s.avgTotalMs += (float64(res.Performance.TotalTimeMs) - s.avgTotalMs) / n
	s.avgOCRMs += (float64(res.Performance.OCRTimeMs) - s.avgOCRMs) / n
	s.avgParseMs += (float64(res.Performance.ParsingTimeMs) - s.avgParseMs) / n
}

// Stats returns a snapshot of the pipeline's running statistics.
func (p *Pipeline) Stats() StatsSnapshot {
	p.stats.mu.Lock()
	defer p.stats.mu.Unlock()
	return StatsSnapshot{
		Documents:  p.stats.documents,
		Successes:  p.stats.successes,
		Failures:   p.stats.documents - p.stats.successes,
		AvgTotalMs: p.stats.avgTotalMs,
		AvgOCRMs:   p.stats.avgOCRMs,
		AvgParseMs: p.stats.avgParseMs,
	}
}
