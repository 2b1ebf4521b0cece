package recognize

// Result is one scored recognition attempt. The orchestrator keeps only the
// highest-scoring instance per document.
type Result struct {
	Text             string
	EngineConfidence float64 // engine-reported mean word confidence, 0-100
	QualityScore     float64 // scored 0-100, see Score
	Method           string  // variant+config label, e.g. "enhanced+block"
	ProcessingTimeMs int64
}
