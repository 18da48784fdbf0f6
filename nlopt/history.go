package nlopt

// Record is one committed iteration's worth of decision state. The
// full run history is a single append-only slice of these, trimmed to
// the actual iteration count on return.
type Record struct {
	Iter            int
	X               []float64
	F               float64
	G               []float64
	GradNorm        float64
	Alpha           float64 // last accepted step length; NaN under TrustRegion
	Delta           float64 // trust-region radius; NaN outside TrustRegion
	Rho             float64 // achieved/predicted reduction ratio; only set under TrustRegion
	LineSearchEvals int
	Restarted       bool // CG hard restart occurred producing this record
}

// history is the append-only vector backing Result.Records.
type history struct {
	records []Record
}

func (h *history) push(r Record) { h.records = append(h.records, r) }

func (h *history) trimmed() []Record {
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}
