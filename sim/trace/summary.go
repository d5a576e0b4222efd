package trace

import "fmt"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalMessages    int
	TotalBytes       int
	UniqueLinks      int
	MaxStep          int
	LinkDistribution map[string]int // "from->to" → message count
}

// LinkName formats a directed link key as used in LinkDistribution.
func LinkName(from, to int) string {
	return fmt.Sprintf("%d->%d", from, to)
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		LinkDistribution: make(map[string]int),
		MaxStep:          -1,
	}
	if st == nil {
		return summary
	}

	for _, m := range st.Messages {
		summary.TotalMessages++
		summary.TotalBytes += m.Bytes
		summary.LinkDistribution[LinkName(m.From, m.To)]++
		if m.Step > summary.MaxStep {
			summary.MaxStep = m.Step
		}
	}
	summary.UniqueLinks = len(summary.LinkDistribution)

	return summary
}
