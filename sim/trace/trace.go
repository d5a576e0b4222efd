package trace

// TraceLevel controls the verbosity of exchange tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelMessages captures every point-to-point message a rank issues.
	TraceLevelMessages TraceLevel = "messages"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelMessages: true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether messages should be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelMessages
}

// SimulationTrace collects message records. One trace belongs to one rank
// while the simulation runs; Merge combines them afterwards.
type SimulationTrace struct {
	Config   TraceConfig
	Messages []MessageRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:   config,
		Messages: make([]MessageRecord, 0),
	}
}

// RecordMessage appends a message record.
func (st *SimulationTrace) RecordMessage(record MessageRecord) {
	st.Messages = append(st.Messages, record)
}

// Merge concatenates per-rank traces in argument order. Nil traces are skipped.
func Merge(config TraceConfig, traces ...*SimulationTrace) *SimulationTrace {
	merged := NewSimulationTrace(config)
	for _, st := range traces {
		if st == nil {
			continue
		}
		merged.Messages = append(merged.Messages, st.Messages...)
	}
	return merged
}
