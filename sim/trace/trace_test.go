package trace

import (
	"testing"
)

func TestSimulationTrace_RecordMessage_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for messages
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelMessages})

	// WHEN a message record is recorded
	st.RecordMessage(MessageRecord{Step: 3, From: 0, To: 1, Tag: 2, Bytes: 128})

	// THEN the trace contains one message record with correct data
	if len(st.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(st.Messages))
	}
	if st.Messages[0].To != 1 || st.Messages[0].Bytes != 128 {
		t.Errorf("unexpected record %+v", st.Messages[0])
	}
}

func TestMerge_ConcatenatesInArgumentOrder(t *testing.T) {
	// GIVEN two per-rank traces and a nil one
	a := NewSimulationTrace(TraceConfig{Level: TraceLevelMessages})
	a.RecordMessage(MessageRecord{From: 0, To: 1})
	b := NewSimulationTrace(TraceConfig{Level: TraceLevelMessages})
	b.RecordMessage(MessageRecord{From: 1, To: 0})
	b.RecordMessage(MessageRecord{From: 1, To: 2})

	// WHEN merged
	merged := Merge(TraceConfig{Level: TraceLevelMessages}, a, nil, b)

	// THEN order is preserved
	if len(merged.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(merged.Messages))
	}
	if merged.Messages[0].From != 0 || merged.Messages[2].To != 2 {
		t.Error("merge order not preserved")
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none must be disabled")
	}
	if (TraceConfig{}).Enabled() {
		t.Error("empty level must be disabled")
	}
	if !(TraceConfig{Level: TraceLevelMessages}).Enabled() {
		t.Error("messages must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"messages", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"MESSAGES", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
