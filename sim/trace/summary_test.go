package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalMessages != 0 || summary.TotalBytes != 0 || summary.UniqueLinks != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.MaxStep != -1 {
		t.Errorf("expected MaxStep -1, got %d", summary.MaxStep)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN messages over two links, one used twice
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelMessages})
	st.RecordMessage(MessageRecord{Step: 0, From: 0, To: 1, Bytes: 10})
	st.RecordMessage(MessageRecord{Step: 1, From: 0, To: 1, Bytes: 10})
	st.RecordMessage(MessageRecord{Step: 1, From: 1, To: 0, Bytes: 5})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalMessages != 3 {
		t.Errorf("expected 3 messages, got %d", summary.TotalMessages)
	}
	if summary.TotalBytes != 25 {
		t.Errorf("expected 25 bytes, got %d", summary.TotalBytes)
	}
	if summary.UniqueLinks != 2 {
		t.Errorf("expected 2 links, got %d", summary.UniqueLinks)
	}
	if summary.LinkDistribution[LinkName(0, 1)] != 2 {
		t.Errorf("expected 0->1 count 2, got %d", summary.LinkDistribution["0->1"])
	}
	if summary.MaxStep != 1 {
		t.Errorf("expected max step 1, got %d", summary.MaxStep)
	}
}
