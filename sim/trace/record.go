// Package trace provides message-trace recording for distributed simulation runs.
// This package has no dependencies on sim/ or its sub-packages; it stores pure data types.
package trace

// MessageRecord captures a single point-to-point message issued by a rank.
type MessageRecord struct {
	Step  int // simulation step the message belongs to; -1 before the loop
	From  int
	To    int
	Tag   int
	Bytes int
}
