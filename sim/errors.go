package sim

import (
	"fmt"
	"strings"
)

// ConfigError reports invalid startup configuration: a malformed input file,
// too few regions, an out-of-range neighbour id or grid dimensions that do
// not divide evenly. Always fatal; the run never starts.
type ConfigError struct {
	Path string // input file, empty when the error is not tied to a file
	Line int    // 1-based line number, 0 when unknown
	Rank int    // partition the error concerns, -1 when not applicable
	Err  error
}

// NewConfigError builds a ConfigError that is not tied to a file or rank.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Rank: -1, Err: fmt.Errorf(format, args...)}
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if e.Rank >= 0 {
		fmt.Fprintf(&b, " (rank %d)", e.Rank)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CommError reports a fatal communication defect: a message whose size does
// not match the posted buffer, a peer rank outside the world, or a record
// from the wrong step. Never retried.
type CommError struct {
	Rank int // rank that detected the error
	Peer int // the other side of the message
	Tag  int
	Err  error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("comm error on rank %d (peer %d, tag %d): %v", e.Rank, e.Peer, e.Tag, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }
