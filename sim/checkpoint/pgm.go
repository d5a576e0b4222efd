package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// PGM gray levels.
const (
	pgmOccupied = 0
	pgmEmpty    = 255
)

// PGMFileName returns the snapshot file name for iteration.
func PGMFileName(prefix string, iteration int) string {
	return fmt.Sprintf("%s_iter_%04d.pgm", prefix, iteration)
}

// WritePGM encodes s as a binary (P5) or, when ascii is set, plain (P2)
// graymap with maxval 255. Occupied cells are black.
func WritePGM(w io.Writer, s *Snapshot, ascii bool) error {
	bw := bufio.NewWriter(w)
	magic := "P5"
	if ascii {
		magic = "P2"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, s.Width, s.Height); err != nil {
		return err
	}
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			level := byte(pgmEmpty)
			if s.Occupied(x, y) {
				level = pgmOccupied
			}
			var err error
			if ascii {
				sep := byte(' ')
				if x == s.Width-1 {
					sep = '\n'
				}
				_, err = fmt.Fprintf(bw, "%d%c", level, sep)
			} else {
				err = bw.WriteByte(level)
			}
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// SavePGM writes s to path.
func SavePGM(path string, s *Snapshot, ascii bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := WritePGM(f, s, ascii); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return f.Close()
}
