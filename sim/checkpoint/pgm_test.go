package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGMFileName(t *testing.T) {
	assert.Equal(t, "cancer_iter_0100.pgm", PGMFileName("cancer", 100))
	assert.Equal(t, "out/x_iter_12345.pgm", PGMFileName("out/x", 12345))
}

func TestWritePGM_Binary(t *testing.T) {
	s := &Snapshot{Width: 3, Height: 2, Cells: []byte{1, 0, 0, 0, 0, 1}}
	var buf bytes.Buffer
	require.NoError(t, WritePGM(&buf, s, false))

	want := append([]byte("P5\n3 2\n255\n"), 0, 255, 255, 255, 255, 0)
	assert.Equal(t, want, buf.Bytes())
}

func TestWritePGM_ASCII(t *testing.T) {
	s := &Snapshot{Width: 2, Height: 2, Cells: []byte{0, 1, 1, 0}}
	var buf bytes.Buffer
	require.NoError(t, WritePGM(&buf, s, true))
	assert.Equal(t, "P2\n2 2\n255\n255 0\n0 255\n", buf.String())
}

func TestSavePGM_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PGMFileName("grid", 0))
	s := &Snapshot{Width: 1, Height: 1, Cells: []byte{1}}
	require.NoError(t, SavePGM(path, s, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("P5\n1 1\n255\n"), 0), data)
}
