package checkpoint

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFrame_ScalesCells(t *testing.T) {
	s := &Snapshot{Iteration: 3, Width: 40, Height: 30, Cells: make([]byte, 40*30)}
	s.Cells[29*40+39] = 1

	img := RenderFrame(s, 2)

	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
	// bottom-right cell is black, far from the label
	assert.Equal(t, occupiedColor, img.RGBAAt(79, 59))
	assert.Equal(t, emptyColor, img.RGBAAt(60, 40))
}

func TestVideo_WritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growth.avi")
	v, err := CreateVideo(path, 16, 16, 2, 5)
	require.NoError(t, err)

	for iter := 0; iter < 3; iter++ {
		s := &Snapshot{Iteration: iter, Width: 16, Height: 16, Cells: make([]byte, 256)}
		s.Cells[iter] = 1
		require.NoError(t, v.AddSnapshot(s))
	}
	assert.Error(t, v.AddSnapshot(&Snapshot{Width: 8, Height: 8, Cells: make([]byte, 64)}))
	require.NoError(t, v.Close())

	assert.Equal(t, 3, v.Frames())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestPlotSIR_RendersPNG(t *testing.T) {
	series := []RegionSeries{
		{Region: 0, Records: []sim.Record{{Day: 0, S: 90, I: 10}, {Day: 1, S: 80, I: 15, R: 5}, {Day: 2, S: 75, I: 10, R: 15}}},
		{Region: 1, Records: []sim.Record{{Day: 0, S: 50}, {Day: 1, S: 49, I: 1}, {Day: 2, S: 47, I: 2, R: 1}}},
	}
	var buf bytes.Buffer
	require.NoError(t, PlotSIR(&buf, series))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
}

func TestPlotSIR_RejectsSingleDay(t *testing.T) {
	err := PlotSIR(&bytes.Buffer{}, []RegionSeries{{Records: []sim.Record{{}}}})
	assert.Error(t, err)
}

func TestPlotGrowth_SavesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growth.png")
	rows := []CountRow{{0, 1}, {100, 40}, {200, 180}}
	require.NoError(t, SavePlot(path, func(w io.Writer) error { return PlotGrowth(w, rows) }))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}
