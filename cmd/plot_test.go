package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG")

func TestRenderPlot_SIRResults_WritesPNG(t *testing.T) {
	// GIVEN a compact results CSV for two regions over three days
	csv := "Region,Dia,S,I,R\n" +
		"0,0,99.00,1.00,0.00\n0,1,97.00,2.50,0.50\n0,2,94.00,4.50,1.50\n" +
		"1,0,100.00,0.00,0.00\n1,1,99.50,0.50,0.00\n1,2,98.00,1.50,0.50\n"
	var out bytes.Buffer

	// WHEN rendered as an SIR plot
	err := renderPlot(plotKindSIR, strings.NewReader(csv), &out)

	// THEN a PNG is produced
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Bytes(), pngMagic))
}

func TestRenderPlot_GrowthMetrics_WritesPNG(t *testing.T) {
	csv := "Iteration,CellCount\n0,1\n10,4\n20,9\n"
	var out bytes.Buffer

	err := renderPlot(plotKindGrowth, strings.NewReader(csv), &out)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Bytes(), pngMagic))
}

func TestRenderPlot_UnknownKind_ReturnsError(t *testing.T) {
	err := renderPlot("histogram", strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
