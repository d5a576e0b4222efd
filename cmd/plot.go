package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/checkpoint"
)

var (
	plotInput  string
	plotOutput string
	plotKind   string
)

// Plot kinds.
const (
	plotKindSIR    = "sir"
	plotKindGrowth = "growth"
)

// renderPlot reads a results or metrics CSV from in and draws it to out.
func renderPlot(kind string, in io.Reader, out io.Writer) error {
	switch kind {
	case plotKindSIR:
		series, err := checkpoint.ReadResults(in)
		if err != nil {
			return err
		}
		return checkpoint.PlotSIR(out, series)
	case plotKindGrowth:
		rows, err := checkpoint.ReadMetricsLog(in)
		if err != nil {
			return err
		}
		return checkpoint.PlotGrowth(out, rows)
	}
	return sim.NewConfigError("unknown plot kind %q; valid: sir, growth", kind)
}

// plotCmd draws a PNG from a previous run's CSV output
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot SIR curves or grid growth from a previous run's CSV",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if plotInput == "" {
			logrus.Fatalf("--input is required")
		}
		f, err := os.Open(plotInput)
		if err != nil {
			logrus.Fatalf("Failed to open %s: %v", plotInput, err)
		}
		defer f.Close()
		err = checkpoint.SavePlot(plotOutput, func(w io.Writer) error {
			return renderPlot(plotKind, f, w)
		})
		if err != nil {
			logrus.Fatalf("Plot failed: %v", err)
		}
		logrus.Infof("Plot written to %s", plotOutput)
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotInput, "input", "", "Results or metrics CSV to plot")
	plotCmd.Flags().StringVar(&plotOutput, "output", "plot.png", "PNG output path")
	plotCmd.Flags().StringVar(&plotKind, "kind", plotKindSIR, "Input kind (sir, growth)")
}
