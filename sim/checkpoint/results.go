package checkpoint

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/3LIAS-MB/halosim/sim"
)

// RegionSeries is one region's daily records, day 0 through the last day.
type RegionSeries struct {
	Region  int
	Records []sim.Record
}

type csvLayout struct {
	header []string
	prec   int
}

var csvLayouts = map[string]csvLayout{
	sim.CSVCompact: {header: []string{"Region", "Dia", "S", "I", "R"}, prec: 2},
	sim.CSVVerbose: {header: []string{"region", "dia", "susceptible", "infectado", "recuperado"}, prec: 4},
}

// WriteResults writes every series as CSV rows ordered by region, then day.
func WriteResults(w io.Writer, style string, series []RegionSeries) error {
	layout, ok := csvLayouts[style]
	if !ok {
		return sim.NewConfigError("unknown csv style %q", style)
	}
	ordered := make([]RegionSeries, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Region < ordered[j].Region })

	cw := csv.NewWriter(w)
	if err := cw.Write(layout.header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', layout.prec, 64) }
	for _, s := range ordered {
		for _, r := range s.Records {
			row := []string{strconv.Itoa(s.Region), strconv.Itoa(int(r.Day)), f(r.S), f(r.I), f(r.R)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveResults writes the results CSV to path.
func SaveResults(path, style string, series []RegionSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	if err := WriteResults(f, style, series); err != nil {
		f.Close()
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return f.Close()
}

// ReadResults parses a results CSV in either style. Series are returned in
// region order; records keep file order.
func ReadResults(r io.Reader) ([]RegionSeries, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if len(records) == 0 || !isResultsHeader(records[0]) {
		return nil, fmt.Errorf("read results: missing results header")
	}

	byRegion := make(map[int]*RegionSeries)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != 5 {
			return nil, fmt.Errorf("read results: line %d: expected 5 fields, got %d", line, len(rec))
		}
		region, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("read results: line %d: %w", line, err)
		}
		day, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("read results: line %d: %w", line, err)
		}
		var vals [3]float64
		for k := range vals {
			if vals[k], err = strconv.ParseFloat(rec[2+k], 64); err != nil {
				return nil, fmt.Errorf("read results: line %d: %w", line, err)
			}
		}
		s, ok := byRegion[region]
		if !ok {
			s = &RegionSeries{Region: region}
			byRegion[region] = s
		}
		s.Records = append(s.Records, sim.Record{Day: int32(day), S: vals[0], I: vals[1], R: vals[2]})
	}

	out := make([]RegionSeries, 0, len(byRegion))
	for _, s := range byRegion {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}

func isResultsHeader(row []string) bool {
	for _, layout := range csvLayouts {
		if len(row) != len(layout.header) {
			continue
		}
		match := true
		for i := range row {
			if row[i] != layout.header[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
