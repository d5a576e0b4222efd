package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/3LIAS-MB/halosim/sim"
)

// RegionSpec is one region line of the input file.
type RegionSpec struct {
	ID         int
	N, S, I, R float64
	Neighbors  *NeighborList
	Line       int // 1-based line number in the source file
}

// GraphTopology is the neighbour graph of a region run. Region i is owned by
// worker i.
type GraphTopology struct {
	Regions []RegionSpec
}

// Size returns the number of regions (and workers).
func (g *GraphTopology) Size() int {
	return len(g.Regions)
}

// NeighborsOf returns the neighbour ids of region id in file order.
func (g *GraphTopology) NeighborsOf(id int) []int {
	return g.Regions[id].Neighbors.IDs()
}

// LoadGraph opens path and parses it with ParseGraph. Errors carry the path.
func LoadGraph(path string, workers, maxNeighbors int) (*GraphTopology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &sim.ConfigError{Path: path, Rank: -1, Err: err}
	}
	defer f.Close()

	g, err := ParseGraph(f, workers, maxNeighbors)
	if cfgErr, ok := err.(*sim.ConfigError); ok {
		cfgErr.Path = path
	}
	return g, err
}

// ParseGraph reads a region file: one region per data line,
//
//	N S I R neighbor_id*
//
// separated by whitespace. Lines starting with '#' and lines shorter than
// three characters are skipped. workers == 0 means one worker per data
// line; otherwise exactly the first workers data lines are used and the rest
// are ignored.
func ParseGraph(r io.Reader, workers, maxNeighbors int) (*GraphTopology, error) {
	if workers < 0 {
		return nil, sim.NewConfigError("workers must be non-negative, got %d", workers)
	}
	if maxNeighbors < 1 {
		maxNeighbors = DefaultMaxNeighbors
	}

	type rawLine struct {
		number int
		fields []string
	}
	var lines []rawLine
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(text, "#") || len(text) < 3 {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, rawLine{number: lineNo, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, &sim.ConfigError{Rank: -1, Err: fmt.Errorf("reading region file: %w", err)}
	}

	if workers == 0 {
		workers = len(lines)
	}
	if workers == 0 {
		return nil, sim.NewConfigError("region file has no data lines")
	}
	if len(lines) < workers {
		return nil, &sim.ConfigError{Line: lineNo, Rank: len(lines),
			Err: fmt.Errorf("region file has %d data lines, need %d", len(lines), workers)}
	}
	if len(lines) > workers {
		logrus.Warnf("region file has %d data lines; ignoring the %d beyond worker count %d",
			len(lines), len(lines)-workers, workers)
	}

	g := &GraphTopology{Regions: make([]RegionSpec, workers)}
	for id := 0; id < workers; id++ {
		spec, err := parseRegion(id, lines[id].number, lines[id].fields, workers, maxNeighbors)
		if err != nil {
			return nil, err
		}
		g.Regions[id] = spec
	}
	if err := g.checkSymmetric(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseRegion(id, line int, fields []string, workers, maxNeighbors int) (RegionSpec, error) {
	fail := func(format string, args ...any) (RegionSpec, error) {
		return RegionSpec{}, &sim.ConfigError{Line: line, Rank: id, Err: fmt.Errorf(format, args...)}
	}
	if len(fields) < 4 {
		return fail("expected N S I R, got %d fields", len(fields))
	}
	var vals [4]float64
	for i, name := range []string{"N", "S", "I", "R"} {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return fail("invalid %s %q", name, fields[i])
		}
		vals[i] = v
	}
	spec := RegionSpec{ID: id, N: vals[0], S: vals[1], I: vals[2], R: vals[3], Line: line}
	if !(spec.N > 0) {
		return fail("population N must be positive, got %g", spec.N)
	}
	if spec.S < 0 || spec.I < 0 || spec.R < 0 {
		return fail("compartments must be non-negative, got S=%g I=%g R=%g", spec.S, spec.I, spec.R)
	}

	spec.Neighbors = NewNeighborList(maxNeighbors)
	for _, tok := range fields[4:] {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return fail("invalid neighbor id %q", tok)
		}
		if n < 0 || n >= workers {
			return fail("neighbor %d outside [0, %d)", n, workers)
		}
		if n == id {
			return fail("region lists itself as a neighbor")
		}
		if spec.Neighbors.Contains(n) {
			return fail("duplicate neighbor %d", n)
		}
		if err := spec.Neighbors.Add(n); err != nil {
			return fail("too many neighbors: %v", err.(*sim.ConfigError).Err)
		}
	}
	return spec, nil
}

func (g *GraphTopology) checkSymmetric() error {
	for _, spec := range g.Regions {
		for _, n := range spec.Neighbors.IDs() {
			if !g.Regions[n].Neighbors.Contains(spec.ID) {
				return &sim.ConfigError{Line: spec.Line, Rank: spec.ID,
					Err: fmt.Errorf("region %d lists %d but %d does not list %d", spec.ID, n, n, spec.ID)}
			}
		}
	}
	return nil
}
