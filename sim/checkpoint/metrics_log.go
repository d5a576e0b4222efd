package checkpoint

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// metricsHeader is the header row of the grid metrics log.
var metricsHeader = []string{"Iteration", "CellCount"}

// CountRow is one aggregated occupied-cell count.
type CountRow struct {
	Iteration int
	Count     int64
}

// MetricsLog appends CountRows to a CSV stream, flushing after every row so
// a crashed run keeps what it had logged.
type MetricsLog struct {
	w      *csv.Writer
	closer io.Closer
	rows   []CountRow
}

// NewMetricsLog writes the header to w and returns the log.
func NewMetricsLog(w io.Writer) (*MetricsLog, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(metricsHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	return &MetricsLog{w: cw}, cw.Error()
}

// CreateMetricsLog creates path and writes the header.
func CreateMetricsLog(path string) (*MetricsLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create metrics log: %w", err)
	}
	m, err := NewMetricsLog(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// Append writes one row.
func (m *MetricsLog) Append(iteration int, count int64) error {
	m.rows = append(m.rows, CountRow{Iteration: iteration, Count: count})
	if err := m.w.Write([]string{strconv.Itoa(iteration), strconv.FormatInt(count, 10)}); err != nil {
		return err
	}
	m.w.Flush()
	return m.w.Error()
}

// Rows returns every row appended so far.
func (m *MetricsLog) Rows() []CountRow {
	return m.rows
}

// Close closes the underlying file, if the log owns one.
func (m *MetricsLog) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// ReadMetricsLog parses a metrics log written by MetricsLog.
func ReadMetricsLog(r io.Reader) ([]CountRow, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metrics log: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != metricsHeader[0] {
		return nil, fmt.Errorf("read metrics log: missing %s,%s header", metricsHeader[0], metricsHeader[1])
	}
	rows := make([]CountRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		iter, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("read metrics log: row %d: %w", i+2, err)
		}
		count, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("read metrics log: row %d: %w", i+2, err)
		}
		rows = append(rows, CountRow{Iteration: iter, Count: count})
	}
	return rows, nil
}
