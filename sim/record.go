package sim

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RecordVersion is the current wire layout version of Record.
const RecordVersion byte = 1

// RecordSize is the encoded size of one Record:
//
//	offset 0   uint8   version (RecordVersion)
//	offset 1   int32   day, big-endian
//	offset 5   float64 S, big-endian IEEE-754
//	offset 13  float64 I
//	offset 21  float64 R
const RecordSize = 29

// Record is one partition's compartment state on one day. It is the unit of
// both the per-step migration exchange (I carries the flow) and the final
// time-series gather.
type Record struct {
	Day     int32
	S, I, R float64
}

// PutRecord encodes r into dst, which must be at least RecordSize long.
func PutRecord(dst []byte, r Record) {
	_ = dst[RecordSize-1]
	dst[0] = RecordVersion
	binary.BigEndian.PutUint32(dst[1:], uint32(r.Day))
	binary.BigEndian.PutUint64(dst[5:], math.Float64bits(r.S))
	binary.BigEndian.PutUint64(dst[13:], math.Float64bits(r.I))
	binary.BigEndian.PutUint64(dst[21:], math.Float64bits(r.R))
}

// ReadRecord decodes one Record from the first RecordSize bytes of src.
func ReadRecord(src []byte) (Record, error) {
	if len(src) < RecordSize {
		return Record{}, fmt.Errorf("record needs %d bytes, got %d", RecordSize, len(src))
	}
	if src[0] != RecordVersion {
		return Record{}, fmt.Errorf("unsupported record version %d (want %d)", src[0], RecordVersion)
	}
	return Record{
		Day: int32(binary.BigEndian.Uint32(src[1:])),
		S:   math.Float64frombits(binary.BigEndian.Uint64(src[5:])),
		I:   math.Float64frombits(binary.BigEndian.Uint64(src[13:])),
		R:   math.Float64frombits(binary.BigEndian.Uint64(src[21:])),
	}, nil
}

// EncodeRecords packs records back to back.
func EncodeRecords(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i, r := range records {
		PutRecord(buf[i*RecordSize:], r)
	}
	return buf
}

// DecodeRecords unpacks a buffer produced by EncodeRecords. The buffer length
// must be an exact multiple of RecordSize.
func DecodeRecords(buf []byte) ([]Record, error) {
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of record size %d", len(buf), RecordSize)
	}
	records := make([]Record, len(buf)/RecordSize)
	for i := range records {
		r, err := ReadRecord(buf[i*RecordSize:])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = r
	}
	return records, nil
}

// EncodeFloat64s packs values as big-endian IEEE-754 doubles. Used for the
// fixed-size summary vectors gathered after a region run.
func EncodeFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64s is the inverse of EncodeFloat64s.
func DecodeFloat64s(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 8", len(buf))
	}
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[8*i:]))
	}
	return values, nil
}
