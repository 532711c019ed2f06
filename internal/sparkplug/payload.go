package sparkplug

import (
	"fmt"
	"time"
)

// DataType is the Sparkplug-B metric datatype.
type DataType uint32

const (
	Unknown  DataType = 0
	Int8     DataType = 1
	Int16    DataType = 2
	Int32    DataType = 3
	Int64    DataType = 4
	UInt8    DataType = 5
	UInt16   DataType = 6
	UInt32   DataType = 7
	UInt64   DataType = 8
	Float    DataType = 9
	Double   DataType = 10
	Boolean  DataType = 11
	String   DataType = 12
	DateTime DataType = 13
	Text     DataType = 14
	UUID     DataType = 15
	DataSet  DataType = 16
	Bytes    DataType = 17
	File     DataType = 18
	Template DataType = 19
)

var dataTypeNames = map[DataType]string{
	Int8: "Int8", Int16: "Int16", Int32: "Int32", Int64: "Int64",
	UInt8: "UInt8", UInt16: "UInt16", UInt32: "UInt32", UInt64: "UInt64",
	Float: "Float", Double: "Double", Boolean: "Boolean", String: "String",
	DateTime: "DateTime", Text: "Text", UUID: "UUID", DataSet: "DataSet",
	Bytes: "Bytes", File: "File", Template: "Template",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", uint32(d))
}

// Metric is a single named value inside a payload.
//
// Value holds int64 for signed integer types, uint64 for unsigned integer
// types and DateTime, float32 for Float, float64 for Double, bool, string for
// String/Text/UUID and []byte for Bytes/File. It is nil when IsNull is set or
// the metric carries no value.
type Metric struct {
	Name      string
	Alias     uint64
	HasAlias  bool
	Timestamp uint64
	DataType  DataType
	IsNull    bool
	Value     any
}

// Time returns the metric timestamp, or the zero time when absent.
func (m Metric) Time() time.Time {
	return msTime(m.Timestamp)
}

// Payload is a decoded Sparkplug-B payload.
type Payload struct {
	Timestamp uint64
	Seq       uint64
	HasSeq    bool
	UUID      string
	Body      []byte
	Metrics   []Metric
}

// Time returns the payload timestamp, or the zero time when absent.
func (p *Payload) Time() time.Time {
	return msTime(p.Timestamp)
}

// Metric returns the first metric named name.
func (p *Payload) Metric(name string) (Metric, bool) {
	for _, m := range p.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// NewPayload returns a payload stamped with now and seq.
func NewPayload(now time.Time, seq uint64, metrics ...Metric) *Payload {
	return &Payload{
		Timestamp: Millis(now),
		Seq:       seq,
		HasSeq:    true,
		Metrics:   metrics,
	}
}

// Millis converts t to Sparkplug milliseconds since the epoch.
func Millis(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixMilli())
}

func msTime(ms uint64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
