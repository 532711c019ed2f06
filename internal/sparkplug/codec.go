package sparkplug

import (
	"fmt"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Encode serializes p in the Sparkplug-B protobuf wire format.
func Encode(p *Payload) ([]byte, error) {
	msg := dynamicpb.NewMessage(wire.payload)

	if p.Timestamp != 0 {
		msg.Set(wire.payloadField(payloadTimestamp), protoreflect.ValueOfUint64(p.Timestamp))
	}

	list := msg.Mutable(wire.payloadField(payloadMetrics)).List()
	for i := range p.Metrics {
		m, err := encodeMetric(&p.Metrics[i])
		if err != nil {
			return nil, err
		}
		list.Append(protoreflect.ValueOfMessage(m))
	}

	if p.HasSeq {
		msg.Set(wire.payloadField(payloadSeq), protoreflect.ValueOfUint64(p.Seq))
	}
	if p.UUID != "" {
		msg.Set(wire.payloadField(payloadUUID), protoreflect.ValueOfString(p.UUID))
	}
	if len(p.Body) > 0 {
		msg.Set(wire.payloadField(payloadBody), protoreflect.ValueOfBytes(p.Body))
	}

	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, errors.New().Wrap(ErrEncode, err)
	}
	return b, nil
}

func encodeMetric(m *Metric) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(wire.metric)
	set := func(num protowire.Number, v protoreflect.Value) {
		msg.Set(wire.metricField(num), v)
	}

	if m.Name != "" {
		set(metricName, protoreflect.ValueOfString(m.Name))
	}
	if m.HasAlias {
		set(metricAlias, protoreflect.ValueOfUint64(m.Alias))
	}
	if m.Timestamp != 0 {
		set(metricTimestamp, protoreflect.ValueOfUint64(m.Timestamp))
	}
	if m.DataType != Unknown {
		set(metricDataType, protoreflect.ValueOfUint32(uint32(m.DataType)))
	}

	if m.IsNull || m.Value == nil {
		if m.IsNull {
			set(metricIsNull, protoreflect.ValueOfBool(true))
		}
		return msg, nil
	}

	dt := m.DataType
	if dt == Unknown {
		dt = dataTypeOf(m.Value)
	}

	errFactory := errors.New()
	bad := func() error {
		return errFactory.WithData(ErrEncode,
			fmt.Sprintf("%s: %T is not a %s value", m.Name, m.Value, dt))
	}

	switch dt {
	case Int8, Int16, Int32, UInt8, UInt16, UInt32:
		v, ok := asUint64(m.Value)
		if !ok {
			return nil, bad()
		}
		set(metricInt, protoreflect.ValueOfUint32(uint32(v)))
	case Int64, UInt64, DateTime:
		v, ok := asUint64(m.Value)
		if !ok {
			return nil, bad()
		}
		set(metricLong, protoreflect.ValueOfUint64(v))
	case Float:
		v, ok := asFloat64(m.Value)
		if !ok {
			return nil, bad()
		}
		set(metricFloat, protoreflect.ValueOfFloat32(float32(v)))
	case Double:
		v, ok := asFloat64(m.Value)
		if !ok {
			return nil, bad()
		}
		set(metricDouble, protoreflect.ValueOfFloat64(v))
	case Boolean:
		v, ok := m.Value.(bool)
		if !ok {
			return nil, bad()
		}
		set(metricBool, protoreflect.ValueOfBool(v))
	case String, Text, UUID:
		v, ok := m.Value.(string)
		if !ok {
			return nil, bad()
		}
		set(metricString, protoreflect.ValueOfString(v))
	case Bytes, File:
		v, ok := m.Value.([]byte)
		if !ok {
			return nil, bad()
		}
		set(metricBytes, protoreflect.ValueOfBytes(v))
	default:
		return nil, errFactory.WithData(ErrEncode,
			fmt.Sprintf("%s: unsupported datatype %s", m.Name, dt))
	}

	return msg, nil
}

// Decode parses a Sparkplug-B protobuf payload. Fields the client does not
// use (metadata, properties, datasets, templates) are skipped.
func Decode(b []byte) (*Payload, error) {
	errFactory := errors.New()

	msg := dynamicpb.NewMessage(wire.payload)
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, errFactory.Wrap(ErrDecode, err)
	}

	p := &Payload{
		Timestamp: msg.Get(wire.payloadField(payloadTimestamp)).Uint(),
		UUID:      msg.Get(wire.payloadField(payloadUUID)).String(),
	}
	if fd := wire.payloadField(payloadSeq); msg.Has(fd) {
		p.Seq = msg.Get(fd).Uint()
		p.HasSeq = true
	}
	if body := msg.Get(wire.payloadField(payloadBody)).Bytes(); len(body) > 0 {
		p.Body = append([]byte(nil), body...)
	}

	list := msg.Get(wire.payloadField(payloadMetrics)).List()
	for i := range list.Len() {
		m, err := decodeMetric(list.Get(i).Message())
		if err != nil {
			return nil, err
		}
		p.Metrics = append(p.Metrics, m)
	}

	return p, nil
}

func decodeMetric(msg protoreflect.Message) (Metric, error) {
	get := func(num protowire.Number) protoreflect.Value {
		return msg.Get(wire.metricField(num))
	}

	m := Metric{
		Name:      get(metricName).String(),
		Timestamp: get(metricTimestamp).Uint(),
		DataType:  DataType(get(metricDataType).Uint()),
		IsNull:    get(metricIsNull).Bool(),
	}
	if fd := wire.metricField(metricAlias); msg.Has(fd) {
		m.Alias = msg.Get(fd).Uint()
		m.HasAlias = true
	}

	fd := msg.WhichOneof(wire.value)
	if m.IsNull || fd == nil {
		return m, nil
	}

	v, err := value(fd.Number(), msg.Get(fd), m.DataType)
	if err != nil {
		return Metric{}, errors.New().WithData(ErrDecode, fmt.Sprintf("%s: %v", m.Name, err))
	}
	m.Value = v

	return m, nil
}

// value converts the populated value field to the Go type of dt. Data
// messages usually omit the datatype; the value then takes its type from
// the field it arrived in, with integers as int64 (see Coerce).
func value(field protowire.Number, v protoreflect.Value, dt DataType) (any, error) {
	switch field {
	case metricInt:
		n := uint32(v.Uint())
		switch dt {
		case Unknown, Int32:
			return int64(int32(n)), nil
		case Int8:
			return int64(int8(n)), nil
		case Int16:
			return int64(int16(n)), nil
		case UInt8, UInt16, UInt32:
			return uint64(n), nil
		}
	case metricLong:
		switch dt {
		case Unknown, Int64:
			return int64(v.Uint()), nil
		case UInt64, DateTime:
			return v.Uint(), nil
		}
	case metricFloat:
		if dt == Unknown || dt == Float {
			return float32(v.Float()), nil
		}
	case metricDouble:
		if dt == Unknown || dt == Double {
			return v.Float(), nil
		}
	case metricBool:
		if dt == Unknown || dt == Boolean {
			return v.Bool(), nil
		}
	case metricString:
		switch dt {
		case Unknown, String, Text, UUID:
			return v.String(), nil
		}
	case metricBytes:
		switch dt {
		case Unknown, Bytes, File:
			return append([]byte(nil), v.Bytes()...), nil
		}
	}

	return nil, fmt.Errorf("field %d does not carry a %s value", field, dt)
}

// Coerce reinterprets a value decoded without a datatype as dt, typically
// the datatype the metric declared in its birth certificate. Only integers
// need it: they decode as int64 when the datatype is absent.
func Coerce(v any, dt DataType) any {
	n, ok := v.(int64)
	if !ok {
		return v
	}

	switch dt {
	case Int8:
		return int64(int8(n))
	case Int16:
		return int64(int16(n))
	case Int32:
		return int64(int32(n))
	case UInt8, UInt16, UInt32:
		return uint64(uint32(n))
	case UInt64, DateTime:
		return uint64(n)
	default:
		return v
	}
}

// dataTypeOf picks the datatype for a metric sent without one.
func dataTypeOf(v any) DataType {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return Int64
	case uint, uint8, uint16, uint32, uint64:
		return UInt64
	case float32:
		return Float
	case float64:
		return Double
	case bool:
		return Boolean
	case string:
		return String
	case []byte:
		return Bytes
	default:
		return Unknown
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int:
		return uint64(n), true
	case int8:
		return uint64(n), true
	case int16:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case int64:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
