package metrics

import (
	"encoding/hex"
	"strconv"

	"codeberg.org/mutker/vcmclient/internal/errors"
)

// Kind tags which field of a Value is meaningful.
type Kind int

const (
	KindUnset Kind = iota
	KindNumber
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "unset"
	}
}

// Value is a metric value: a number, a boolean or a string.
type Value struct {
	Kind   Kind
	Number float64
	Bool   bool
	Text   string
}

func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Text(s string) Value    { return Value{Kind: KindText, Text: s} }

// ValueOf converts a decoded payload value. Byte slices are shown as hex.
func ValueOf(v any) (Value, error) {
	switch n := v.(type) {
	case int:
		return Number(float64(n)), nil
	case int8:
		return Number(float64(n)), nil
	case int16:
		return Number(float64(n)), nil
	case int32:
		return Number(float64(n)), nil
	case int64:
		return Number(float64(n)), nil
	case uint:
		return Number(float64(n)), nil
	case uint8:
		return Number(float64(n)), nil
	case uint16:
		return Number(float64(n)), nil
	case uint32:
		return Number(float64(n)), nil
	case uint64:
		return Number(float64(n)), nil
	case float32:
		// Round-trip through the shortest float32 text so 0.1 stays 0.1.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(n), 'g', -1, 32), 64)
		return Number(f), nil
	case float64:
		return Number(n), nil
	case bool:
		return Bool(n), nil
	case string:
		return Text(n), nil
	case []byte:
		return Text(hex.EncodeToString(n)), nil
	default:
		return Value{}, errors.New().WithData(ErrInvalidValue, v)
	}
}

// IsSet reports whether the value has ever been assigned.
func (v Value) IsSet() bool {
	return v.Kind != KindUnset
}

// Int returns the value as an integer when it is a whole number.
func (v Value) Int() (int64, bool) {
	if v.Kind != KindNumber || v.Number != float64(int64(v.Number)) {
		return 0, false
	}
	return int64(v.Number), true
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindText:
		return v.Text
	default:
		return ""
	}
}
