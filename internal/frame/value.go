package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface over the cell types a table can hold.
// Only Null, Int, Float, Bool and String implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the missing-value marker. Outer merges and stacks write it into
// cells that have no source. Null never equals anything, itself included.
type Null struct{}

func (Null) value() {}

// Int is an integer cell (ids, pdg codes, counts).
type Int int64

func (Int) value() {}

// Float is a floating point cell (energies, positions).
type Float float64

func (Float) value() {}

// Bool is a boolean cell (flags, lifted predicates, signals).
type Bool bool

func (Bool) value() {}

// String is a categorical cell (marker tags, true-type categories).
type String string

func (String) value() {}

// IsNull reports whether v is missing. A nil Value counts as missing.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsTrue reports whether v is Bool(true). Null and non-bool values are not.
func IsTrue(v Value) bool {
	b, ok := v.(Bool)
	return ok && bool(b)
}

// AsFloat returns the numeric value of an Int or Float cell.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	default:
		return 0, false
	}
}

// Equal compares two cells. Int and Float compare numerically; Null is never
// equal to anything.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return false
	}
	if fa, ok := AsFloat(a); ok {
		fb, ok := AsFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	}
	return false
}

// TypeName returns a short name for the cell type, used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FromAny converts a decoded YAML/JSON scalar into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case float64:
		return Float(val), nil
	case float32:
		return Float(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return numberValue(string(val))
	default:
		return nil, fmt.Errorf("unsupported cell type: %T", v)
	}
}

// numberValue keeps integers as Int and anything with a fraction or
// exponent as Float.
func numberValue(s string) (Value, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", s, err)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("number out of int64 range: %s", s)
	}
	return Int(n), nil
}

// formatFloat renders a float so that it always reads back as a Float:
// integral values get a trailing ".0".
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v cannot be encoded", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

// MarshalValue encodes a single cell as JSON.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		s, err := formatFloat(float64(val))
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case Bool:
		return []byte(strconv.FormatBool(bool(val))), nil
	case String:
		return marshalCanonicalString(string(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// UnmarshalValue decodes a JSON scalar produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	switch raw.(type) {
	case []any, map[string]any:
		return nil, fmt.Errorf("composite JSON is not a cell value: %s", data)
	}
	return FromAny(raw)
}

// FormatValue renders a cell for text output.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', 6, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case String:
		return string(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
