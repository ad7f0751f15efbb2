package dataset

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Value is one cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

func Null() Value { return Value{} }

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value the way it is displayed, searched and exported.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Any returns the value as a plain Go scalar (nil for Null).
func (v Value) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
		return json.Marshal(formatNumber(v.Num))
	}
	return json.Marshal(v.Any())
}

// kindRank fixes the cross-kind order: null < number < string < bool.
var kindRank = [...]int{
	KindNull:   0,
	KindNumber: 1,
	KindString: 2,
	KindBool:   3,
}

// Compare orders two values. Values of different kinds order by kind rank;
// numbers compare numerically, strings byte-wise, false before true.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		return cmp.Compare(kindRank[a.Kind], kindRank[b.Kind])
	}
	switch a.Kind {
	case KindNumber:
		return cmp.Compare(a.Num, b.Num)
	case KindString:
		return strings.Compare(a.Str, b.Str)
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

var floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// maxExactInt bounds inferred numbers to the range a float64 holds exactly.
const maxExactInt = 1 << 53

// Infer converts a raw cell to a typed value: empty becomes Null, the tokens
// true/TRUE/false/FALSE become Bool, numeric text becomes Number and
// anything else stays a String.
func Infer(raw string) Value {
	switch raw {
	case "":
		return Null()
	case "true", "TRUE":
		return Bool(true)
	case "false", "FALSE":
		return Bool(false)
	}

	if floatPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && f > -maxExactInt && f < maxExactInt {
			return Number(f)
		}
	}

	return String(raw)
}

// formatNumber prints the shortest representation that round-trips, using
// exponent form only for very large or very small magnitudes.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits ("1e-07"); drop the padding
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
