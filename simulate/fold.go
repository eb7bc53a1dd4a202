package simulate

import (
	"math"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
)

// resultType returns the descriptor pushed by an arithmetic, conversion or
// comparison opcode, or "" when name is not one of those.
func resultType(name string) string {
	if to, ok := conversionTarget(name); ok {
		return to
	}
	switch name {
	case "LCMP", "FCMPL", "FCMPG", "DCMPL", "DCMPG", "ARRAYLENGTH", "INSTANCEOF":
		return jaxrsflow.Int
	}
	if len(name) < 4 {
		return ""
	}
	switch name[1:] {
	case "ADD", "SUB", "MUL", "DIV", "REM", "NEG", "SHL", "SHR", "USHR", "AND", "OR", "XOR":
	default:
		return ""
	}
	switch name[0] {
	case 'I':
		return jaxrsflow.Int
	case 'L':
		return jaxrsflow.Long
	case 'F':
		return jaxrsflow.Float
	case 'D':
		return jaxrsflow.Double
	}
	return ""
}

func conversionTarget(name string) (string, bool) {
	if len(name) != 3 || name[1] != '2' {
		return "", false
	}
	switch name[2] {
	case 'I', 'B', 'C', 'S':
		return jaxrsflow.Int, true
	case 'L':
		return jaxrsflow.Long, true
	case 'F':
		return jaxrsflow.Float, true
	case 'D':
		return jaxrsflow.Double, true
	}
	return "", false
}

// fold evaluates name over operands when every operand is a single literal.
// The boolean result is false when the operation is unknown or an operand is
// not a literal; integer division by zero is never folded.
func fold(name string, operands []Element) (any, bool) {
	vals := make([]any, len(operands))
	for i, op := range operands {
		v, ok := op.Single()
		if !ok {
			return nil, false
		}
		vals[i] = v
	}

	if _, ok := conversionTarget(name); ok && len(vals) == 1 {
		return convert(name, vals[0])
	}

	switch {
	case len(vals) == 1 && strings.HasSuffix(name, "NEG"):
		switch x := vals[0].(type) {
		case int32:
			return -x, true
		case int64:
			return -x, true
		case float32:
			return -x, true
		case float64:
			return -x, true
		}
		return nil, false
	case len(vals) != 2:
		return nil, false
	}

	a, b := vals[0], vals[1]
	switch name {
	case "LCMP":
		x, ok1 := a.(int64)
		y, ok2 := b.(int64)
		if !ok1 || !ok2 {
			return nil, false
		}
		return compare(x < y, x > y), true
	case "FCMPL", "FCMPG":
		x, ok1 := a.(float32)
		y, ok2 := b.(float32)
		if !ok1 || !ok2 {
			return nil, false
		}
		if x != x || y != y {
			return nanCompare(name), true
		}
		return compare(x < y, x > y), true
	case "DCMPL", "DCMPG":
		x, ok1 := a.(float64)
		y, ok2 := b.(float64)
		if !ok1 || !ok2 {
			return nil, false
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			return nanCompare(name), true
		}
		return compare(x < y, x > y), true
	}

	if len(name) < 4 {
		return nil, false
	}
	op := name[1:]
	switch name[0] {
	case 'I':
		x, ok1 := a.(int32)
		y, ok2 := b.(int32)
		if !ok1 || !ok2 {
			return nil, false
		}
		return foldInt(op, x, y)
	case 'L':
		x, ok1 := a.(int64)
		if !ok1 {
			return nil, false
		}
		// shift distances are ints
		if op == "SHL" || op == "SHR" || op == "USHR" {
			y, ok := b.(int32)
			if !ok {
				return nil, false
			}
			return foldLong(op, x, int64(y))
		}
		y, ok2 := b.(int64)
		if !ok2 {
			return nil, false
		}
		return foldLong(op, x, y)
	case 'F':
		x, ok1 := a.(float32)
		y, ok2 := b.(float32)
		if !ok1 || !ok2 {
			return nil, false
		}
		r, ok := foldFloat(op, float64(x), float64(y))
		if !ok {
			return nil, false
		}
		return float32(r), true
	case 'D':
		x, ok1 := a.(float64)
		y, ok2 := b.(float64)
		if !ok1 || !ok2 {
			return nil, false
		}
		return foldFloat(op, x, y)
	}
	return nil, false
}

func foldInt(op string, x, y int32) (any, bool) {
	switch op {
	case "ADD":
		return x + y, true
	case "SUB":
		return x - y, true
	case "MUL":
		return x * y, true
	case "DIV":
		if y == 0 {
			return nil, false
		}
		return x / y, true
	case "REM":
		if y == 0 {
			return nil, false
		}
		return x % y, true
	case "SHL":
		return x << (uint32(y) & 31), true
	case "SHR":
		return x >> (uint32(y) & 31), true
	case "USHR":
		return int32(uint32(x) >> (uint32(y) & 31)), true
	case "AND":
		return x & y, true
	case "OR":
		return x | y, true
	case "XOR":
		return x ^ y, true
	}
	return nil, false
}

func foldLong(op string, x, y int64) (any, bool) {
	switch op {
	case "ADD":
		return x + y, true
	case "SUB":
		return x - y, true
	case "MUL":
		return x * y, true
	case "DIV":
		if y == 0 {
			return nil, false
		}
		return x / y, true
	case "REM":
		if y == 0 {
			return nil, false
		}
		return x % y, true
	case "SHL":
		return x << (uint64(y) & 63), true
	case "SHR":
		return x >> (uint64(y) & 63), true
	case "USHR":
		return int64(uint64(x) >> (uint64(y) & 63)), true
	case "AND":
		return x & y, true
	case "OR":
		return x | y, true
	case "XOR":
		return x ^ y, true
	}
	return nil, false
}

func foldFloat(op string, x, y float64) (float64, bool) {
	switch op {
	case "ADD":
		return x + y, true
	case "SUB":
		return x - y, true
	case "MUL":
		return x * y, true
	case "DIV":
		return x / y, true
	case "REM":
		return math.Mod(x, y), true
	}
	return 0, false
}

func compare(less, greater bool) int32 {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func nanCompare(name string) int32 {
	if strings.HasSuffix(name, "L") {
		return -1
	}
	return 1
}

func convert(name string, v any) (any, bool) {
	var f float64
	var i int64
	isFloat := false
	switch x := v.(type) {
	case int32:
		i = int64(x)
	case int64:
		i = x
	case float32:
		f, isFloat = float64(x), true
	case float64:
		f, isFloat = x, true
	default:
		return nil, false
	}
	switch name[2] {
	case 'I':
		if isFloat {
			return saturate32(f), true
		}
		return int32(i), true
	case 'L':
		if isFloat {
			return saturate64(f), true
		}
		return i, true
	case 'F':
		if isFloat {
			return float32(f), true
		}
		return float32(i), true
	case 'D':
		if isFloat {
			return f, true
		}
		return float64(i), true
	case 'B':
		return int32(int8(i)), true
	case 'C':
		return int32(uint16(i)), true
	case 'S':
		return int32(int16(i)), true
	}
	return nil, false
}

// saturate32 converts like the JVM's f2i/d2i: NaN is 0 and out of range
// values clamp.
func saturate32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func saturate64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
