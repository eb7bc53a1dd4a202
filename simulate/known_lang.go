package simulate

import (
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
)

var boxes = map[string]string{
	"java/lang/Boolean":   jaxrsflow.Boolean,
	"java/lang/Byte":      jaxrsflow.Byte,
	"java/lang/Character": jaxrsflow.Char,
	"java/lang/Short":     jaxrsflow.Short,
	"java/lang/Integer":   jaxrsflow.Int,
	"java/lang/Long":      jaxrsflow.Long,
	"java/lang/Float":     jaxrsflow.Float,
	"java/lang/Double":    jaxrsflow.Double,
}

// invokeBoxing keeps literals through boxing and unboxing calls such as
// Integer.valueOf(int) and Integer.intValue().
func invokeBoxing(m jaxrsflow.MethodIdentifier, args []Element) (Element, bool) {
	prim, ok := boxes[m.ContainingClass]
	if !ok || len(args) != 1 {
		return Element{}, false
	}
	switch {
	case m.Static && m.Name == "valueOf" && len(m.Parameters) == 1 && m.Parameters[0] == prim:
		return args[0].WithTypes(m.ReturnType), true
	case !m.Static && strings.HasSuffix(m.Name, "Value") && jaxrsflow.IsPrimitive(m.ReturnType):
		out := Typed(m.ReturnType)
		for _, v := range args[0].values {
			if c, ok := convertLiteral(v, m.ReturnType); ok {
				out = out.Union(Literal(c, m.ReturnType))
			}
		}
		return out, true
	}
	return Element{}, false
}

// convertLiteral converts a numeric literal to the representation of desc.
func convertLiteral(v any, desc string) (any, bool) {
	var op string
	switch v.(type) {
	case int32:
		op = "I"
	case int64:
		op = "L"
	case float32:
		op = "F"
	case float64:
		op = "D"
	default:
		return nil, false
	}
	switch desc {
	case jaxrsflow.Int, jaxrsflow.Boolean:
		op += "2I"
	case jaxrsflow.Byte:
		op += "2B"
	case jaxrsflow.Char:
		op += "2C"
	case jaxrsflow.Short:
		op += "2S"
	case jaxrsflow.Long:
		op += "2L"
	case jaxrsflow.Float:
		op += "2F"
	case jaxrsflow.Double:
		op += "2D"
	default:
		return nil, false
	}
	if op[0] == op[2] {
		return v, true
	}
	if (op[0] == 'L' || op[0] == 'F' || op[0] == 'D') && (op[2] == 'B' || op[2] == 'C' || op[2] == 'S') {
		// no direct opcode, narrow through int
		i, ok := convert(string(op[0])+"2I", v)
		if !ok {
			return nil, false
		}
		return convert("I2"+string(op[2]), i)
	}
	return convert(op, v)
}
