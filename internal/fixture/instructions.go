package fixture

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"gopkg.in/yaml.v3"
)

// InstructionSpec is one instruction of a method body. Operand-free
// instructions may be written as a bare op name, e.g. "- dup".
type InstructionSpec struct {
	Op        string `yaml:"op"`
	Slot      int    `yaml:"slot,omitempty"`
	Type      string `yaml:"type,omitempty"`
	Value     any    `yaml:"value,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Owner     string `yaml:"owner,omitempty"`
	Class     string `yaml:"class,omitempty"`
	Signature string `yaml:"signature,omitempty"`
	Static    bool   `yaml:"static,omitempty"`
	Void      bool   `yaml:"void,omitempty"`
	Target    int    `yaml:"target,omitempty"`
	Targets   []int  `yaml:"targets,omitempty"`
	Pops      int    `yaml:"pops,omitempty"`
	Pushes    int    `yaml:"pushes,omitempty"`
}

func (s *InstructionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = InstructionSpec{Op: node.Value}
		return nil
	}
	type plain InstructionSpec
	return node.Decode((*plain)(s))
}

func instructions(specs []InstructionSpec) ([]jaxrsflow.Instruction, error) {
	code := make([]jaxrsflow.Instruction, 0, len(specs))
	for i, s := range specs {
		ins, err := s.instruction()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		for _, t := range ins.Targets() {
			if t < 0 || t >= len(specs) {
				return nil, fmt.Errorf("instruction %d: target %d out of range", i, t)
			}
		}
		code = append(code, ins)
	}
	return code, nil
}

func (s InstructionSpec) instruction() (jaxrsflow.Instruction, error) {
	kind, ok := jaxrsflow.ParseKind(s.Op)
	if !ok {
		return jaxrsflow.Instruction{}, fmt.Errorf("%q: %w", s.Op, ErrUnknownKind)
	}

	switch kind {
	case jaxrsflow.KindLoad:
		if s.Name != "" {
			return jaxrsflow.LoadNamed(s.Slot, s.Type, s.Name), nil
		}
		return jaxrsflow.Load(s.Slot, s.Type), nil
	case jaxrsflow.KindStore:
		return jaxrsflow.Store(s.Slot, s.Type), nil
	case jaxrsflow.KindPush:
		return jaxrsflow.Push(s.Value, constantType(s.Value, s.Type)), nil
	case jaxrsflow.KindNew:
		if s.Class == "" {
			return jaxrsflow.Instruction{}, fmt.Errorf("new needs a class")
		}
		return jaxrsflow.New(s.Class), nil
	case jaxrsflow.KindDup:
		return jaxrsflow.Dup(), nil
	case jaxrsflow.KindInvoke:
		m, err := jaxrsflow.MethodOf(s.Owner, s.Name, s.Signature, s.Static)
		if err != nil {
			return jaxrsflow.Instruction{}, fmt.Errorf("invoke %s.%s: %w", s.Owner, s.Name, err)
		}
		return jaxrsflow.Invoke(m), nil
	case jaxrsflow.KindGetField:
		return jaxrsflow.GetField(s.Owner, s.Name, s.Type), nil
	case jaxrsflow.KindPutField:
		return jaxrsflow.PutField(s.Owner, s.Name, s.Type), nil
	case jaxrsflow.KindGetStatic:
		return jaxrsflow.GetStatic(s.Owner, s.Name, s.Type), nil
	case jaxrsflow.KindPutStatic:
		return jaxrsflow.PutStatic(s.Owner, s.Name, s.Type), nil
	case jaxrsflow.KindReturn:
		if s.Void || s.Type == jaxrsflow.Void {
			return jaxrsflow.ReturnVoid(), nil
		}
		return jaxrsflow.Return(), nil
	case jaxrsflow.KindThrow:
		return jaxrsflow.Throw(), nil
	case jaxrsflow.KindExceptionHandler:
		return jaxrsflow.ExceptionHandler(), nil
	case jaxrsflow.KindJump:
		return jaxrsflow.Jump(s.Target), nil
	case jaxrsflow.KindBranch:
		if s.Pops < 0 {
			return jaxrsflow.Instruction{}, fmt.Errorf("negative pops %d", s.Pops)
		}
		pops := s.Pops
		if pops == 0 {
			pops = 1
		}
		return jaxrsflow.Branch(s.Name, pops, s.Target), nil
	case jaxrsflow.KindSwitch:
		if len(s.Targets) == 0 {
			return jaxrsflow.Instruction{}, fmt.Errorf("switch needs targets")
		}
		return jaxrsflow.Switch(s.Targets...), nil
	case jaxrsflow.KindGeneric:
		if s.Name == "" {
			return jaxrsflow.Instruction{}, fmt.Errorf("generic needs a name")
		}
		if s.Pops < 0 || s.Pushes < 0 {
			return jaxrsflow.Instruction{}, fmt.Errorf("%s: negative stack effect pops=%d pushes=%d", s.Name, s.Pops, s.Pushes)
		}
		if strings.EqualFold(s.Name, "IINC") {
			by, ok := s.Value.(int)
			if !ok {
				return jaxrsflow.Instruction{}, fmt.Errorf("iinc needs an integer value, got %v", s.Value)
			}
			return jaxrsflow.Increment(s.Slot, by), nil
		}
		return jaxrsflow.Generic(s.Name, s.Pops, s.Pushes), nil
	}
	return jaxrsflow.Instruction{}, fmt.Errorf("%q: %w", s.Op, ErrUnknownKind)
}

// constantType falls back to the descriptor YAML implies for the value.
func constantType(v any, declared string) string {
	if declared != "" {
		return declared
	}
	switch v.(type) {
	case string:
		return jaxrsflow.String
	case int:
		return jaxrsflow.Int
	case float64:
		return jaxrsflow.Double
	case bool:
		return jaxrsflow.Boolean
	}
	return jaxrsflow.Object
}
