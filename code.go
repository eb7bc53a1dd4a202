package jaxrsflow

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of an Instruction.
type Kind int

const (
	KindLoad Kind = iota
	KindStore
	KindPush
	KindNew
	KindDup
	KindInvoke
	KindGetField
	KindPutField
	KindGetStatic
	KindPutStatic
	KindReturn
	KindThrow
	KindExceptionHandler
	KindJump
	KindBranch
	KindSwitch
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindPush:
		return "push"
	case KindNew:
		return "new"
	case KindDup:
		return "dup"
	case KindInvoke:
		return "invoke"
	case KindGetField:
		return "getfield"
	case KindPutField:
		return "putfield"
	case KindGetStatic:
		return "getstatic"
	case KindPutStatic:
		return "putstatic"
	case KindReturn:
		return "return"
	case KindThrow:
		return "throw"
	case KindExceptionHandler:
		return "handler"
	case KindJump:
		return "jump"
	case KindBranch:
		return "branch"
	case KindSwitch:
		return "switch"
	case KindGeneric:
		return "generic"
	default:
		panic(fmt.Sprintf("unknown instruction kind: %d", int(k)))
	}
}

// ParseKind maps the lower-case name of a kind back to the Kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindLoad; k <= KindGeneric; k++ {
		if k.String() == strings.ToLower(s) {
			return k, true
		}
	}
	return 0, false
}

// Instruction is one step of a method body. Values are immutable once
// constructed; use the constructor functions below.
type Instruction struct {
	kind    Kind
	slot    int
	typ     string // descriptor for loads, stores, constants and fields; class for new
	value   any    // constant operand
	name    string // field name, variable name, or generic op name
	owner   string // declaring class of a field
	method  MethodIdentifier
	popped  int
	pushed  int
	targets []int
	void    bool
}

// Load pushes local variable slot.
func Load(slot int, typ string) Instruction {
	return Instruction{kind: KindLoad, slot: slot, typ: typ}
}

// LoadNamed is Load with the source-level variable name attached.
func LoadNamed(slot int, typ, name string) Instruction {
	return Instruction{kind: KindLoad, slot: slot, typ: typ, name: name}
}

// Store pops the top of stack into local variable slot.
func Store(slot int, typ string) Instruction {
	return Instruction{kind: KindStore, slot: slot, typ: typ}
}

// Push pushes a constant. A nil value with an object type is the null constant.
func Push(value any, typ string) Instruction {
	return Instruction{kind: KindPush, value: value, typ: typ}
}

// New pushes a fresh, uninitialized instance of class (internal name).
func New(class string) Instruction {
	return Instruction{kind: KindNew, typ: class}
}

// Dup duplicates the top of stack.
func Dup() Instruction {
	return Instruction{kind: KindDup}
}

// Invoke calls m. Arguments are popped right to left, then the receiver for
// instance methods.
func Invoke(m MethodIdentifier) Instruction {
	return Instruction{kind: KindInvoke, method: m}
}

func GetField(owner, name, typ string) Instruction {
	return Instruction{kind: KindGetField, owner: owner, name: name, typ: typ}
}

func PutField(owner, name, typ string) Instruction {
	return Instruction{kind: KindPutField, owner: owner, name: name, typ: typ}
}

func GetStatic(owner, name, typ string) Instruction {
	return Instruction{kind: KindGetStatic, owner: owner, name: name, typ: typ}
}

func PutStatic(owner, name, typ string) Instruction {
	return Instruction{kind: KindPutStatic, owner: owner, name: name, typ: typ}
}

// Return returns the top of stack.
func Return() Instruction {
	return Instruction{kind: KindReturn}
}

// ReturnVoid returns without a value.
func ReturnVoid() Instruction {
	return Instruction{kind: KindReturn, void: true}
}

func Throw() Instruction {
	return Instruction{kind: KindThrow}
}

// ExceptionHandler marks the entry of a catch or finally block. The caught
// throwable is on the stack when control arrives here.
func ExceptionHandler() Instruction {
	return Instruction{kind: KindExceptionHandler}
}

// Jump transfers control unconditionally to the instruction at index target.
func Jump(target int) Instruction {
	return Instruction{kind: KindJump, targets: []int{target}}
}

// Branch pops its operands and either jumps to target or falls through.
func Branch(name string, popped, target int) Instruction {
	return Instruction{kind: KindBranch, name: name, popped: popped, targets: []int{target}}
}

// Switch pops the key and jumps to one of targets. The first target is the
// default label.
func Switch(targets ...int) Instruction {
	t := make([]int, len(targets))
	copy(t, targets)
	return Instruction{kind: KindSwitch, targets: t}
}

// Generic covers every other JVM opcode by its name and stack effect.
func Generic(name string, popped, pushed int) Instruction {
	return Instruction{kind: KindGeneric, name: strings.ToUpper(name), popped: popped, pushed: pushed}
}

// Increment adds by to the int local at slot (IINC). It is a generic
// instruction with no stack effect.
func Increment(slot, by int) Instruction {
	return Instruction{kind: KindGeneric, name: "IINC", slot: slot, value: by}
}

func (i Instruction) Kind() Kind               { return i.kind }
func (i Instruction) Slot() int                { return i.slot }
func (i Instruction) Type() string             { return i.typ }
func (i Instruction) Value() any               { return i.value }
func (i Instruction) Name() string             { return i.name }
func (i Instruction) Owner() string            { return i.owner }
func (i Instruction) Method() MethodIdentifier { return i.method }
func (i Instruction) IsVoid() bool             { return i.void }

// Targets returns the jump targets of control transfer instructions.
func (i Instruction) Targets() []int {
	if len(i.targets) == 0 {
		return nil
	}
	t := make([]int, len(i.targets))
	copy(t, i.targets)
	return t
}

// WithTargets returns a copy of i jumping to targets instead.
func (i Instruction) WithTargets(targets []int) Instruction {
	t := make([]int, len(targets))
	copy(t, targets)
	i.targets = t
	return i
}

// IsTransfer reports whether the instruction may move control somewhere other
// than the next instruction.
func (i Instruction) IsTransfer() bool {
	switch i.kind {
	case KindJump, KindBranch, KindSwitch:
		return true
	}
	return false
}

// Pops returns the number of stack slots the instruction consumes.
func (i Instruction) Pops() int {
	switch i.kind {
	case KindLoad, KindPush, KindNew, KindGetStatic, KindExceptionHandler, KindJump:
		return 0
	case KindStore, KindGetField, KindPutStatic, KindThrow, KindSwitch, KindDup:
		return 1
	case KindPutField:
		return 2
	case KindInvoke:
		n := len(i.method.Parameters)
		if !i.method.Static {
			n++
		}
		return n
	case KindReturn:
		if i.void {
			return 0
		}
		return 1
	case KindBranch, KindGeneric:
		return i.popped
	default:
		panic(fmt.Sprintf("unknown instruction kind: %d", int(i.kind)))
	}
}

// Pushes returns the number of stack slots the instruction produces.
func (i Instruction) Pushes() int {
	switch i.kind {
	case KindLoad, KindPush, KindNew, KindGetStatic, KindGetField, KindExceptionHandler:
		return 1
	case KindDup:
		return 2
	case KindStore, KindPutField, KindPutStatic, KindReturn, KindThrow, KindJump, KindBranch, KindSwitch:
		return 0
	case KindInvoke:
		if i.method.ReturnType == Void {
			return 0
		}
		return 1
	case KindGeneric:
		return i.pushed
	default:
		panic(fmt.Sprintf("unknown instruction kind: %d", int(i.kind)))
	}
}

// Delta returns the net change of the stack depth.
func (i Instruction) Delta() int {
	return i.Pushes() - i.Pops()
}

func (i Instruction) String() string {
	switch i.kind {
	case KindLoad, KindStore:
		if i.name != "" {
			return fmt.Sprintf("%s %d %s (%s)", i.kind, i.slot, i.typ, i.name)
		}
		return fmt.Sprintf("%s %d %s", i.kind, i.slot, i.typ)
	case KindPush:
		if i.value == nil {
			return fmt.Sprintf("push null %s", i.typ)
		}
		if s, ok := i.value.(string); ok {
			return fmt.Sprintf("push %q %s", s, i.typ)
		}
		return fmt.Sprintf("push %v %s", i.value, i.typ)
	case KindNew:
		return "new " + i.typ
	case KindInvoke:
		return "invoke " + i.method.String()
	case KindGetField, KindPutField, KindGetStatic, KindPutStatic:
		return fmt.Sprintf("%s %s.%s %s", i.kind, i.owner, i.name, i.typ)
	case KindReturn:
		if i.void {
			return "return void"
		}
		return "return"
	case KindJump, KindSwitch:
		return fmt.Sprintf("%s %v", i.kind, i.targets)
	case KindBranch:
		return fmt.Sprintf("branch %s %v", i.name, i.targets)
	case KindGeneric:
		if i.name == "IINC" && i.value != nil {
			return fmt.Sprintf("IINC %d %v", i.slot, i.value)
		}
		return fmt.Sprintf("%s pop=%d push=%d", i.name, i.popped, i.pushed)
	default:
		return i.kind.String()
	}
}
