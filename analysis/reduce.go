package analysis

import (
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
)

// effectful generic operations are never dropped.
var effectful = map[string]bool{
	"IINC":         true,
	"MONITORENTER": true,
	"MONITOREXIT":  true,
	"ATHROW":       true,
	"IASTORE":      true,
	"LASTORE":      true,
	"FASTORE":      true,
	"DASTORE":      true,
	"AASTORE":      true,
	"BASTORE":      true,
	"CASTORE":      true,
	"SASTORE":      true,
}

// Reduce drops the writes that cannot influence what the method returns or
// throws, together with the pure instructions computing the written value:
// stores into local slots that are never loaded, and field writes. Jump
// targets are remapped onto the remaining instructions. The input slice is
// not modified.
func Reduce(code []jaxrsflow.Instruction) []jaxrsflow.Instruction {
	if len(code) == 0 {
		return code
	}

	loaded := make(map[int]bool)
	for _, ins := range code {
		if ins.Kind() == jaxrsflow.KindLoad {
			loaded[ins.Slot()] = true
		}
	}
	leaders := blockLeaders(code)

	drop := make([]bool, len(code))
	for i, ins := range code {
		if !isDeadWrite(ins, loaded) {
			continue
		}
		if start, ok := producers(code, i, leaders, drop); ok {
			for j := start; j <= i; j++ {
				drop[j] = true
			}
		}
	}
	return compact(code, drop)
}

func isDeadWrite(ins jaxrsflow.Instruction, loaded map[int]bool) bool {
	switch ins.Kind() {
	case jaxrsflow.KindStore:
		return !loaded[ins.Slot()]
	case jaxrsflow.KindPutField, jaxrsflow.KindPutStatic:
		return true
	}
	return false
}

// producers walks back from the write at i to the first instruction of the
// pure sequence that pushes exactly the operands the write consumes. The
// sequence must stay inside one basic block.
func producers(code []jaxrsflow.Instruction, i int, leaders map[int]bool, drop []bool) (int, bool) {
	needed := code[i].Pops()
	if leaders[i] {
		return 0, false
	}
	for j := i - 1; j >= 0; j-- {
		ins := code[j]
		if drop[j] || !isPure(ins) || ins.Pushes() > needed {
			return 0, false
		}
		needed += ins.Pops() - ins.Pushes()
		if needed == 0 {
			return j, true
		}
		if leaders[j] {
			return 0, false
		}
	}
	return 0, false
}

func isPure(ins jaxrsflow.Instruction) bool {
	switch ins.Kind() {
	case jaxrsflow.KindLoad, jaxrsflow.KindPush, jaxrsflow.KindDup, jaxrsflow.KindGetStatic, jaxrsflow.KindGetField:
		return true
	case jaxrsflow.KindGeneric:
		name := strings.ToUpper(ins.Name())
		return !effectful[name] && !strings.Contains(name, "INVOKE")
	}
	return false
}

// blockLeaders marks jump targets, the instructions following a transfer,
// and exception handler entries.
func blockLeaders(code []jaxrsflow.Instruction) map[int]bool {
	leaders := map[int]bool{0: true}
	for i, ins := range code {
		for _, t := range ins.Targets() {
			leaders[t] = true
		}
		switch ins.Kind() {
		case jaxrsflow.KindJump, jaxrsflow.KindBranch, jaxrsflow.KindSwitch,
			jaxrsflow.KindReturn, jaxrsflow.KindThrow:
			leaders[i+1] = true
		case jaxrsflow.KindExceptionHandler:
			leaders[i] = true
			leaders[i+1] = true
		}
	}
	return leaders
}

// compact removes the dropped instructions. A target that pointed at a
// dropped instruction moves to the next kept one.
func compact(code []jaxrsflow.Instruction, drop []bool) []jaxrsflow.Instruction {
	index := make([]int, len(code)+1)
	n := 0
	for i := range code {
		index[i] = n
		if !drop[i] {
			n++
		}
	}
	index[len(code)] = n
	if n == len(code) {
		return code
	}

	out := make([]jaxrsflow.Instruction, 0, n)
	for i, ins := range code {
		if drop[i] {
			continue
		}
		if targets := ins.Targets(); len(targets) > 0 {
			for k, t := range targets {
				if t >= 0 && t <= len(code) {
					targets[k] = index[t]
				}
			}
			ins = ins.WithTargets(targets)
		}
		out = append(out, ins)
	}
	return out
}
