package simulate

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

// execState is one explored path through a method body.
type execState struct {
	pc     int             // Program counter
	stack  []Element       // Abstract operand stack
	locals map[int]Element // Local variable table

	// State tracking for logging
	id       int    // Unique state ID
	parentID int    // Parent state ID (0 for root)
	lineage  string // Lineage string (e.g., "0", "0.1", "0.1.0")
}

// clone creates a deep copy of this state for forking. Structured values are
// copied once each so that two slots referring to the same builder still
// refer to the same (new) builder.
func (s *execState) clone() *execState {
	c := newCopier()
	stackCopy := make([]Element, len(s.stack))
	for i, e := range s.stack {
		stackCopy[i] = c.element(e)
	}
	localsCopy := make(map[int]Element, len(s.locals))
	for _, slot := range s.slots() {
		localsCopy[slot] = c.element(s.locals[slot])
	}
	return &execState{
		pc:       s.pc,
		stack:    stackCopy,
		locals:   localsCopy,
		id:       s.id,
		parentID: s.parentID,
		lineage:  s.lineage,
	}
}

// slots returns the assigned local slots in ascending order.
func (s *execState) slots() []int {
	out := make([]int, 0, len(s.locals))
	for k := range s.locals {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// shape hashes the program counter and the types on the stack. Two states
// with the same shape at a loop header are considered the same iteration.
func (s *execState) shape() uint64 {
	h := sha256.New()

	binary.Write(h, binary.LittleEndian, uint64(s.pc))
	binary.Write(h, binary.LittleEndian, uint64(len(s.stack)))
	for _, e := range s.stack {
		binary.Write(h, binary.LittleEndian, uint64(len(e.types)))
		for _, t := range e.types {
			h.Write([]byte(t.Name))
			h.Write([]byte{0})
		}
	}

	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

func (s *execState) push(e Element) {
	s.stack = append(s.stack, e)
}

// pop removes and returns the top element. An empty stack yields an empty
// Element; reduced instruction sequences may omit producers.
func (s *execState) pop() Element {
	if len(s.stack) == 0 {
		return Element{}
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top
}

// popN pops n elements and returns them in push order.
func (s *execState) popN(n int) []Element {
	if n <= 0 {
		return nil
	}
	out := make([]Element, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.pop()
	}
	return out
}

func (s *execState) top() (Element, bool) {
	if len(s.stack) == 0 {
		return Element{}, false
	}
	return s.stack[len(s.stack)-1], true
}

func newExecState(locals map[int]Element) *execState {
	l := make(map[int]Element, len(locals))
	for k, v := range locals {
		l[k] = v
	}
	return &execState{
		pc:      0,
		stack:   make([]Element, 0, 16),
		locals:  l,
		id:      0,
		lineage: "0",
	}
}

// stateWorklist manages the states still to be explored.
type stateWorklist struct {
	states      []*execState
	seen        map[uint64]bool // shape → processed
	nextStateID int
}

func newStateWorklist() *stateWorklist {
	return &stateWorklist{
		states:      make([]*execState, 0, 32),
		seen:        make(map[uint64]bool),
		nextStateID: 1, // 0 is the root
	}
}

func (w *stateWorklist) push(state *execState) {
	w.states = append(w.states, state)
}

// pop removes and returns the most recently pushed state (depth-first).
func (w *stateWorklist) pop() *execState {
	if len(w.states) == 0 {
		return nil
	}
	state := w.states[len(w.states)-1]
	w.states = w.states[:len(w.states)-1]
	return state
}

func (w *stateWorklist) isEmpty() bool {
	return len(w.states) == 0
}

func (w *stateWorklist) hasSeen(state *execState) bool {
	return w.seen[state.shape()]
}

func (w *stateWorklist) markSeen(state *execState) {
	w.seen[state.shape()] = true
}
