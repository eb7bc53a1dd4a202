package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/speakeasy-api/jaxrsflow"
)

// Simulator abstractly executes method bodies. Calls into the analyzed code
// base are resolved through its MethodPool.
type Simulator struct {
	pool   *MethodPool
	opts   Options
	logger Logger
}

// NewSimulator returns a simulator resolving project calls against pool.
// A nil pool is replaced by an empty one.
func NewSimulator(pool *MethodPool, opts Options) *Simulator {
	if pool == nil {
		pool = NewMethodPool()
	}
	opts = opts.withDefaults()
	return &Simulator{pool: pool, opts: opts, logger: opts.logger()}
}

func (s *Simulator) Pool() *MethodPool { return s.pool }

func (s *Simulator) Logger() Logger { return s.logger }

// Simulate explores every path through code, the body of method, and
// returns the union of their outcomes. It never fails: instructions it
// cannot model and paths it cannot finish degrade to typed-only results
// and are reported as warnings.
func (s *Simulator) Simulate(ctx context.Context, method jaxrsflow.MethodIdentifier, code []jaxrsflow.Instruction) *Result {
	return s.run(ctx, method, code, 0)
}

func (s *Simulator) run(ctx context.Context, method jaxrsflow.MethodIdentifier, code []jaxrsflow.Instruction, depth int) *Result {
	env := newSimEnv(ctx, s, method, code, depth)
	return env.execute()
}

// simEnv is the environment of one method simulation.
type simEnv struct {
	ctx    context.Context
	sim    *Simulator
	opts   Options
	method jaxrsflow.MethodIdentifier
	code   []jaxrsflow.Instruction
	depth  int // call depth of nested project methods
	logger Logger
	execID string // Unique execution ID

	loopWrites map[int][]int // loop header pc → local slots written in its body
	widened    map[int]bool

	returns  []Element
	thrown   []*HttpResponse
	returned bool
	cut      bool // some path was abandoned before terminating
	paths    int
	warnings []string
}

func newSimEnv(ctx context.Context, s *Simulator, method jaxrsflow.MethodIdentifier, code []jaxrsflow.Instruction, depth int) *simEnv {
	// Generate unique execution ID
	execID := fmt.Sprintf("e%d", time.Now().UnixNano()%1000000)

	return &simEnv{
		ctx:        ctx,
		sim:        s,
		opts:       s.opts,
		method:     method,
		code:       code,
		depth:      depth,
		logger:     s.logger,
		execID:     execID,
		loopWrites: loopWrites(code),
		widened:    make(map[int]bool),
		warnings:   make([]string, 0),
	}
}

// loopWrites finds the targets of backward transfers and the local slots
// written between each target and its transfer.
func loopWrites(code []jaxrsflow.Instruction) map[int][]int {
	out := make(map[int][]int)
	for i, ins := range code {
		for _, t := range ins.Targets() {
			if t > i || t < 0 {
				continue
			}
			seen := make(map[int]bool)
			for _, s := range out[t] {
				seen[s] = true
			}
			for j := t; j <= i; j++ {
				w := code[j]
				if w.Kind() == jaxrsflow.KindStore || (w.Kind() == jaxrsflow.KindGeneric && w.Name() == "IINC") {
					if !seen[w.Slot()] {
						seen[w.Slot()] = true
						out[t] = append(out[t], w.Slot())
					}
				}
			}
		}
	}
	return out
}

// widen drops the constants held by the locals a loop body writes, so the
// paths leaving the header stand for every iteration.
func (env *simEnv) widen(state *execState, slots []int) {
	var dropped []int
	for _, slot := range slots {
		e, ok := state.locals[slot]
		if !ok {
			continue
		}
		if w := e.withoutConstants(); len(w.values) != len(e.values) {
			state.locals[slot] = w
			dropped = append(dropped, slot)
		}
	}
	if len(dropped) > 0 && !env.widened[state.pc] {
		env.widened[state.pc] = true
		env.addWarning("loop at pc=%d in %s: locals %v widened to their types", state.pc, env.method, dropped)
	}
}

// initialLocals seeds the receiver at slot 0 for instance methods and the
// declared parameters after it.
func (env *simEnv) initialLocals() map[int]Element {
	locals := make(map[int]Element, len(env.method.Parameters)+1)
	slot := 0
	if !env.method.Static {
		locals[0] = Typed(jaxrsflow.Descriptor(env.method.ContainingClass))
		slot++
	}
	for _, p := range env.method.Parameters {
		locals[slot] = Typed(p)
		slot += jaxrsflow.SlotSize(p)
	}
	return locals
}

// execute runs the worklist until every path terminated or was abandoned.
func (env *simEnv) execute() *Result {
	worklist := newStateWorklist()
	locals := env.initialLocals()
	worklist.push(newExecState(locals))

	// Handler entries are extra roots with the caught throwable on the stack.
	for pc, ins := range env.code {
		if ins.Kind() != jaxrsflow.KindExceptionHandler {
			continue
		}
		h := newExecState(locals)
		h.pc = pc + 1
		h.push(Typed(jaxrsflow.Throwable))
		h.id = worklist.nextStateID
		worklist.nextStateID++
		h.lineage = fmt.Sprintf("h%d", pc)
		worklist.push(h)
	}

	env.logger.With(map[string]any{
		"exec":   env.execID,
		"method": env.method.String(),
		"codes":  len(env.code),
		"depth":  env.depth,
	}).Infof("Starting simulation")

	steps := 0
	for !worklist.isEmpty() {
		if err := env.ctx.Err(); err != nil {
			env.addWarning("simulation of %s stopped: %v", env.method, err)
			env.cut = true
			break
		}
		if steps >= env.opts.MaxSteps {
			env.addWarning("step limit %d reached in %s, %d paths not explored", env.opts.MaxSteps, env.method, len(worklist.states))
			env.cut = true
			break
		}

		state := worklist.pop()

		if state.pc < 0 || state.pc >= len(env.code) {
			// Fell off the end: abstract, native, or a reduced body.
			env.paths++
			continue
		}
		if len(state.stack) > env.opts.MaxStackDepth {
			env.addWarning("stack depth %d exceeded at pc=%d in %s", env.opts.MaxStackDepth, state.pc, env.method)
			env.cut = true
			env.paths++
			continue
		}
		if slots, ok := env.loopWrites[state.pc]; ok {
			env.widen(state, slots)
		}
		worklist.markSeen(state)

		ins := env.code[state.pc]

		if isEnabled(env.logger, LevelDebug) {
			env.logger.With(map[string]any{
				"exec":    env.execID,
				"state":   fmt.Sprintf("s%d", state.id),
				"lineage": state.lineage,
				"pc":      state.pc,
				"op":      ins.Kind().String(),
				"stack":   len(state.stack),
				"preview": stackPreview(state.stack, env.opts.LogStackPreview, env.opts.LogMaxValues),
			}).Debugf("Executing %s", ins)
		}

		steps++
		from := state.pc
		successors := env.step(state, ins)
		if len(successors) == 0 {
			env.paths++
		}

		// Assign IDs to successor states and log their creation
		for i, next := range successors {
			if next.pc <= from && worklist.hasSeen(next) {
				env.logger.With(map[string]any{
					"exec":  env.execID,
					"state": fmt.Sprintf("s%d", next.id),
					"pc":    next.pc,
				}).Debugf("Back edge to seen state, not re-explored")
				continue
			}
			if next != state && next.id == state.id {
				next.id = worklist.nextStateID
				worklist.nextStateID++
				next.parentID = state.id
				next.lineage = fmt.Sprintf("%s.%d", state.lineage, i)

				env.logger.With(map[string]any{
					"exec":    env.execID,
					"state":   fmt.Sprintf("s%d", next.id),
					"parent":  fmt.Sprintf("s%d", next.parentID),
					"lineage": next.lineage,
					"pc":      next.pc,
				}).Debugf("Created successor state")
			}
			worklist.push(next)
		}
	}

	// An abandoned path contributes what the signature promises.
	if env.cut && env.method.ReturnType != jaxrsflow.Void && env.method.ReturnType != "" {
		env.returns = append(env.returns, Typed(env.method.ReturnType))
	}

	thrown := dedupResponses(env.thrown)
	elem := Union(env.returns...)
	for _, t := range thrown {
		elem = elem.Union(NewElement(nil, t))
	}

	env.logger.With(map[string]any{
		"exec":     env.execID,
		"paths":    env.paths,
		"steps":    steps,
		"result":   elementSummary(elem, env.opts.LogMaxValues),
		"warnings": len(env.warnings),
	}).Infof("Simulation completed")

	return &Result{
		Element:  elem,
		Returned: env.returned,
		Returns:  env.returns,
		Thrown:   thrown,
		Warnings: env.warnings,
		Paths:    env.paths,
		Steps:    steps,
	}
}

// step applies ins to state and returns the successor states. state itself
// is advanced in place and is usually the first successor; forks add
// clones. No successors means the path terminated.
func (env *simEnv) step(state *execState, ins jaxrsflow.Instruction) []*execState {
	state.pc++

	switch ins.Kind() {
	case jaxrsflow.KindLoad:
		e, ok := state.locals[ins.Slot()]
		if !ok {
			e = Typed(objectIfEmpty(ins.Type()))
		}
		state.push(e)

	case jaxrsflow.KindStore:
		state.locals[ins.Slot()] = state.pop()

	case jaxrsflow.KindPush:
		state.push(Literal(ins.Value(), objectIfEmpty(ins.Type())))

	case jaxrsflow.KindNew:
		desc := jaxrsflow.Descriptor(ins.Type())
		if IsStatusException(ins.Type()) {
			state.push(Of(&Instance{Class: jaxrsflow.Canonical(ins.Type())}, desc))
		} else {
			state.push(Typed(desc))
		}

	case jaxrsflow.KindDup:
		// The copy shares structured values with the original.
		if e, ok := state.top(); ok {
			state.push(e)
		} else {
			state.push(Element{})
		}

	case jaxrsflow.KindInvoke:
		args := state.popN(ins.Pops())
		e, push, ends := env.invoke(ins.Method(), args)
		if ends {
			return nil
		}
		if push {
			state.push(e)
		}

	case jaxrsflow.KindGetField:
		state.pop()
		state.push(Typed(objectIfEmpty(ins.Type())))

	case jaxrsflow.KindPutField:
		state.popN(2)

	case jaxrsflow.KindGetStatic:
		if e, ok := getStatic(ins.Owner(), ins.Name(), ins.Type()); ok {
			state.push(e)
		} else {
			state.push(Typed(objectIfEmpty(ins.Type())))
		}

	case jaxrsflow.KindPutStatic:
		state.pop()

	case jaxrsflow.KindReturn:
		env.returned = true
		if !ins.IsVoid() {
			env.returns = append(env.returns, state.pop())
		}
		return nil

	case jaxrsflow.KindThrow:
		env.throw(state.pop())
		return nil

	case jaxrsflow.KindExceptionHandler:
		// Only reachable by exceptional flow, which starts after the marker.
		return nil

	case jaxrsflow.KindJump:
		state.pc = ins.Targets()[0]

	case jaxrsflow.KindBranch:
		state.popN(ins.Pops())
		taken := state.clone()
		taken.pc = ins.Targets()[0]
		return []*execState{state, taken}

	case jaxrsflow.KindSwitch:
		state.pop()
		targets := ins.Targets()
		out := make([]*execState, 0, len(targets))
		seen := make(map[int]bool, len(targets))
		for i, t := range targets {
			if seen[t] {
				continue
			}
			seen[t] = true
			next := state
			if i > 0 {
				next = state.clone()
			}
			next.pc = t
			out = append(out, next)
		}
		return out

	case jaxrsflow.KindGeneric:
		env.generic(state, ins)

	default:
		panic(fmt.Sprintf("unknown instruction kind: %d", int(ins.Kind())))
	}

	return []*execState{state}
}

// throw records the response of a status-bearing exception. Other
// throwables end the path without a candidate.
func (env *simEnv) throw(e Element) {
	for _, v := range e.values {
		switch x := v.(type) {
		case *Instance:
			if x.Response != nil {
				env.thrown = append(env.thrown, x.Response)
			}
		case *HttpResponse:
			env.thrown = append(env.thrown, x)
		}
	}
}

// invoke evaluates a call. It returns the pushed Element, whether anything
// is pushed, and whether the path ends because the callee never returns.
func (env *simEnv) invoke(m jaxrsflow.MethodIdentifier, args []Element) (Element, bool, bool) {
	void := m.ReturnType == jaxrsflow.Void

	if m.IsConstructor() {
		if len(args) > 0 {
			construct(m, args[0], args[1:])
		}
		return Element{}, false, false
	}

	if e, ok := invokeResponse(m, args); ok {
		return e, !void, false
	}
	if e, ok := invokeJSON(m, args); ok {
		return e, !void, false
	}
	if e, ok := invokeBoxing(m, args); ok {
		return e, !void, false
	}

	if r, ok := env.resolve(m); ok {
		env.thrown = append(env.thrown, r.Thrown...)
		if !r.Returned && len(r.Returns) == 0 && len(r.Thrown) > 0 {
			return Element{}, false, true
		}
		if void {
			return Element{}, false, false
		}
		if len(r.Returns) > 0 {
			return Union(r.Returns...), true, false
		}
	}

	if void {
		return Element{}, false, false
	}
	return Typed(m.ReturnType), true, false
}

// resolve simulates a project method, or returns its memoized result. The
// boolean is false when m is not a project method with a known body or when
// the call is recursive.
func (env *simEnv) resolve(m jaxrsflow.MethodIdentifier) (*Result, bool) {
	pool := env.sim.pool
	entry, ok := pool.lookup(m)
	if !ok {
		return nil, false
	}
	if entry.pending {
		env.addWarning("body of %s not available, using declared return type", m)
		return nil, false
	}
	if r, ok := pool.memoized(m); ok {
		return r.clone(), true
	}
	if env.depth+1 > env.opts.MaxCallDepth {
		env.addWarning("call depth %d exceeded resolving %s", env.opts.MaxCallDepth, m)
		return nil, false
	}
	if !pool.enter(m) {
		env.logger.With(map[string]any{
			"exec":   env.execID,
			"method": m.String(),
		}).Debugf("Recursive call, using declared return type")
		return nil, false
	}

	r := env.call(m, entry.method, env.depth+1)
	pool.remember(m, r)

	for _, w := range r.Warnings {
		env.addWarning("%s: %s", m.Name, w)
	}
	return r.clone(), true
}

// call simulates a project method entered in the pool and leaves it, also
// when the simulation panics.
func (env *simEnv) call(m jaxrsflow.MethodIdentifier, pm ProjectMethod, depth int) *Result {
	defer env.sim.pool.leave(m)
	return env.sim.run(env.ctx, pm.Identifier, pm.Instructions, depth)
}

// generic handles the opcodes without a dedicated instruction kind.
func (env *simEnv) generic(state *execState, ins jaxrsflow.Instruction) {
	name := ins.Name()

	switch name {
	case "NOP":
		return
	case "IINC":
		increment(state, ins)
		return
	case "CHECKCAST":
		return
	case "MONITORENTER", "MONITOREXIT", "POP", "POP2":
		state.popN(ins.Pops())
		return
	case "SWAP":
		ops := state.popN(2)
		state.push(ops[1])
		state.push(ops[0])
		return
	case "DUP_X1", "DUP_X2", "DUP2", "DUP2_X1", "DUP2_X2":
		copies, below := dupShape(name)
		ops := state.popN(copies + below)
		for _, e := range ops[below:] {
			state.push(e)
		}
		for _, e := range ops {
			state.push(e)
		}
		return
	}

	operands := state.popN(ins.Pops())

	if rt := resultType(name); rt != "" {
		if v, ok := fold(name, operands); ok {
			state.push(Literal(v, rt))
		} else {
			for i := 0; i < ins.Pushes(); i++ {
				state.push(Typed(rt))
			}
		}
		return
	}

	known := isArrayOp(name)
	if !known {
		env.addWarning("unsupported instruction %s at pc=%d", name, state.pc-1)
	}
	desc := prefixType(name)
	for i := 0; i < ins.Pushes(); i++ {
		state.push(Typed(desc))
	}
}

// increment applies IINC to its local. A local that is not a single int
// literal, or an increment of unknown size, becomes typed-only.
func increment(state *execState, ins jaxrsflow.Instruction) {
	slot := ins.Slot()
	if by, ok := ins.Value().(int); ok {
		if v, single := state.locals[slot].Single(); single {
			if x, isInt := v.(int32); isInt {
				state.locals[slot] = Literal(x+int32(by), jaxrsflow.Int)
				return
			}
		}
	}
	state.locals[slot] = Typed(jaxrsflow.Int)
}

// dupShape returns how many slots a DUP variant copies and how deep the
// copies are inserted.
func dupShape(name string) (copies, below int) {
	switch name {
	case "DUP_X1":
		return 1, 1
	case "DUP_X2":
		return 1, 2
	case "DUP2":
		return 2, 0
	case "DUP2_X1":
		return 2, 1
	case "DUP2_X2":
		return 2, 2
	}
	return 1, 0
}

func isArrayOp(name string) bool {
	switch name {
	case "NEWARRAY", "ANEWARRAY", "MULTIANEWARRAY":
		return true
	}
	if len(name) == 6 && (name[1:] == "ALOAD" || name[1:] == "ASTORE") {
		return true
	}
	return false
}

// prefixType guesses the pushed type from the opcode's type prefix.
func prefixType(name string) string {
	if name == "" {
		return jaxrsflow.Object
	}
	switch name[0] {
	case 'I', 'B', 'C', 'S', 'Z':
		return jaxrsflow.Int
	case 'L':
		return jaxrsflow.Long
	case 'F':
		return jaxrsflow.Float
	case 'D':
		return jaxrsflow.Double
	}
	return jaxrsflow.Object
}

func objectIfEmpty(desc string) string {
	if desc == "" {
		return jaxrsflow.Object
	}
	return desc
}

// addWarning logs a warning and records it if warnings are enabled.
func (env *simEnv) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	env.logger.With(map[string]any{"exec": env.execID}).Warnf("%s", msg)
	if env.opts.EnableWarnings {
		env.warnings = append(env.warnings, msg)
	}
}

// dedupResponses drops responses equal to an earlier one.
func dedupResponses(in []*HttpResponse) []*HttpResponse {
	out := make([]*HttpResponse, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		fp := r.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, r)
	}
	return out
}
