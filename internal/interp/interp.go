// Package interp implements the Turing-machine interpreter: a fixed-size
// tape plus an installed transition table, stepped one transition at a
// time. The step function performs no allocation and is written to stay
// inlinable by keeping the common (Continue) path branch-predictable.
package interp

import "github.com/bb5enum/bb5enum/pkg/machine"

// LimitMemory is the conjectured BB(5) tape-space bound. The tape is sized
// to 2x this so that the space check can be a simple bounds check on either
// end rather than an exact conjectured-space comparison (see design notes
// on the loosened tape-space check).
const LimitMemory = 24578 / 2

// TapeSize is the fixed tape length: 2 * LimitMemory.
const TapeSize = LimitMemory * 2

// StepResult reports the outcome of a single step.
type StepResult uint8

const (
	StepOk StepResult = iota
	StepHalt
	StepTapeFullLeft
	StepTapeFullRight
)

// Interpreter executes one installed machine against a reusable tape.
// Designed for one instance per worker goroutine: Reset recenters the head
// and zeros the tape so the same Interpreter can be reused across tasks
// without reallocating.
type Interpreter struct {
	table machine.Machine
	state machine.State
	tape  []byte
	pos   int
}

// New creates an Interpreter with a tape of TapeSize bytes.
func New() *Interpreter {
	return &Interpreter{
		tape: make([]byte, TapeSize),
		pos:  TapeSize / 2,
	}
}

// SetMachine installs a machine's transition table.
func (ip *Interpreter) SetMachine(m *machine.Machine) {
	ip.table = *m
}

// Reset zeros the tape, recenters the head, and resets the state to the
// initial state (0).
func (ip *Interpreter) Reset() {
	for i := range ip.tape {
		ip.tape[i] = 0
	}
	ip.pos = TapeSize / 2
	ip.state = 0
}

// State returns the current state.
func (ip *Interpreter) State() machine.State { return ip.state }

// Symbol returns the symbol under the head.
func (ip *Interpreter) Symbol() machine.Symbol {
	return machine.Symbol(ip.tape[ip.pos])
}

// Step performs exactly one transition. On StepHalt or a TapeFull result the
// state and tape are left in whatever partial state the transition produced;
// callers must not rely on them for anything but classification.
func (ip *Interpreter) Step() StepResult {
	symbol := ip.tape[ip.pos]
	t := ip.table[ip.state][symbol]
	if t.IsHalt() {
		return StepHalt
	}
	ip.tape[ip.pos] = t.T.Write.Get()
	ip.state = t.T.State
	offset := t.T.Move.Offset()
	newPos := ip.pos + offset
	if newPos < 0 {
		return StepTapeFullLeft
	}
	if newPos >= len(ip.tape) {
		return StepTapeFullRight
	}
	ip.pos = newPos
	return StepOk
}
