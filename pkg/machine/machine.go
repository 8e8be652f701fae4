// Package machine defines the typed representation of a 5-state, 2-symbol
// deterministic Turing machine: bounded integer wrappers for state and
// symbol indices, the transition table, and the tree-normal-form Node type
// the enumerator builds.
package machine

import "fmt"

// NumStates is the fixed number of states in a BB(5) machine.
const NumStates = 5

// NumSymbols is the fixed number of tape symbols.
const NumSymbols = 2

// State is an integer in [0, NumStates). State 0 is the initial state "A".
//
// Invariant: the wrapped value is always < NumStates. NewState enforces
// this; unchecked construction (via a plain conversion in hot paths) is only
// ever applied to values already known to satisfy it.
type State uint8

// NewState validates and constructs a State. It returns an error if v is out
// of range.
func NewState(v uint8) (State, error) {
	if int(v) >= NumStates {
		return 0, fmt.Errorf("machine: state %d out of range [0,%d)", v, NumStates)
	}
	return State(v), nil
}

// Get returns the raw index.
func (s State) Get() uint8 { return uint8(s) }

// Letter renders the state as its conventional letter, 'A'..'E'.
func (s State) Letter() byte { return 'A' + byte(s) }

// StateFromLetter parses a state letter ('A'..'E').
func StateFromLetter(b byte) (State, error) {
	if b < 'A' || int(b-'A') >= NumStates {
		return 0, fmt.Errorf("machine: invalid state letter %q", b)
	}
	return State(b - 'A'), nil
}

// Symbol is an integer in [0, NumSymbols). Blank = 0.
type Symbol uint8

// NewSymbol validates and constructs a Symbol.
func NewSymbol(v uint8) (Symbol, error) {
	if int(v) >= NumSymbols {
		return 0, fmt.Errorf("machine: symbol %d out of range [0,%d)", v, NumSymbols)
	}
	return Symbol(v), nil
}

// Get returns the raw value.
func (s Symbol) Get() uint8 { return uint8(s) }

// Digit renders the symbol as its conventional digit character.
func (s Symbol) Digit() byte { return '0' + byte(s) }

// SymbolFromDigit parses a symbol digit ('0' or '1').
func SymbolFromDigit(b byte) (Symbol, error) {
	if b < '0' || int(b-'0') >= NumSymbols {
		return 0, fmt.Errorf("machine: invalid symbol digit %q", b)
	}
	return Symbol(b - '0'), nil
}

// Direction is the tape head move direction.
type Direction uint8

const (
	Right Direction = iota
	Left
)

// Letter renders the direction as 'R' or 'L'.
func (d Direction) Letter() byte {
	if d == Left {
		return 'L'
	}
	return 'R'
}

// DirectionFromLetter parses a direction letter ('L' or 'R').
func DirectionFromLetter(b byte) (Direction, error) {
	switch b {
	case 'R':
		return Right, nil
	case 'L':
		return Left, nil
	default:
		return 0, fmt.Errorf("machine: invalid direction letter %q", b)
	}
}

// Offset returns the tape-position delta for this direction.
func (d Direction) Offset() int {
	if d == Left {
		return -1
	}
	return 1
}

// DefinedTransition is a non-halting transition: write a symbol, move, enter
// a new state.
type DefinedTransition struct {
	Write Symbol
	Move  Direction
	State State
}

// Transition is either Halt or a DefinedTransition. The zero value is Halt.
type Transition struct {
	Defined bool
	T       DefinedTransition
}

// Halt is the halting transition.
var Halt = Transition{}

// Continue constructs a non-halting transition.
func Continue(t DefinedTransition) Transition {
	return Transition{Defined: true, T: t}
}

// IsHalt reports whether this transition halts the machine.
func (t Transition) IsHalt() bool { return !t.Defined }

// Machine is the (state, symbol) -> Transition table. Total cells = 10.
type Machine [NumStates][NumSymbols]Transition

// Get returns the transition installed at (state, symbol).
func (m *Machine) Get(state State, symbol Symbol) Transition {
	return m[state][symbol]
}

// Set installs a transition at (state, symbol).
func (m *Machine) Set(state State, symbol Symbol, t Transition) {
	m[state][symbol] = t
}

// HaltingTransitionIndex names a table cell holding Halt, typically the one
// most recently reached by simulation and about to be expanded by the
// enumerator. Also called a Branch.
type HaltingTransitionIndex struct {
	State  State
	Symbol Symbol
}

// RootBranch is the branch the root Node is built around: (state=B, symbol=0).
func RootBranch() HaltingTransitionIndex {
	return HaltingTransitionIndex{State: 1, Symbol: 0}
}

// Node is a Machine satisfying the tree-normal-form invariants: the
// transition at (0,0) is fixed to "1RB", and at least one cell is Halt.
type Node struct {
	Machine Machine
}

// RootNode returns the root of the enumeration tree: all-Halt except for
// the fixed (0,0) -> 1RB transition.
func RootNode() Node {
	var n Node
	n.Machine.Set(0, 0, Continue(DefinedTransition{Write: 1, Move: Right, State: 1}))
	return n
}

// HaltingTransitionCount returns the number of cells still set to Halt.
func (n *Node) HaltingTransitionCount() int {
	count := 0
	for s := 0; s < NumStates; s++ {
		for sym := 0; sym < NumSymbols; sym++ {
			if n.Machine[s][sym].IsHalt() {
				count++
			}
		}
	}
	return count
}

// LargestPartiallyDefinedState returns the largest state index with at
// least one non-Halt cell. The root node always has state 0 partially
// defined, so this is always well-defined.
func (n *Node) LargestPartiallyDefinedState() State {
	for s := NumStates - 1; s >= 0; s-- {
		row := n.Machine[s]
		if !row[0].IsHalt() || !row[1].IsHalt() {
			return State(s)
		}
	}
	// Unreachable for any well-formed Node: (0,0) is always defined.
	return 0
}

// Task is an unexpanded subtree rooted at (Node, Branch). Invariants: the
// cell at Branch is Halt; HaltingTransitionCount is in [2,9];
// LargestPartiallyDefinedState is in [0,5).
type Task struct {
	Node   Node
	Branch HaltingTransitionIndex
}

// Decision classifies a fully-determined machine.
type Decision struct {
	Kind   DecisionKind
	Branch HaltingTransitionIndex // valid only when Kind == DecisionHalt
}

// DecisionKind enumerates the four classification outcomes.
type DecisionKind uint8

const (
	DecisionHalt DecisionKind = iota
	DecisionLoop
	DecisionUndecided
	DecisionIrrelevant
)

// String renders the decision's single-character log code.
func (k DecisionKind) String() string {
	switch k {
	case DecisionHalt:
		return "h"
	case DecisionLoop:
		return "l"
	case DecisionUndecided:
		return "u"
	case DecisionIrrelevant:
		return "i"
	default:
		return "?"
	}
}
