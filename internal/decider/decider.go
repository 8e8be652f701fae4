// Package decider classifies a fully-determined machine as Halt, Loop,
// Undecided, or Irrelevant, by combining cheap structural filters with a
// bounded simulation run through the interpreter.
package decider

import (
	"github.com/bb5enum/bb5enum/internal/interp"
	"github.com/bb5enum/bb5enum/pkg/machine"
)

// LimitSteps is the known BB(5) champion's step count; bounded simulation
// beyond this many steps without halting is classified Undecided.
const LimitSteps = 47176870

// BB4Steps is BB(4); a machine observed to use no more than 4 distinct
// states within this many steps without halting is classified Loop, since
// the effective machine is at most a 4-state machine and BB(4) bounds its
// halting steps.
const BB4Steps = 107

// allStatesMask has one bit set per state in [0, machine.NumStates).
const allStatesMask = (1 << machine.NumStates) - 1

// Decide classifies the machine most recently mutated at changedTransition.
// It installs and resets ip as a side effect.
func Decide(ip *interp.Interpreter, m *machine.Machine, changedTransition machine.HaltingTransitionIndex) machine.Decision {
	if isIrrelevant(m, changedTransition.State, changedTransition.Symbol) {
		return machine.Decision{Kind: machine.DecisionIrrelevant}
	}
	ip.SetMachine(m)
	ip.Reset()
	return run(ip)
}

func isIrrelevant(m *machine.Machine, changedState machine.State, read machine.Symbol) bool {
	return hasEquivalentStates(m, changedState) || hasRedundantTransition(m, changedState, read)
}

// hasEquivalentStates reports whether changedState is equivalent to some
// other fully-defined state, making the just-filled transition redundant.
func hasEquivalentStates(m *machine.Machine, changedState machine.State) bool {
	for i := machine.State(0); int(i) < machine.NumStates; i++ {
		if i != changedState && areStatesDefinedAndEquivalent(m, i, changedState) {
			return true
		}
	}
	return false
}

func areStatesDefinedAndEquivalent(m *machine.Machine, a, b machine.State) bool {
	a0, a1 := m[a][0], m[a][1]
	b0, b1 := m[b][0], m[b][1]
	if a0.IsHalt() || a1.IsHalt() || b0.IsHalt() || b1.IsHalt() {
		return false
	}
	ta0, ta1 := a0.T, a1.T
	tb0, tb1 := b0.T, b1.T
	if ta0.Write != tb0.Write || ta0.Move != tb0.Move {
		return false
	}
	if ta1.Write != tb1.Write || ta1.Move != tb1.Move {
		return false
	}
	match0 := ta0.State == tb0.State ||
		((ta0.State == a || ta0.State == b) && (tb0.State == a || tb0.State == b))
	if !match0 {
		return false
	}
	match1 := ta1.State == tb1.State ||
		((ta1.State == a || ta1.State == b) && (tb1.State == a || tb1.State == b))
	return match1
}

// hasRedundantTransition reports whether the transition just filled at
// (changedState, read) leads to a state that trivially undoes it: the
// target state is fully defined, copies the tape cell (writes 0 then 1),
// reverses the move direction in both cells, and returns to the same
// successor state in both cells.
func hasRedundantTransition(m *machine.Machine, changedState machine.State, read machine.Symbol) bool {
	t := m[changedState][read]
	// t is always Continue here: isIrrelevant is only consulted for a cell
	// that was just filled with a DefinedTransition by the enumerator.
	target := t.T.State
	n0, n1 := m[target][0], m[target][1]
	if n0.IsHalt() || n1.IsHalt() {
		return false
	}
	copies := n0.T.Write.Get() == 0 && n1.T.Write.Get() == 1
	movesBack := n0.T.Move != t.T.Move && n1.T.Move != t.T.Move
	statesBack := n0.T.State == n1.T.State
	return copies && movesBack && statesBack
}

func run(ip *interp.Interpreter) machine.Decision {
	var stateSeen uint32
	var step uint32
	for {
		stateSeen |= 1 << ip.State().Get()
		allStatesSeen := stateSeen == allStatesMask
		result := ip.Step()
		if !allStatesSeen && step > BB4Steps {
			return machine.Decision{Kind: machine.DecisionLoop}
		}
		if step > LimitSteps {
			return machine.Decision{Kind: machine.DecisionUndecided}
		}
		step++
		switch result {
		case interp.StepOk:
			// continue
		case interp.StepHalt:
			return machine.Decision{
				Kind: machine.DecisionHalt,
				Branch: machine.HaltingTransitionIndex{
					State:  ip.State(),
					Symbol: ip.Symbol(),
				},
			}
		case interp.StepTapeFullLeft, interp.StepTapeFullRight:
			return machine.Decision{Kind: machine.DecisionUndecided}
		}
	}
}
