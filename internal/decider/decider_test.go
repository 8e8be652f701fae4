package decider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bb5enum/bb5enum/internal/interp"
	"github.com/bb5enum/bb5enum/internal/ioformat"
	"github.com/bb5enum/bb5enum/pkg/machine"
)

func TestRun_BB5Champion_Halts(t *testing.T) {
	if testing.Short() {
		t.Skip("full BB5 champion simulation runs ~47M steps")
	}
	m, err := ioformat.ReadCompact(ioformat.BB5ChampionCompact)
	require.NoError(t, err)

	ip := interp.New()
	ip.SetMachine(&m)
	ip.Reset()

	decision := run(ip)
	require.Equal(t, machine.DecisionHalt, decision.Kind)
	assert.Equal(t, machine.State(4), decision.Branch.State)
	assert.Equal(t, machine.Symbol(0), decision.Branch.Symbol)
}

func TestRun_BB4Champion_Halts(t *testing.T) {
	m, err := ioformat.ReadCompact(ioformat.BB4ChampionCompact)
	require.NoError(t, err)

	ip := interp.New()
	ip.SetMachine(&m)
	ip.Reset()

	decision := run(ip)
	require.Equal(t, machine.DecisionHalt, decision.Kind)
	assert.Equal(t, machine.State(2), decision.Branch.State)
	assert.Equal(t, machine.Symbol(0), decision.Branch.Symbol)
}

func TestRun_LoopWithinBB4Bound(t *testing.T) {
	var m machine.Machine
	m.Set(0, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 1}))
	m.Set(0, 1, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Left, State: 1}))
	m.Set(1, 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: 0}))
	m.Set(1, 1, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Right, State: 0}))

	ip := interp.New()
	ip.SetMachine(&m)
	ip.Reset()

	decision := run(ip)
	assert.Equal(t, machine.Decision{Kind: machine.DecisionLoop}, decision)
}

func TestRun_TapeFull_IsUndecided(t *testing.T) {
	var m machine.Machine
	// Cycle A->B->C->D->E->A, always moving Left: all five states are seen
	// within the first five steps, so the BB4 rule never applies and the head
	// runs off the left end of the tape.
	for s := 0; s < machine.NumStates; s++ {
		next := machine.State((s + 1) % machine.NumStates)
		m.Set(machine.State(s), 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: next}))
		m.Set(machine.State(s), 1, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: next}))
	}

	ip := interp.New()
	ip.SetMachine(&m)
	ip.Reset()

	decision := run(ip)
	assert.Equal(t, machine.Decision{Kind: machine.DecisionUndecided}, decision)
}

func TestHasEquivalentStates(t *testing.T) {
	var m machine.Machine
	// States 1 and 2 are defined identically and are not themselves halting.
	t1 := machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 3})
	t2 := machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: 3})
	m.Set(1, 0, t1)
	m.Set(1, 1, t2)
	m.Set(2, 0, t1)
	m.Set(2, 1, t2)

	assert.True(t, hasEquivalentStates(&m, 1))
	assert.True(t, hasEquivalentStates(&m, 2))
	assert.False(t, hasEquivalentStates(&m, 0))
}

func TestHasEquivalentStates_HaltDisqualifies(t *testing.T) {
	var m machine.Machine
	t1 := machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 3})
	m.Set(1, 0, t1)
	m.Set(1, 1, t1)
	m.Set(2, 0, t1)
	// state 2, symbol 1 left as Halt: not equivalent.

	assert.False(t, hasEquivalentStates(&m, 1))
}

func TestHasRedundantTransition(t *testing.T) {
	var m machine.Machine
	// Filling (0,0) with write=1,Right,->state1.
	m.Set(0, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 1}))
	// State 1 undoes it: copies the cell (0 then 1), reverses direction (Left),
	// and both cells return to the same state.
	m.Set(1, 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: 0}))
	m.Set(1, 1, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Left, State: 0}))

	assert.True(t, hasRedundantTransition(&m, 0, 0))
}

func TestHasRedundantTransition_NotRedundantWhenStatesDiffer(t *testing.T) {
	var m machine.Machine
	m.Set(0, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 1}))
	m.Set(1, 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Left, State: 0}))
	m.Set(1, 1, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Left, State: 2}))

	assert.False(t, hasRedundantTransition(&m, 0, 0))
}

func TestDecide_IrrelevantSkipsSimulation(t *testing.T) {
	var m machine.Machine
	t1 := machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 3})
	m.Set(1, 0, t1)
	m.Set(1, 1, t1)
	m.Set(2, 0, t1)
	m.Set(2, 1, t1)

	ip := interp.New()
	decision := Decide(ip, &m, machine.HaltingTransitionIndex{State: 2, Symbol: 0})
	assert.Equal(t, machine.Decision{Kind: machine.DecisionIrrelevant}, decision)
}
