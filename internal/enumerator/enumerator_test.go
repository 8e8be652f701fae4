package enumerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bb5enum/bb5enum/pkg/machine"
)

func TestNew_RootNodeChildren(t *testing.T) {
	node := machine.RootNode()
	branch := machine.RootBranch() // (state=1, symbol=0)

	c := New(&node, branch)

	var got []machine.DefinedTransition
	for {
		tr, ok := c.Next()
		if !ok {
			break
		}
		got = append(got, tr)
	}

	// Root's largest partially defined state is 0, joined with branch.State
	// (1) gives maxState = min(1+1, 4) = 2: children may target state 0, 1,
	// or 2, in either direction, writing either symbol. That is 2*2*3 = 12
	// candidates; the first 10 match the canonical reference trace.
	require.Len(t, got, 12)

	// Generation order is state outermost, then direction, then symbol.
	want := []machine.DefinedTransition{
		{Write: 0, Move: machine.Right, State: 0},
		{Write: 1, Move: machine.Right, State: 0},
		{Write: 0, Move: machine.Left, State: 0},
		{Write: 1, Move: machine.Left, State: 0},
		{Write: 0, Move: machine.Right, State: 1},
		{Write: 1, Move: machine.Right, State: 1},
		{Write: 0, Move: machine.Left, State: 1},
		{Write: 1, Move: machine.Left, State: 1},
		{Write: 0, Move: machine.Right, State: 2},
		{Write: 1, Move: machine.Right, State: 2},
	}
	assert.Equal(t, want, got[:10])
}

func TestNew_CapsAtNumStatesMinusOne(t *testing.T) {
	node := machine.RootNode()
	// Define a cell of state 4 (E), so largest-partially-defined is 4 and
	// its +1 would otherwise push maxState past the fixed 5-state shape.
	node.Machine.Set(4, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 0}))
	branch := machine.HaltingTransitionIndex{State: 4, Symbol: 1}

	c := New(&node, branch)
	var maxState uint8
	for {
		tr, ok := c.Next()
		if !ok {
			break
		}
		if tr.State.Get() > maxState {
			maxState = tr.State.Get()
		}
	}
	assert.Equal(t, uint8(machine.NumStates-1), maxState)
}

func TestNext_ExhaustedAfterAllCandidates(t *testing.T) {
	node := machine.RootNode()
	c := New(&node, machine.RootBranch())
	count := 0
	for {
		_, ok := c.Next()
		if !ok {
			break
		}
		count++
		if count > 100 {
			t.Fatal("iterator did not terminate")
		}
	}
	_, ok := c.Next()
	assert.False(t, ok, "iterator must stay exhausted once finished")
}
