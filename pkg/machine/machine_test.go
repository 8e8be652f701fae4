package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_ValidAndInvalid(t *testing.T) {
	s, err := NewState(4)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), s.Get())

	_, err = NewState(5)
	assert.Error(t, err)
}

func TestNewSymbol_ValidAndInvalid(t *testing.T) {
	sym, err := NewSymbol(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), sym.Get())

	_, err = NewSymbol(2)
	assert.Error(t, err)
}

func TestStateLetterRoundTrip(t *testing.T) {
	for v := uint8(0); v < NumStates; v++ {
		s, err := NewState(v)
		require.NoError(t, err)
		back, err := StateFromLetter(s.Letter())
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

func TestSymbolDigitRoundTrip(t *testing.T) {
	for v := uint8(0); v < NumSymbols; v++ {
		sym, err := NewSymbol(v)
		require.NoError(t, err)
		back, err := SymbolFromDigit(sym.Digit())
		require.NoError(t, err)
		assert.Equal(t, sym, back)
	}
}

func TestDirectionLetterRoundTrip(t *testing.T) {
	for _, d := range []Direction{Right, Left} {
		back, err := DirectionFromLetter(d.Letter())
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}
}

func TestDirectionOffset(t *testing.T) {
	assert.Equal(t, 1, Right.Offset())
	assert.Equal(t, -1, Left.Offset())
}

func TestHaltIsZeroValue(t *testing.T) {
	var t1 Transition
	assert.True(t, t1.IsHalt())
	assert.Equal(t, Halt, t1)
}

func TestContinueIsNotHalt(t *testing.T) {
	tr := Continue(DefinedTransition{Write: 1, Move: Right, State: 2})
	assert.False(t, tr.IsHalt())
	assert.Equal(t, Symbol(1), tr.T.Write)
}

func TestRootNode(t *testing.T) {
	n := RootNode()
	cell := n.Machine.Get(0, 0)
	require.False(t, cell.IsHalt())
	assert.Equal(t, Symbol(1), cell.T.Write)
	assert.Equal(t, Right, cell.T.Move)
	assert.Equal(t, State(1), cell.T.State)

	// every other cell is still Halt
	for s := 0; s < NumStates; s++ {
		for sym := 0; sym < NumSymbols; sym++ {
			if s == 0 && sym == 0 {
				continue
			}
			assert.True(t, n.Machine.Get(State(s), Symbol(sym)).IsHalt())
		}
	}
}

func TestHaltingTransitionCount(t *testing.T) {
	n := RootNode()
	// root has 1 defined cell out of 10.
	assert.Equal(t, 9, n.HaltingTransitionCount())
}

func TestLargestPartiallyDefinedState(t *testing.T) {
	n := RootNode()
	assert.Equal(t, State(0), n.LargestPartiallyDefinedState())

	n.Machine.Set(3, 1, Continue(DefinedTransition{Write: 0, Move: Left, State: 2}))
	assert.Equal(t, State(3), n.LargestPartiallyDefinedState())
}

func TestRootBranch(t *testing.T) {
	b := RootBranch()
	assert.Equal(t, State(1), b.State)
	assert.Equal(t, Symbol(0), b.Symbol)
}

func TestDecisionKindString(t *testing.T) {
	cases := map[DecisionKind]string{
		DecisionHalt:       "h",
		DecisionLoop:       "l",
		DecisionUndecided:  "u",
		DecisionIrrelevant: "i",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
