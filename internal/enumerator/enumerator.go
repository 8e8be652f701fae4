// Package enumerator generates the canonical child transitions of a
// partially-defined Node at a chosen halting slot, realizing tree normal
// form: a new non-initial state first occurs when and only when it is the
// smallest unused index at that point.
package enumerator

import "github.com/bb5enum/bb5enum/pkg/machine"

// ChildNodes iterates the DefinedTransition values that should be
// substituted into a Node's branch cell to form its children. It is finite,
// non-restartable, and holds no reference to the Node: the caller captures
// branch before constructing the iterator and mutates the node's cell itself
// for each yielded transition.
//
// Generation order, outer to inner: target state (0..=maxState), direction
// (Right then Left), symbol (0 then 1).
type ChildNodes struct {
	exhausted bool
	maxState  uint8
	state     uint8
	direction uint8
	symbol    uint8
}

// New constructs the child-transition iterator for node at branch.
//
// maxState = min(max(largest-partially-defined-state, branch.State) + 1,
// NumStates-1). The max with branch.State guarantees filling the branch
// cell with a self-loop is always legal; it changes the result whenever
// branch.State exceeds largest-partially-defined-state, as at the root
// (largest A, branch B), where it lets the children reach state C.
// The +1 permits one newly-activated state per expansion; the min caps the
// result at the fixed 5-state shape.
func New(node *machine.Node, branch machine.HaltingTransitionIndex) ChildNodes {
	largest := node.LargestPartiallyDefinedState().Get()
	if branch.State.Get() > largest {
		largest = branch.State.Get()
	}
	maxState := largest + 1
	if maxState > machine.NumStates-1 {
		maxState = machine.NumStates - 1
	}
	return ChildNodes{maxState: maxState}
}

// Next returns the next candidate transition, or (zero, false) once
// exhausted.
func (c *ChildNodes) Next() (machine.DefinedTransition, bool) {
	if c.exhausted {
		return machine.DefinedTransition{}, false
	}
	dir := machine.Right
	if c.direction == 1 {
		dir = machine.Left
	}
	result := machine.DefinedTransition{
		State: machine.State(c.state),
		Move:  dir,
		Write: machine.Symbol(c.symbol),
	}

	c.exhausted = true
	if c.symbol < 1 {
		c.symbol++
		c.exhausted = false
	} else {
		c.symbol = 0
		if c.direction < 1 {
			c.direction++
			c.exhausted = false
		} else {
			c.direction = 0
			if c.state < c.maxState {
				c.state++
				c.exhausted = false
			} else {
				c.state = 0
			}
		}
	}
	return result, true
}
