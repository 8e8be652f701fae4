package driver

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bb5enum/bb5enum/internal/ioformat"
	"github.com/bb5enum/bb5enum/internal/resume"
	"github.com/bb5enum/bb5enum/pkg/config"
	"github.com/bb5enum/bb5enum/pkg/machine"
	"github.com/bb5enum/bb5enum/pkg/utils"
)

// loopingTask builds a task whose only defined transitions loop forever
// between states A and B, never visiting the branch cell's state. Every
// candidate the enumerator generates for it therefore decides Loop as soon
// as the step count passes BB4Steps, and none of them decide Halt, so a driver run over it completes
// in one round with no further tasks generated.
func loopingTask() machine.Task {
	var node machine.Node
	node.Machine.Set(0, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 1}))
	node.Machine.Set(0, 1, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Right, State: 1}))
	node.Machine.Set(1, 0, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Left, State: 0}))
	node.Machine.Set(1, 1, machine.Continue(machine.DefinedTransition{Write: 1, Move: machine.Left, State: 0}))
	node.Machine.Set(2, 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Right, State: 0}))
	node.Machine.Set(2, 1, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Right, State: 0}))
	node.Machine.Set(3, 0, machine.Continue(machine.DefinedTransition{Write: 0, Move: machine.Right, State: 0}))
	// (3,1) and (4,1) stay Halt; (4,0) is the branch cell under test.
	return machine.Task{
		Node:   node,
		Branch: machine.HaltingTransitionIndex{State: 4, Symbol: 0},
	}
}

func testConfig() config.DriverConfig {
	return config.DriverConfig{
		WorkerCount:        2,
		StatsInterval:      1,
		PollIntervalMillis: 1,
	}
}

func TestDriver_Run_ProcessesSeedWithoutFurtherExpansion(t *testing.T) {
	logger := utils.NewDefaultLogger(utils.LevelError, io.Discard)
	clock := utils.NewMockClock(time.Unix(0, 0))
	seed := []machine.Task{loopingTask()}

	d := New(testConfig(), logger, clock, seed, resume.Stats{})

	var logBuf bytes.Buffer
	logWriter := ioformat.NewLogWriter(&logBuf)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, leftover, err := d.Run(ctx, logWriter)
	require.NoError(t, err)
	assert.Empty(t, leftover, "no candidate in this fixture should decide Halt")
	assert.Equal(t, uint64(20), stats.Total(), "2 dirs * 2 syms * 5 target states = 20 candidates")
	assert.Zero(t, stats.Halt)
}

func TestDriver_Run_HonorsContextCancellation(t *testing.T) {
	logger := utils.NewDefaultLogger(utils.LevelError, io.Discard)
	clock := utils.NewMockClock(time.Unix(0, 0))
	seed := []machine.Task{loopingTask(), loopingTask(), loopingTask()}

	d := New(testConfig(), logger, clock, seed, resume.Stats{})

	var logBuf bytes.Buffer
	logWriter := ioformat.NewLogWriter(&logBuf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already canceled before Run starts

	stats, leftover, err := d.Run(ctx, logWriter)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, leftover, len(seed), "canceled workers must surrender the seed untouched")
	assert.Equal(t, uint64(0), stats.Total())
}

func TestDriver_Stop_IsIdempotent(t *testing.T) {
	d := New(testConfig(), utils.NewDefaultLogger(utils.LevelError, io.Discard), utils.NewMockClock(time.Unix(0, 0)), nil, resume.Stats{})
	d.Stop()
	d.Stop()
	assert.True(t, d.done.Load())
}
