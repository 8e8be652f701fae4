package ioformat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bb5enum/bb5enum/pkg/machine"
)

func TestWriteLogEntry_Length(t *testing.T) {
	m, err := ReadCompact(BB5ChampionCompact)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLogEntry(&buf, &m, machine.DecisionHalt))
	assert.Equal(t, LogEntryLen, buf.Len())
	assert.Equal(t, BB5ChampionCompact+" h\n", buf.String())
}

func TestParseLogLine_RoundTrip(t *testing.T) {
	m, err := ReadCompact(BB4ChampionCompact)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLogEntry(&buf, &m, machine.DecisionLoop))

	line := buf.String()[:buf.Len()-1] // drop trailing newline
	parsed, kind, err := ParseLogLine(line)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
	assert.Equal(t, machine.DecisionLoop, kind)
}

func TestParseLogLine_InvalidLength(t *testing.T) {
	_, _, err := ParseLogLine("short")
	assert.Error(t, err)
}

func TestParseLogLine_UnknownClassification(t *testing.T) {
	m, err := ReadCompact(BB4ChampionCompact)
	require.NoError(t, err)
	line := WriteCompact(&m) + " x"
	_, _, err = ParseLogLine(line)
	assert.Error(t, err)
}

func TestLogWriter_TracksBytesWritten(t *testing.T) {
	m, err := ReadCompact(BB5ChampionCompact)
	require.NoError(t, err)

	var buf bytes.Buffer
	lw := NewLogWriter(&buf)
	require.NoError(t, lw.WriteEntry(&m, machine.DecisionUndecided))
	require.NoError(t, lw.WriteEntry(&m, machine.DecisionIrrelevant))
	assert.Equal(t, int64(2*LogEntryLen), lw.BytesWritten())

	require.NoError(t, lw.Flush())
	assert.Equal(t, 2*LogEntryLen, buf.Len())
}
