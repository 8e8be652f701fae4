package ioformat

import (
	"bufio"
	"fmt"
	"io"

	"github.com/bb5enum/bb5enum/pkg/machine"
)

// LogEntryLen is the fixed byte length of one log line: 34 bytes of compact
// machine text, a space, a single classification character, and a newline.
const LogEntryLen = compactLen + 1 + 1 + 1

// WriteLogEntry writes one log line for (m, decision) to w.
func WriteLogEntry(w io.Writer, m *machine.Machine, kind machine.DecisionKind) error {
	line := WriteCompact(m) + " " + kind.String() + "\n"
	if len(line) != LogEntryLen {
		return fmt.Errorf("ioformat: internal error, log line length %d != %d", len(line), LogEntryLen)
	}
	_, err := io.WriteString(w, line)
	return err
}

// LogWriter buffers log lines and exposes the number of bytes written, so
// callers can track expected log length without a separate stat() call.
type LogWriter struct {
	w           *bufio.Writer
	bytesWritten int64
}

// NewLogWriter wraps an io.Writer (normally an append-mode *os.File) with
// buffering.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: bufio.NewWriter(w)}
}

// WriteEntry appends one log line.
func (lw *LogWriter) WriteEntry(m *machine.Machine, kind machine.DecisionKind) error {
	if err := WriteLogEntry(lw.w, m, kind); err != nil {
		return err
	}
	lw.bytesWritten += int64(LogEntryLen)
	return nil
}

// BytesWritten returns the number of bytes appended so far by this writer.
func (lw *LogWriter) BytesWritten() int64 { return lw.bytesWritten }

// Flush flushes the underlying buffer.
func (lw *LogWriter) Flush() error { return lw.w.Flush() }

// ParseLogLine parses one log line with its trailing newline already
// removed (36 bytes), as produced by splitting the log on '\n'.
func ParseLogLine(line string) (machine.Machine, machine.DecisionKind, error) {
	if len(line) != compactLen+2 {
		return machine.Machine{}, 0, fmt.Errorf("ioformat: invalid log line length %d", len(line))
	}
	if line[compactLen] != ' ' {
		return machine.Machine{}, 0, fmt.Errorf("ioformat: missing space separator in log line")
	}
	m, err := ReadCompact(line[:compactLen])
	if err != nil {
		return machine.Machine{}, 0, err
	}
	var kind machine.DecisionKind
	switch line[compactLen+1] {
	case 'h':
		kind = machine.DecisionHalt
	case 'l':
		kind = machine.DecisionLoop
	case 'u':
		kind = machine.DecisionUndecided
	case 'i':
		kind = machine.DecisionIrrelevant
	default:
		return machine.Machine{}, 0, fmt.Errorf("ioformat: unknown classification byte %q", line[compactLen+1])
	}
	return m, kind, nil
}
