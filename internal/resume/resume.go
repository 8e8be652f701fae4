// Package resume implements the self-delimiting binary resume file: the
// running classification tallies plus the frontier of not-yet-expanded
// tasks, persisted so a run can be killed and restarted without repeating
// work already logged.
package resume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bb5enum/bb5enum/internal/ioformat"
	apperrors "github.com/bb5enum/bb5enum/pkg/errors"
	"github.com/bb5enum/bb5enum/pkg/machine"
)

// Stats tallies the four classification outcomes seen so far.
type Stats struct {
	Halt       uint64
	Loop       uint64
	Undecided  uint64
	Irrelevant uint64
}

// Total returns the sum of all four tallies: the number of log lines this
// Stats value corresponds to.
func (s Stats) Total() uint64 {
	return s.Halt + s.Loop + s.Undecided + s.Irrelevant
}

// Add folds one decision's classification into the tally.
func (s *Stats) Add(kind machine.DecisionKind) {
	switch kind {
	case machine.DecisionHalt:
		s.Halt++
	case machine.DecisionLoop:
		s.Loop++
	case machine.DecisionUndecided:
		s.Undecided++
	case machine.DecisionIrrelevant:
		s.Irrelevant++
	}
}

// Resume is the full on-disk checkpoint: the tallies plus the still-pending
// task frontier (tasks already drained from workers at the time of the last
// write, global-queue tasks and local-stack tasks alike).
type Resume struct {
	Stats Stats
	Tasks []machine.Task
}

// taskEncodedLen is the byte size of one encoded Task: a 30-byte seed-db
// machine plus a 2-byte branch (state, symbol).
const taskEncodedLen = 30 + 2

// statsEncodedLen is the byte size of the four uint64 tallies.
const statsEncodedLen = 8 * 4

// Write encodes r to w: the four tallies, a task count, then each task.
// This is the format's entire content — it is self-delimiting by the task
// count, not by end-of-stream.
func Write(w io.Writer, r *Resume) error {
	bw := bufio.NewWriter(w)
	var head [statsEncodedLen + 8]byte
	binary.LittleEndian.PutUint64(head[0:8], r.Stats.Halt)
	binary.LittleEndian.PutUint64(head[8:16], r.Stats.Loop)
	binary.LittleEndian.PutUint64(head[16:24], r.Stats.Undecided)
	binary.LittleEndian.PutUint64(head[24:32], r.Stats.Irrelevant)
	binary.LittleEndian.PutUint64(head[32:40], uint64(len(r.Tasks)))
	if _, err := bw.Write(head[:]); err != nil {
		return apperrors.Wrap(apperrors.CodeIOError, "writing resume header", err)
	}
	for _, t := range r.Tasks {
		buf := encodeTask(t)
		if _, err := bw.Write(buf[:]); err != nil {
			return apperrors.Wrap(apperrors.CodeIOError, "writing resume task", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return apperrors.Wrap(apperrors.CodeIOError, "flushing resume file", err)
	}
	return nil
}

// Read decodes a Resume previously written by Write.
func Read(r io.Reader) (*Resume, error) {
	br := bufio.NewReader(r)
	var head [statsEncodedLen + 8]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, apperrors.Wrap(apperrors.CodeResumeCorrupt, "resume file too short for header", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeIOError, "reading resume header", err)
	}
	out := &Resume{
		Stats: Stats{
			Halt:       binary.LittleEndian.Uint64(head[0:8]),
			Loop:       binary.LittleEndian.Uint64(head[8:16]),
			Undecided:  binary.LittleEndian.Uint64(head[16:24]),
			Irrelevant: binary.LittleEndian.Uint64(head[24:32]),
		},
	}
	count := binary.LittleEndian.Uint64(head[32:40])
	out.Tasks = make([]machine.Task, 0, count)
	buf := make([]byte, taskEncodedLen)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeResumeCorrupt, "resume file truncated mid-task", err)
		}
		task, err := decodeTask(buf)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeResumeCorrupt, "resume file holds an invalid task", err)
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out, nil
}

func encodeTask(t machine.Task) [taskEncodedLen]byte {
	var out [taskEncodedLen]byte
	db := ioformat.WriteSeedDatabase(&t.Node.Machine)
	copy(out[:30], db[:])
	out[30] = t.Branch.State.Get()
	out[31] = t.Branch.Symbol.Get()
	return out
}

func decodeTask(b []byte) (machine.Task, error) {
	m, err := ioformat.ReadSeedDatabase(b[:30])
	if err != nil {
		return machine.Task{}, err
	}
	state, err := machine.NewState(b[30])
	if err != nil {
		return machine.Task{}, err
	}
	symbol, err := machine.NewSymbol(b[31])
	if err != nil {
		return machine.Task{}, err
	}
	return machine.Task{
		Node:   machine.Node{Machine: m},
		Branch: machine.HaltingTransitionIndex{State: state, Symbol: symbol},
	}, nil
}

// CrossCheck validates the two startup invariants tying the resume file to
// the log file: the tallies and the task frontier must agree on whether any
// work has happened at all, and the log file's byte length must be an exact
// multiple of one 37-byte log line matching the tally total.
func CrossCheck(r *Resume, logBytes int64, logEntryLen int64) error {
	total := r.Stats.Total()
	if (total == 0) != (len(r.Tasks) == 0) {
		return apperrors.Wrap(apperrors.CodeStateMismatch,
			fmt.Sprintf("resume stats total=%d but task count=%d", total, len(r.Tasks)), nil)
	}
	want := int64(total) * logEntryLen
	if logBytes != want {
		return apperrors.Wrap(apperrors.CodeStateMismatch,
			fmt.Sprintf("log file is %d bytes, want %d (stats total %d * %d)", logBytes, want, total, logEntryLen), nil)
	}
	return nil
}

// RewriteFile atomically replaces the contents of an already-open resume
// file: truncate to zero, seek to the start, write the new encoding, and
// flush to disk. The file is never closed and reopened, so a crash between
// truncate and write is the only window that can corrupt it — narrower than
// write-new-file-then-rename would be for a file this small, and it avoids
// a second file descriptor and path lookup.
func RewriteFile(f *os.File, r *Resume) error {
	if err := f.Truncate(0); err != nil {
		return apperrors.Wrap(apperrors.CodeIOError, "truncating resume file", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return apperrors.Wrap(apperrors.CodeIOError, "seeking resume file", err)
	}
	if err := Write(f, r); err != nil {
		return err
	}
	return f.Sync()
}
