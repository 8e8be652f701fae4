// Package ioformat implements the textual and binary machine representations
// defined by the external interfaces: the compact human-readable form used
// in the log, and the 30-byte bbchallenge seed-database form.
package ioformat

import (
	"fmt"

	"github.com/bb5enum/bb5enum/pkg/machine"
)

// BB5ChampionCompact is the conjectured BB(5) champion machine in compact form.
const BB5ChampionCompact = "1RB1LC_1RC1RB_1RD0LE_1LA1LD_---0LA"

// BB4ChampionCompact is the BB(4) champion machine in compact form.
const BB4ChampionCompact = "1RB1LB_1LA0LC_---1LD_1RD0RA_------"

// compactLen is the exact byte length of a compact machine representation:
// 5 state blocks of 2*3=6 bytes, joined by 4 '_' separators.
const compactLen = machine.NumStates*machine.NumSymbols*3 + (machine.NumStates - 1)

// WriteCompact renders a machine in the compact textual form, e.g.
// "1RB1LC_1RC1RB_1RD0LE_1LA1LD_---0LA".
func WriteCompact(m *machine.Machine) string {
	buf := make([]byte, 0, compactLen)
	for s := 0; s < machine.NumStates; s++ {
		if s != 0 {
			buf = append(buf, '_')
		}
		for sym := 0; sym < machine.NumSymbols; sym++ {
			t := m[s][sym]
			if t.IsHalt() {
				buf = append(buf, '-', '-', '-')
				continue
			}
			buf = append(buf, t.T.Write.Digit(), t.T.Move.Letter(), t.T.State.Letter())
		}
	}
	return string(buf)
}

// ReadCompact parses a compact human-readable machine representation.
func ReadCompact(s string) (machine.Machine, error) {
	if len(s) != compactLen {
		return machine.Machine{}, fmt.Errorf("ioformat: invalid compact length %d, want %d", len(s), compactLen)
	}
	var m machine.Machine
	pos := 0
	for st := 0; st < machine.NumStates; st++ {
		if st != 0 {
			if s[pos] != '_' {
				return machine.Machine{}, fmt.Errorf("ioformat: expected '_' separator at byte %d", pos)
			}
			pos++
		}
		for sym := 0; sym < machine.NumSymbols; sym++ {
			chunk := s[pos : pos+3]
			pos += 3
			t, err := readTransitionCompact(chunk)
			if err != nil {
				return machine.Machine{}, err
			}
			m[st][sym] = t
		}
	}
	return m, nil
}

func readTransitionCompact(s string) (machine.Transition, error) {
	if s == "---" {
		return machine.Halt, nil
	}
	write, err := machine.SymbolFromDigit(s[0])
	if err != nil {
		return machine.Transition{}, err
	}
	move, err := machine.DirectionFromLetter(s[1])
	if err != nil {
		return machine.Transition{}, err
	}
	state, err := machine.StateFromLetter(s[2])
	if err != nil {
		return machine.Transition{}, err
	}
	return machine.Continue(machine.DefinedTransition{Write: write, Move: move, State: state}), nil
}

// seedDBLen is the fixed length of the bbchallenge seed-database machine
// representation: 5 states * 2 symbols * 3 bytes.
const seedDBLen = machine.NumStates * machine.NumSymbols * 3

// ReadSeedDatabase parses a bbchallenge seed-database machine representation.
func ReadSeedDatabase(b []byte) (machine.Machine, error) {
	if len(b) != seedDBLen {
		return machine.Machine{}, fmt.Errorf("ioformat: invalid seed-db length %d, want %d", len(b), seedDBLen)
	}
	var m machine.Machine
	i := 0
	for st := 0; st < machine.NumStates; st++ {
		for sym := 0; sym < machine.NumSymbols; sym++ {
			chunk := b[i : i+3]
			i += 3
			t, err := readTransitionSeedDB(chunk)
			if err != nil {
				return machine.Machine{}, err
			}
			m[st][sym] = t
		}
	}
	return m, nil
}

func readTransitionSeedDB(b []byte) (machine.Transition, error) {
	if b[0] == 0 && b[1] == 0 && b[2] == 0 {
		return machine.Halt, nil
	}
	write, err := machine.NewSymbol(b[0])
	if err != nil {
		return machine.Transition{}, err
	}
	var move machine.Direction
	switch b[1] {
	case 0:
		move = machine.Right
	case 1:
		move = machine.Left
	default:
		return machine.Transition{}, fmt.Errorf("ioformat: invalid seed-db move byte %d", b[1])
	}
	if b[2] == 0 {
		return machine.Transition{}, fmt.Errorf("ioformat: invalid seed-db state byte 0")
	}
	state, err := machine.NewState(b[2] - 1)
	if err != nil {
		return machine.Transition{}, err
	}
	return machine.Continue(machine.DefinedTransition{Write: write, Move: move, State: state}), nil
}

// WriteSeedDatabase renders a machine in the bbchallenge seed-database form.
func WriteSeedDatabase(m *machine.Machine) [seedDBLen]byte {
	var out [seedDBLen]byte
	i := 0
	for st := 0; st < machine.NumStates; st++ {
		for sym := 0; sym < machine.NumSymbols; sym++ {
			t := m[st][sym]
			if t.IsHalt() {
				i += 3
				continue
			}
			out[i] = t.T.Write.Get()
			if t.T.Move == machine.Left {
				out[i+1] = 1
			} else {
				out[i+1] = 0
			}
			out[i+2] = t.T.State.Get() + 1
			i += 3
		}
	}
	return out
}
