// Package pitch names frequencies in twelve-tone equal temperament.
package pitch

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFrequency reports an input no vibrating string can produce:
// zero, negative, NaN, or infinite.
var ErrInvalidFrequency = errors.New("invalid frequency")

// Letter is a natural note letter, A through G.
type Letter byte

const (
	A Letter = 'A' + iota
	B
	C
	D
	E
	F
	G
)

func (l Letter) String() string { return string(rune(l)) }

// Accidental is the chromatic alteration attached to a letter.
type Accidental int8

const (
	Natural Accidental = iota
	Sharp
	Flat
)

func (a Accidental) String() string {
	switch a {
	case Sharp:
		return "♯"
	case Flat:
		return "♭"
	}
	return ""
}

// AccidentalMode selects how the five altered pitch classes are spelled:
// A♯ against B♭ and so on. It never changes which note is chosen.
type AccidentalMode int8

const (
	Sharps AccidentalMode = iota
	Flats
)

func (m AccidentalMode) String() string {
	if m == Flats {
		return "flats"
	}
	return "sharps"
}

// PitchedNote is a named frequency: the nearest equal-tempered note plus
// the signed distance left over.
type PitchedNote struct {
	Letter     Letter
	Accidental Accidental
	Octave     int     // scientific pitch notation, turns over between B and C
	Frequency  float64 // the input frequency, echoed back
	Cents      float64 // deviation from the named note, always in (-50, +50]
}

func (n PitchedNote) String() string {
	return fmt.Sprintf("%s%s%d", n.Letter, n.Accidental, n.Octave)
}

// Tuning anchors the scale by the frequency of A4. ReferenceHz must be
// positive and finite.
type Tuning struct {
	ReferenceHz float64
}

// Standard is concert pitch, A4 = 440 Hz.
var Standard = Tuning{ReferenceHz: 440}

// Map names freq against standard concert pitch.
func Map(freq float64, mode AccidentalMode) (PitchedNote, error) {
	return Standard.Map(freq, mode)
}

// NoteAt returns the note n semitones from A4 in standard concert pitch.
func NoteAt(n int, mode AccidentalMode) PitchedNote {
	return Standard.NoteAt(n, mode)
}

type spelling struct {
	letter Letter
	acc    Accidental
}

// classes counts semitones upward from the reference A. Index 0 is A
// itself; the octave number still turns over at C, three entries up.
var classes = [12]struct{ sharp, flat spelling }{
	{spelling{A, Natural}, spelling{A, Natural}},
	{spelling{A, Sharp}, spelling{B, Flat}},
	{spelling{B, Natural}, spelling{B, Natural}},
	{spelling{C, Natural}, spelling{C, Natural}},
	{spelling{C, Sharp}, spelling{D, Flat}},
	{spelling{D, Natural}, spelling{D, Natural}},
	{spelling{D, Sharp}, spelling{E, Flat}},
	{spelling{E, Natural}, spelling{E, Natural}},
	{spelling{F, Natural}, spelling{F, Natural}},
	{spelling{F, Sharp}, spelling{G, Flat}},
	{spelling{G, Natural}, spelling{G, Natural}},
	{spelling{G, Sharp}, spelling{A, Flat}},
}

// Map names the equal-tempered note nearest to freq. The result carries the
// input frequency and the remaining deviation in cents.
func (t Tuning) Map(freq float64, mode AccidentalMode) (PitchedNote, error) {
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return PitchedNote{}, fmt.Errorf("%w: %v", ErrInvalidFrequency, freq)
	}
	offset := 12 * math.Log2(freq/t.ReferenceHz)
	n := nearestSemitone(offset)
	note := t.NoteAt(n, mode)
	note.Frequency = freq
	note.Cents = (offset - float64(n)) * 100
	return note, nil
}

// nearestSemitone rounds a fractional semitone offset to a note. An offset
// exactly halfway between two notes belongs to the lower one, which reads
// as +50 cents, so cents stays inside (-50, +50].
func nearestSemitone(offset float64) int {
	return int(math.Ceil(offset - 0.5))
}

// NoteAt returns the exact note n semitones from the reference A4, with
// its frequency under this tuning and zero cents.
func (t Tuning) NoteAt(n int, mode AccidentalMode) PitchedNote {
	class := classes[((n%12)+12)%12]
	sp := class.sharp
	if mode == Flats {
		sp = class.flat
	}
	return PitchedNote{
		Letter:     sp.letter,
		Accidental: sp.acc,
		Octave:     4 + int(math.Floor(float64(n+9)/12)),
		Frequency:  t.ReferenceHz * math.Pow(2, float64(n)/12),
	}
}
