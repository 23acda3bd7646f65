package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestMapA440(t *testing.T) {
	n, err := Map(440, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Letter != A || n.Accidental != Natural || n.Octave != 4 {
		t.Fatalf("expected A4, got %s", n)
	}
	if n.Cents != 0 {
		t.Fatalf("expected exactly 0 cents at the anchor, got %g", n.Cents)
	}
	if n.Frequency != 440 {
		t.Fatalf("expected input frequency echoed, got %g", n.Frequency)
	}
}

func TestMapMiddleC(t *testing.T) {
	n, err := Map(261.6256, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.String() != "C4" {
		t.Fatalf("expected C4, got %s", n)
	}
	if math.Abs(n.Cents) > 0.01 {
		t.Fatalf("expected cents near 0, got %.4f", n.Cents)
	}
}

func TestMapSharpFlatSpelling(t *testing.T) {
	s, err := Map(466.16, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := Map(466.16, Flats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.String() != "A♯4" {
		t.Fatalf("expected A♯4 under sharps, got %s", s)
	}
	if f.String() != "B♭4" {
		t.Fatalf("expected B♭4 under flats, got %s", f)
	}
	if s.Octave != f.Octave || s.Cents != f.Cents {
		t.Fatalf("spelling changed octave or cents: %s %+.2f vs %s %+.2f", s, s.Cents, f, f.Cents)
	}
}

func TestMapModeOnlyChangesSpelling(t *testing.T) {
	for f := 30.0; f < 4000; f *= 1.017 {
		s, err := Map(f, Sharps)
		if err != nil {
			t.Fatalf("unexpected error at %.2f: %v", f, err)
		}
		fl, err := Map(f, Flats)
		if err != nil {
			t.Fatalf("unexpected error at %.2f: %v", f, err)
		}
		if s.Octave != fl.Octave || s.Cents != fl.Cents {
			t.Fatalf("mode changed octave or cents at %.2f Hz: %s vs %s", f, s, fl)
		}
		if s.Accidental == Natural && (fl.Letter != s.Letter || fl.Accidental != Natural) {
			t.Fatalf("naturals must spell the same at %.2f Hz: %s vs %s", f, s, fl)
		}
		if s.Accidental == Sharp && fl.Accidental != Flat {
			t.Fatalf("expected flat spelling at %.2f Hz, got %s", f, fl)
		}
	}
}

func TestMapOctaveBoundary(t *testing.T) {
	cases := []struct {
		freq float64
		want string
	}{
		{246.94, "B3"},
		{261.63, "C4"},
		{415.30, "G♯4"},
		{440, "A4"},
		{880, "A5"},
		{27.5, "A0"},
	}
	for _, c := range cases {
		n, err := Map(c.freq, Sharps)
		if err != nil {
			t.Fatalf("unexpected error at %.2f: %v", c.freq, err)
		}
		if n.String() != c.want {
			t.Fatalf("expected %s at %.2f Hz, got %s", c.want, c.freq, n)
		}
	}
}

func TestMapCentsRange(t *testing.T) {
	for f := 20.0; f < 5000; f *= 1.003 {
		n, err := Map(f, Flats)
		if err != nil {
			t.Fatalf("unexpected error at %.2f: %v", f, err)
		}
		if n.Cents <= -50 || n.Cents > 50 {
			t.Fatalf("cents out of range at %.2f Hz: %+.4f", f, n.Cents)
		}
	}
}

func TestMapCentsMonotonic(t *testing.T) {
	prev, err := Map(420, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for f := 420.25; f <= 470; f += 0.25 {
		n, err := Map(f, Sharps)
		if err != nil {
			t.Fatalf("unexpected error at %.2f: %v", f, err)
		}
		if n.String() == prev.String() {
			if n.Cents <= prev.Cents {
				t.Fatalf("cents should rise with frequency at %.2f Hz: %+.4f then %+.4f", f, prev.Cents, n.Cents)
			}
		} else if n.Cents >= prev.Cents {
			t.Fatalf("cents should wrap low when the note turns over at %.2f Hz: %+.4f then %+.4f", f, prev.Cents, n.Cents)
		}
		prev = n
	}
}

func TestNearestSemitoneTies(t *testing.T) {
	cases := []struct {
		offset float64
		want   int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 0},
		{0.51, 1},
		{1.5, 1},
		{-0.49, 0},
		{-0.5, -1},
		{-1.5, -2},
		{12.5, 12},
	}
	for _, c := range cases {
		if got := nearestSemitone(c.offset); got != c.want {
			t.Fatalf("expected %d for offset %.2f, got %d", c.want, c.offset, got)
		}
	}
}

func TestMapInvalidFrequency(t *testing.T) {
	for _, f := range []float64{0, -10, math.NaN(), math.Inf(1), math.Inf(-1)} {
		n, err := Map(f, Sharps)
		if err == nil {
			t.Fatalf("expected error for %v", f)
		}
		if !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("expected ErrInvalidFrequency for %v, got %v", f, err)
		}
		if n != (PitchedNote{}) {
			t.Fatalf("expected zero note for %v, got %s", f, n)
		}
	}
}

func TestMapDeterministic(t *testing.T) {
	first, err := Map(329.627557, Flats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Map(329.627557, Flats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestNoteAtNames(t *testing.T) {
	cases := []struct {
		n    int
		mode AccidentalMode
		want string
	}{
		{0, Sharps, "A4"},
		{1, Sharps, "A♯4"},
		{1, Flats, "B♭4"},
		{2, Sharps, "B4"},
		{3, Sharps, "C5"},
		{4, Flats, "D♭5"},
		{-9, Sharps, "C4"},
		{-10, Flats, "B3"},
		{-12, Sharps, "A3"},
		{-21, Flats, "C3"},
		{14, Flats, "B5"},
		{-48, Sharps, "A0"},
	}
	for _, c := range cases {
		if got := NoteAt(c.n, c.mode).String(); got != c.want {
			t.Fatalf("expected %s at %d semitones, got %s", c.want, c.n, got)
		}
	}
}

func TestNoteAtRoundtrip(t *testing.T) {
	for n := -36; n <= 36; n++ {
		for _, mode := range []AccidentalMode{Sharps, Flats} {
			exact := NoteAt(n, mode)
			got, err := Map(exact.Frequency, mode)
			if err != nil {
				t.Fatalf("unexpected error at %d semitones: %v", n, err)
			}
			if got.Letter != exact.Letter || got.Accidental != exact.Accidental || got.Octave != exact.Octave {
				t.Fatalf("roundtrip mismatch at %d semitones: %s vs %s", n, exact, got)
			}
			if math.Abs(got.Cents) > 1e-6 {
				t.Fatalf("expected ~0 cents at %d semitones, got %g", n, got.Cents)
			}
		}
	}
}

func TestTuningAnchor(t *testing.T) {
	verdi := Tuning{ReferenceHz: 432}
	n, err := verdi.Map(432, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.String() != "A4" || n.Cents != 0 {
		t.Fatalf("expected A4 at 0 cents under a 432 anchor, got %s %+.2f", n, n.Cents)
	}
	high, err := verdi.Map(440, Sharps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high.String() != "A4" {
		t.Fatalf("expected 440 to read as sharp A4 under a 432 anchor, got %s", high)
	}
	if math.Abs(high.Cents-31.77) > 0.05 {
		t.Fatalf("expected ~+31.77 cents, got %+.3f", high.Cents)
	}
	c5 := verdi.NoteAt(3, Sharps)
	if c5.String() != "C5" {
		t.Fatalf("expected C5, got %s", c5)
	}
	if math.Abs(c5.Frequency-513.74) > 0.01 {
		t.Fatalf("expected ~513.74 Hz, got %.3f", c5.Frequency)
	}
}

func TestModeNames(t *testing.T) {
	if Sharps.String() != "sharps" || Flats.String() != "flats" {
		t.Fatalf("unexpected mode names: %s, %s", Sharps, Flats)
	}
}
