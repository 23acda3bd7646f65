package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/orsi/vvtuner/internal/audio"
	"github.com/orsi/vvtuner/internal/dsp"
	"github.com/orsi/vvtuner/internal/pitch"
)

const (
	analysisWindow   = 4096
	minReferenceHz   = 432
	maxReferenceHz   = 446
	toneLowSemitone  = -24 // A2
	toneHighSemitone = 12  // A5
)

type uiState struct {
	mu     sync.RWMutex
	mode   pitch.AccidentalMode
	tuning pitch.Tuning
}

func (s *uiState) setMode(m pitch.AccidentalMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func (s *uiState) setTuning(t pitch.Tuning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuning = t
}

func (s *uiState) get() (pitch.AccidentalMode, pitch.Tuning) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode, s.tuning
}

type audioRunner struct {
	stop func()
	mu   sync.Mutex
}

func (r *audioRunner) replace(stop func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
	}
	r.stop = stop
}

func (r *audioRunner) shutdown() {
	r.replace(nil)
}

func main() {
	runtime.LockOSThread()
	actx, err := audio.NewContext()
	if err != nil {
		log.Fatalf("audio init failed: %v", err)
	}
	defer actx.Close()

	a := app.NewWithID("vvtuner")
	w := a.NewWindow("VV Tuner")
	w.Resize(fyne.NewSize(360, 240))
	w.SetFixedSize(true)
	prefs := a.Preferences()

	statusText := binding.NewString()
	_ = statusText.Set("Select input device")
	statusLabel := widget.NewLabelWithData(statusText)

	noteText := binding.NewString()
	_ = noteText.Set("--")
	noteLabel := canvas.NewText("--", theme.ForegroundColor())
	noteLabel.Alignment = fyne.TextAlignCenter
	noteLabel.TextStyle = fyne.TextStyle{Bold: true}
	noteLabel.TextSize = 34.0

	freqText := binding.NewString()
	_ = freqText.Set("-- Hz")
	freqLabel := canvas.NewText("-- Hz", theme.ForegroundColor())
	freqLabel.Alignment = fyne.TextAlignCenter
	freqLabel.TextStyle = fyne.TextStyle{Monospace: true}
	freqLabel.TextSize = 20.0

	centsText := binding.NewString()
	centsLabel := canvas.NewText("", theme.ForegroundColor())
	centsLabel.Alignment = fyne.TextAlignCenter
	centsLabel.TextStyle = fyne.TextStyle{Monospace: true}
	centsLabel.TextSize = 16.0

	dial := NewTuningDial()

	// Binding updates -> canvas.Text
	noteText.AddListener(binding.NewDataListener(func() {
		val, _ := noteText.Get()
		noteLabel.Text = val
		noteLabel.Color = dial.Color()
		noteLabel.Refresh()
	}))
	freqText.AddListener(binding.NewDataListener(func() {
		val, _ := freqText.Get()
		freqLabel.Text = val
		freqLabel.Refresh()
	}))
	centsText.AddListener(binding.NewDataListener(func() {
		val, _ := centsText.Get()
		centsLabel.Text = val
		centsLabel.Refresh()
	}))

	devices, err := actx.Devices()
	if err != nil {
		log.Fatalf("input devices: %v", err)
	}
	deviceNames := make([]string, len(devices))
	for i, d := range devices {
		deviceNames[i] = d.Name
	}

	capture := &audioRunner{}
	toneOut := &audioRunner{}
	state := &uiState{tuning: pitch.Standard}

	modeNames := []string{"Sharps ♯", "Flats ♭"}
	modeSelect := widget.NewSelect(modeNames, func(name string) {
		mode := pitch.Sharps
		if name == modeNames[1] {
			mode = pitch.Flats
		}
		state.setMode(mode)
		prefs.SetString("accidental_mode", mode.String())
	})
	if prefs.StringWithFallback("accidental_mode", pitch.Sharps.String()) == pitch.Flats.String() {
		modeSelect.SetSelected(modeNames[1])
	} else {
		modeSelect.SetSelected(modeNames[0])
	}

	refNames := make([]string, 0, maxReferenceHz-minReferenceHz+1)
	for hz := minReferenceHz; hz <= maxReferenceHz; hz++ {
		refNames = append(refNames, fmt.Sprintf("%d Hz", hz))
	}
	refSelect := widget.NewSelect(refNames, func(name string) {
		hz, err := strconv.Atoi(strings.TrimSuffix(name, " Hz"))
		if err != nil {
			return
		}
		state.setTuning(pitch.Tuning{ReferenceHz: float64(hz)})
		prefs.SetInt("reference_hz", hz)
	})
	refSelect.PlaceHolder = "A4 reference"
	lastRef := prefs.IntWithFallback("reference_hz", 440)
	if lastRef < minReferenceHz || lastRef > maxReferenceHz {
		lastRef = 440
	}
	refSelect.SetSelected(fmt.Sprintf("%d Hz", lastRef))

	toneNames := buildToneNames()
	var toneBtn *widget.Button
	tonePlaying := false
	stopTone := func() {
		toneOut.shutdown()
		tonePlaying = false
		toneBtn.SetText("Play tone")
	}
	toneSelect := widget.NewSelect(toneNames, func(name string) {
		prefs.SetString("tone_note", name)
		if tonePlaying {
			stopTone()
		}
	})
	toneSelect.PlaceHolder = "Tone note"
	defaultTone := prefs.StringWithFallback("tone_note", "A4")
	if indexOf(toneNames, defaultTone) < 0 {
		defaultTone = "A4"
	}
	toneBtn = widget.NewButton("Play tone", func() {
		if tonePlaying {
			stopTone()
			return
		}
		idx := indexOf(toneNames, toneSelect.Selected)
		if idx < 0 {
			return
		}
		_, tuning := state.get()
		freq := tuning.NoteAt(toneLowSemitone+idx, pitch.Sharps).Frequency
		tone, err := actx.PlayTone(freq)
		if err != nil {
			_ = statusText.Set(fmt.Sprintf("Tone error: %v", err))
			return
		}
		toneOut.replace(tone.Stop)
		tonePlaying = true
		toneBtn.SetText("Stop tone")
	})
	toneSelect.SetSelected(defaultTone)

	lastDevice := prefs.String("last_device")
	deviceSelect := widget.NewSelect(deviceNames, func(name string) {
		selected := audio.FindDevice(devices, name)
		if selected == nil {
			_ = statusText.Set("Device not found")
			return
		}
		prefs.SetString("last_device", name)
		_ = statusText.Set("Starting mic...")
		stop, err := startMonitor(actx, selected, state, dial, noteText, freqText, centsText, statusText)
		if err != nil {
			_ = statusText.Set(fmt.Sprintf("Error: %v", err))
			return
		}
		_ = statusText.Set(fmt.Sprintf("Listening on %s", selected.Name))
		capture.replace(stop)
	})
	deviceSelect.PlaceHolder = "Input device"
	if len(deviceNames) > 0 {
		if idx := indexOf(deviceNames, lastDevice); idx >= 0 {
			deviceSelect.SetSelected(lastDevice)
		} else {
			deviceSelect.SetSelected(deviceNames[0])
		}
	}

	leftCol := container.NewVBox(
		container.NewCenter(noteLabel),
		container.NewCenter(freqLabel),
		container.NewCenter(centsLabel),
		dial,
	)
	rightCol := container.NewVBox(
		modeSelect,
		refSelect,
		toneSelect,
		toneBtn,
	)

	content := container.NewVBox(
		deviceSelect,
		container.NewGridWithColumns(2, leftCol, rightCol),
		statusLabel,
	)
	w.SetContent(content)

	// Stop audio cleanly on window close or Ctrl+C.
	w.SetCloseIntercept(func() {
		capture.shutdown()
		toneOut.shutdown()
		a.Quit()
	})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		capture.shutdown()
		toneOut.shutdown()
		w.Close()
	}()

	w.ShowAndRun()
}

func startMonitor(actx *audio.Context, dev *audio.Device, state *uiState, dial *TuningDial, noteText, freqText, centsText, statusText binding.String) (func(), error) {
	stream, err := actx.Capture(dev.Info, analysisWindow)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	detector := dsp.NewDetector(stream.SampleRate)

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case window := <-stream.Windows:
				freq, rms := detector.Detect(window)
				if freq == 0 {
					dial.Clear()
					_ = noteText.Set("--")
					_ = freqText.Set("-- Hz")
					_ = centsText.Set("")
					_ = statusText.Set("Listening...")
					continue
				}
				mode, tuning := state.get()
				note, err := tuning.Map(freq, mode)
				if err != nil {
					_ = statusText.Set(fmt.Sprintf("Error: %v", err))
					continue
				}
				dial.SetCents(note.Cents)
				_ = noteText.Set(note.String())
				_ = freqText.Set(fmt.Sprintf("%.1f Hz", note.Frequency))
				_ = centsText.Set(fmt.Sprintf("%+.1f¢", note.Cents))
				_ = statusText.Set(fmt.Sprintf("Level %.2f", rms))
			}
		}
	}()

	return func() {
		close(stop)
		stream.Stop()
	}, nil
}

func buildToneNames() []string {
	names := make([]string, 0, toneHighSemitone-toneLowSemitone+1)
	for n := toneLowSemitone; n <= toneHighSemitone; n++ {
		names = append(names, pitch.NoteAt(n, pitch.Sharps).String())
	}
	return names
}

func indexOf(list []string, target string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}
