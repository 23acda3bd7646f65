package audio

import (
	"fmt"
	"log"
	"math"
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
)

const (
	toneAmplitude = 0.25
	toneRamp      = 0.002 // gain change per frame, ~10 ms at 48 kHz
)

// Context owns the miniaudio context shared by capture and playback devices.
type Context struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (*Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("init context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

func (c *Context) Close() {
	_ = c.ctx.Uninit()
	c.ctx.Free()
}

// Device is a selectable capture device.
type Device struct {
	Name string
	Info *malgo.DeviceInfo
}

func (c *Context) Devices() ([]Device, error) {
	list, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, err
	}
	devs := make([]Device, 0, len(list))
	for i := range list {
		info := list[i]
		name := info.Name()
		if name == "" {
			name = "Unknown input"
		}
		devs = append(devs, Device{Name: name, Info: &info})
	}
	return devs, nil
}

func FindDevice(devs []Device, name string) *Device {
	for i := range devs {
		if devs[i].Name == name {
			return &devs[i]
		}
	}
	return nil
}

// Stream is a running capture stream delivering fixed-size analysis windows.
// Windows are dropped when the consumer falls behind.
type Stream struct {
	Windows    <-chan []float32
	SampleRate float64
	stop       func()
}

func (s *Stream) Stop() { s.stop() }

func (c *Context) Capture(info *malgo.DeviceInfo, windowSize int) (*Stream, error) {
	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = chooseSampleRate(info)
	config.Capture.DeviceID = info.ID.Pointer()
	config.Alsa.NoMMap = 1

	w := newWindower(windowSize)
	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			if len(input) == 0 {
				return
			}
			w.push(bytesToFloat32(input))
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("start capture device: %w", err)
	}

	return &Stream{
		Windows:    w.out,
		SampleRate: float64(config.SampleRate),
		stop: func() {
			_ = device.Stop()
			device.Uninit()
		},
	}, nil
}

// Tone is a reference tone playing on the default output device.
type Tone struct {
	mu     sync.Mutex
	target float64
	device *malgo.Device
}

func (c *Context) PlayTone(freq float64) (*Tone, error) {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 1
	config.SampleRate = 48000
	config.Alsa.NoMMap = 1

	t := &Tone{target: 1}
	step := freq / float64(config.SampleRate)
	var phase, gain float64
	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			t.mu.Lock()
			target := t.target
			t.mu.Unlock()
			out := bytesToFloat32(output)
			for i := range out {
				if gain < target {
					gain = math.Min(gain+toneRamp, target)
				} else if gain > target {
					gain = math.Max(gain-toneRamp, target)
				}
				out[i] = float32(toneAmplitude * gain * math.Sin(2*math.Pi*phase))
				phase += step
				if phase >= 1 {
					phase--
				}
			}
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	t.device = device
	return t, nil
}

// Stop fades the tone out before releasing the device.
func (t *Tone) Stop() {
	t.mu.Lock()
	t.target = 0
	t.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	_ = t.device.Stop()
	t.device.Uninit()
}

type windower struct {
	size    int
	pending []float32
	out     chan []float32
}

func newWindower(size int) *windower {
	return &windower{
		size:    size,
		pending: make([]float32, 0, size),
		out:     make(chan []float32, 8),
	}
}

func (w *windower) push(samples []float32) {
	w.pending = append(w.pending, samples...)
	for len(w.pending) >= w.size {
		window := make([]float32, w.size)
		copy(window, w.pending[:w.size])
		w.pending = w.pending[:copy(w.pending, w.pending[w.size:])]
		select {
		case w.out <- window:
		default:
		}
	}
}

func chooseSampleRate(info *malgo.DeviceInfo) uint32 {
	for _, f := range info.Formats {
		if f.SampleRate > 0 {
			return f.SampleRate
		}
	}
	return 48000
}

func bytesToFloat32(b []byte) []float32 {
	hdr := *(*reflect.SliceHeader)(unsafe.Pointer(&b))
	hdr.Len /= 4
	hdr.Cap /= 4
	return *(*[]float32)(unsafe.Pointer(&hdr))
}
