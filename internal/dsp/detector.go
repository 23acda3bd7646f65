package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
)

const (
	defaultMinHz        = 70.0
	defaultMaxHz        = 900.0
	defaultSilenceFloor = 0.005
	defaultMinClarity   = 0.3
)

// Detector estimates the fundamental frequency of a mono sample window by
// autocorrelation. Detect returns a zero frequency when the window holds no
// usable pitch: silence below SilenceFloor, aperiodic noise below MinClarity,
// or a period outside MinHz..MaxHz.
type Detector struct {
	SampleRate   float64
	MinHz        float64
	MaxHz        float64
	SilenceFloor float64
	MinClarity   float64
}

func NewDetector(sampleRate float64) *Detector {
	return &Detector{
		SampleRate:   sampleRate,
		MinHz:        defaultMinHz,
		MaxHz:        defaultMaxHz,
		SilenceFloor: defaultSilenceFloor,
		MinClarity:   defaultMinClarity,
	}
}

func (d *Detector) Detect(samples []float32) (float64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))

	n := len(samples)
	size := dsputils.NextPowerOf2(2 * n)
	signal := make([]float64, size)
	var energy float64
	for i, s := range samples {
		v := float64(s) - mean
		signal[i] = v
		energy += v * v
	}
	rms := math.Sqrt(energy / float64(n))
	if rms < d.SilenceFloor {
		return 0, rms
	}

	// Autocorrelation by FFT: transform, multiply by the conjugate,
	// transform back. Padding to twice the window keeps the circular
	// correlation linear.
	spectrum := fft.FFTReal(signal)
	for i, c := range spectrum {
		spectrum[i] = c * cmplx.Conj(c)
	}
	corr := fft.IFFT(spectrum)

	minLag := int(d.SampleRate/d.MaxHz + 0.5)
	maxLag := int(d.SampleRate/d.MinHz + 0.5)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if minLag > maxLag {
		return 0, rms
	}

	zeroLag := real(corr[0])
	if zeroLag <= 0 {
		return 0, rms
	}
	var bestLag int
	var bestVal float64
	for lag := minLag; lag <= maxLag; lag++ {
		if v := real(corr[lag]); v > bestVal {
			bestVal = v
			bestLag = lag
		}
	}
	if bestLag == 0 || bestVal/zeroLag < d.MinClarity {
		return 0, rms
	}

	// Parabolic interpolation sharpens the peak to a fraction of a lag,
	// shifted at most half a sample either way.
	lag := float64(bestLag)
	left := real(corr[bestLag-1])
	right := real(corr[bestLag+1])
	if denom := 2*bestVal - left - right; denom != 0 {
		shift := (right - left) / (2 * denom)
		if shift > 0.5 {
			shift = 0.5
		} else if shift < -0.5 {
			shift = -0.5
		}
		lag += shift
	}

	freq := d.SampleRate / lag
	if freq < d.MinHz || freq > d.MaxHz {
		return 0, rms
	}
	return freq, rms
}
