package main

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	dialFullScaleCents = 50.0
	dialLockCents      = 5.0 // needle snaps to center inside this band
	needleWidth        = 4.0
)

// TuningDial shows the cents deviation of the last mapped note as a needle
// on a horizontal scale, full deflection at half a semitone either way.
type TuningDial struct {
	widget.BaseWidget
	cents  float64
	active bool
}

func NewTuningDial() *TuningDial {
	d := &TuningDial{}
	d.ExtendBaseWidget(d)
	return d
}

func (d *TuningDial) SetCents(cents float64) {
	if cents > dialFullScaleCents {
		cents = dialFullScaleCents
	}
	if cents < -dialFullScaleCents {
		cents = -dialFullScaleCents
	}
	d.cents = cents
	d.active = true
	d.Refresh()
}

func (d *TuningDial) Clear() {
	d.active = false
	d.Refresh()
}

func (d *TuningDial) Color() color.Color {
	if !d.active {
		return color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	}
	return centsColor(d.cents)
}

func centsColor(cents float64) color.NRGBA {
	if math.Abs(cents) <= dialLockCents {
		return color.NRGBA{R: 60, G: 200, B: 90, A: 230}
	}
	t := math.Abs(cents) / dialFullScaleCents
	if t > 1 {
		t = 1
	}
	return color.NRGBA{R: uint8(80 + 140*t), G: uint8(200 - 140*t), B: 60, A: 230}
}

func (d *TuningDial) CreateRenderer() fyne.WidgetRenderer {
	scale := canvas.NewRectangle(color.NRGBA{R: 160, G: 160, B: 160, A: 180})
	center := canvas.NewRectangle(color.NRGBA{R: 200, G: 200, B: 200, A: 200})
	needle := canvas.NewRectangle(color.NRGBA{R: 60, G: 200, B: 90, A: 230})
	return &tuningDialRenderer{
		dial:   d,
		scale:  scale,
		center: center,
		needle: needle,
	}
}

type tuningDialRenderer struct {
	dial   *TuningDial
	scale  *canvas.Rectangle
	center *canvas.Rectangle
	needle *canvas.Rectangle
}

func (r *tuningDialRenderer) Layout(size fyne.Size) {
	centerX := size.Width / 2
	midY := size.Height / 2

	r.scale.Move(fyne.NewPos(0, midY-1))
	r.scale.Resize(fyne.NewSize(size.Width, 2))

	r.center.Move(fyne.NewPos(centerX-1, 0))
	r.center.Resize(fyne.NewSize(2, size.Height))

	if !r.dial.active {
		r.needle.Hide()
		return
	}
	r.needle.Show()
	cents := r.dial.cents
	if math.Abs(cents) <= dialLockCents {
		cents = 0
	}
	offset := float32(cents/dialFullScaleCents) * (centerX - needleWidth)
	r.needle.FillColor = centsColor(r.dial.cents)
	r.needle.Move(fyne.NewPos(centerX+offset-needleWidth/2, 2))
	r.needle.Resize(fyne.NewSize(needleWidth, size.Height-4))
	r.needle.Refresh()
}

func (r *tuningDialRenderer) MinSize() fyne.Size {
	return fyne.NewSize(220, 44)
}

func (r *tuningDialRenderer) Refresh() {
	r.Layout(r.dial.Size())
	canvas.Refresh(r.dial)
}

func (r *tuningDialRenderer) Destroy() {}

func (r *tuningDialRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.scale, r.needle, r.center}
}
