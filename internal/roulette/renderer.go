package roulette

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// cellAspect is the width/height ratio correction for terminal cells.
const cellAspect = 2.0

// Ring radii as fractions of the drawn wheel radius.
const (
	rimRadius   = 1.0
	labelRadius = 0.75
	hubRadius   = 0.3
)

// hudWidth is the width reserved to the right of the wheel for the HUD.
const hudWidth = 30

// HUD is the text shown next to the wheel.
type HUD struct {
	Balance   string
	Currency  string
	BetNumber int
	Results   []int // Most recent first
	Source    Source
	Recording bool
	Status    string
}

// Renderer draws a table into a screen buffer.
type Renderer struct{}

// Layout is the on-screen geometry of the wheel.
type Layout struct {
	CX, CY float64
	Radius float64 // In rows
}

// LayoutFor fits the wheel into the screen, leaving room for the HUD.
func LayoutFor(s *core.Screen) Layout {
	wheelW := s.Width() - hudWidth
	if wheelW < s.Width()/2 {
		wheelW = s.Width()
	}
	r := math.Min(float64(s.Height()-2)/2, float64(wheelW-2)/(2*cellAspect))
	return Layout{
		CX:     float64(wheelW) / 2,
		CY:     float64(s.Height()-1) / 2,
		Radius: math.Max(r, 0),
	}
}

// Render draws the wheel, the ball and the HUD. The screen is cleared first.
func (r Renderer) Render(dst *core.Screen, w physics.WheelState, b physics.BallState, p physics.Params, hud HUD) {
	dst.Clear()
	l := LayoutFor(dst)

	dst.DrawCircle(l.CX, l.CY, l.Radius*rimRadius, cellAspect, '·', core.ColorGray)
	dst.DrawCircle(l.CX, l.CY, l.Radius*p.InnerRadius, cellAspect, '·', core.ColorDarkGray)
	dst.DrawCircle(l.CX, l.CY, l.Radius*hubRadius, cellAspect, '*', core.ColorYellow)

	// Labels need about three columns each to stay readable.
	if 2*math.Pi*l.Radius*labelRadius*cellAspect >= 3*wheel.SegmentCount {
		for i := range wheel.SegmentCount {
			r.drawSegment(dst, l, w, i)
		}
	}

	r.drawBall(dst, l, b)
	r.drawHUD(dst, l, b, hud)
}

// drawSegment writes segment i's number at its current angle.
func (r Renderer) drawSegment(dst *core.Screen, l Layout, w physics.WheelState, i int) {
	n := wheel.NumberAt(i)
	label := strconv.Itoa(n)
	angle := w.Rotation + wheel.SegmentCenter(i)
	x, y := core.PolarToCell(l.CX, l.CY, l.Radius*labelRadius, angle, cellAspect)
	dst.DrawTextColored(x-len(label)/2, y, label, numberColor(n))
}

func (r Renderer) drawBall(dst *core.Screen, l Layout, b physics.BallState) {
	if !b.Active() && !b.Stuck {
		return
	}
	x, y := core.PolarToCell(l.CX, l.CY, l.Radius*b.Radius, b.Angle, cellAspect)
	dst.SetColored(x, y, '●', core.ColorBrightWhite)
}

func (r Renderer) drawHUD(dst *core.Screen, l Layout, b physics.BallState, hud HUD) {
	x := int(l.CX*2) + 2
	if x >= dst.Width() {
		// No room beside the wheel; use the top rows.
		x = 0
	}
	y := 1

	line := func(text string, c core.Color) {
		dst.DrawTextColored(x, y, text, c)
		y++
	}

	line("ROULETTE", core.ColorBrightYellow)
	y++
	if hud.Balance != "" {
		line(fmt.Sprintf("balance  %s %s", hud.Balance, hud.Currency), core.ColorBrightGreen)
	}
	line(fmt.Sprintf("bet      %d", hud.BetNumber), numberColor(hud.BetNumber))

	phase := b.Phase.String()
	if b.Stuck {
		phase = "landed"
	}
	line(fmt.Sprintf("phase    %s", phase), core.ColorWhite)
	line(fmt.Sprintf("bounces  %d", b.BounceCount), core.ColorWhite)
	if hud.Source != "" {
		line(fmt.Sprintf("path     %s", hud.Source), core.ColorGray)
	}
	rec := "off"
	if hud.Recording {
		rec = "on"
	}
	line(fmt.Sprintf("record   %s", rec), core.ColorGray)
	y++

	line("last", core.ColorWhite)
	cx := x
	for i, n := range hud.Results {
		if i >= 8 {
			break
		}
		label := strconv.Itoa(n)
		dst.DrawTextColored(cx, y, label, numberColor(n))
		cx += len(label) + 1
	}
	y += 2

	if hud.Status != "" {
		line(hud.Status, core.ColorCyan)
	}

	dst.DrawTextColored(x, dst.Height()-1, "space spin  r record  ^s shot  q quit", core.ColorDarkGray)
}

// numberColor maps a pocket color to a screen color.
func numberColor(n int) core.Color {
	switch wheel.ColorOf(n) {
	case wheel.Red:
		return core.ColorBrightRed
	case wheel.Green:
		return core.ColorBrightGreen
	default:
		return core.ColorBrightWhite
	}
}
