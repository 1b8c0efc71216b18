// Package wheel describes the fixed layout of a European single-zero roulette
// wheel: which printed number sits in which segment, and the angular helpers
// used to translate between ball positions and segments.
//
// Angles are radians. A wheel-relative angle of zero is the leading edge of
// segment 0; segment i covers [i*w, (i+1)*w) where w is SegmentAngleWidth.
package wheel

import "math"

// SegmentCount is the number of pockets on a European wheel.
const SegmentCount = 37

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// order is the clockwise sequence of printed numbers starting at the zero pocket.
var order = [SegmentCount]int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

// indexByNumber is the inverse of order, built once at init.
var indexByNumber [SegmentCount]int

func init() {
	for i, n := range order {
		indexByNumber[n] = i
	}
}

// reds holds the red numbers; every other non-zero number is black.
var reds = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Segment is one pocket of the wheel.
type Segment struct {
	Index  int // Position on the wheel, 0..36
	Number int // Printed value, 0..36
}

// Color is the printed color of a pocket.
type Color int

const (
	Green Color = iota
	Red
	Black
)

// String returns the lowercase color name.
func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// ValidIndex reports whether index addresses a segment.
func ValidIndex(index int) bool {
	return index >= 0 && index < SegmentCount
}

// NumberAt returns the printed number for a segment index, or -1 when the
// index is out of range.
func NumberAt(index int) int {
	if !ValidIndex(index) {
		return -1
	}
	return order[index]
}

// IndexOf returns the segment index holding the printed number.
func IndexOf(number int) (int, bool) {
	if number < 0 || number >= SegmentCount {
		return 0, false
	}
	return indexByNumber[number], true
}

// Segments returns every segment in wheel order.
func Segments() []Segment {
	out := make([]Segment, SegmentCount)
	for i, n := range order {
		out[i] = Segment{Index: i, Number: n}
	}
	return out
}

// ColorOf returns the printed color of a number.
func ColorOf(number int) Color {
	switch {
	case number == 0:
		return Green
	case reds[number]:
		return Red
	default:
		return Black
	}
}

// SegmentAngleWidth is the constant angular width of one segment.
func SegmentAngleWidth() float64 {
	return TwoPi / SegmentCount
}

// NormalizeAngle maps any finite angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// Adding 2π to a tiny negative remainder can round up to exactly 2π.
	if a >= TwoPi {
		a = 0
	}
	return a
}

// AngularDifference returns the signed smallest difference a-b in (-π, π].
func AngularDifference(a, b float64) float64 {
	d := NormalizeAngle(a - b)
	if d > math.Pi {
		d -= TwoPi
	}
	return d
}

// SegmentAt returns the segment containing a wheel-relative angle.
func SegmentAt(relative float64) int {
	idx := int(NormalizeAngle(relative) / SegmentAngleWidth())
	// Guards the float edge where the quotient rounds to exactly SegmentCount.
	if idx >= SegmentCount {
		idx = SegmentCount - 1
	}
	return idx
}

// SegmentCenter returns the wheel-relative angle of the middle of a segment.
func SegmentCenter(index int) float64 {
	return (float64(index) + 0.5) * SegmentAngleWidth()
}

// EdgeDistance returns how far a wheel-relative angle is from the nearest
// segment boundary. The maximum, half a segment width, is at a segment center.
func EdgeDistance(relative float64) float64 {
	idx := SegmentAt(relative)
	w := SegmentAngleWidth()
	lead := math.Abs(AngularDifference(relative, float64(idx)*w))
	trail := math.Abs(AngularDifference(relative, float64(idx+1)*w))
	return math.Min(lead, trail)
}
