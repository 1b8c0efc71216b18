package core

// Color is the foreground color of a screen cell.
// The platform layer maps each value to an ANSI 256-color code.
type Color uint8

// Colors used by the table renderer.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightWhite
	ColorGray
	ColorDarkGray
)
