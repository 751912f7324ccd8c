// Package colors provides centralized color output with TTY-aware defaults.
//
// Colors are automatically disabled when stdout is not a terminal (piped or
// redirected to a file). Use Init() to override based on CLI flags.
package colors

import "github.com/fatih/color"

// Init allows overriding the auto-detected color setting.
//   - forceColor == nil: keep auto-detected value
//   - forceColor == true: force colors on (e.g., --color flag)
//   - forceColor == false: force colors off (e.g., CLICOLOR=0)
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color  { return color.New(color.Bold) }
func Faint() *color.Color { return color.New(color.Faint) }

func Red() *color.Color    { return color.New(color.FgRed) }
func Green() *color.Color  { return color.New(color.FgGreen) }
func Yellow() *color.Color { return color.New(color.FgYellow) }
func Blue() *color.Color   { return color.New(color.FgBlue) }

func HiCyan() *color.Color    { return color.New(color.FgHiCyan) }
func HiMagenta() *color.Color { return color.New(color.FgHiMagenta) }

func BoldGreen() *color.Color { return color.New(color.Bold, color.FgGreen) }
func BoldBlue() *color.Color  { return color.New(color.Bold, color.FgBlue) }
