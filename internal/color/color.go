// Package color renders ANSI-colored CLI output, honoring NO_COLOR.
package color

import (
	"fmt"
	"os"
)

// ANSI color codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// Color is a colorizer that can be disabled for plain output.
type Color struct {
	enabled bool
}

// New creates a colorizer. Color is suppressed when disabled explicitly,
// when NO_COLOR is set (https://no-color.org/), or under a dumb terminal.
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

func shouldEnableColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}
	return true
}

func (c *Color) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + reset
}

// Green colors text for clean or additive findings.
func (c *Color) Green(format string, args ...any) string {
	return c.wrap(green, fmt.Sprintf(format, args...))
}

// Yellow colors text for findings that need review.
func (c *Color) Yellow(format string, args ...any) string {
	return c.wrap(yellow, fmt.Sprintf(format, args...))
}

// Red colors text for errors and missing objects.
func (c *Color) Red(format string, args ...any) string {
	return c.wrap(red, fmt.Sprintf(format, args...))
}

// Cyan colors identifiers such as model and table names.
func (c *Color) Cyan(format string, args ...any) string {
	return c.wrap(cyan, fmt.Sprintf(format, args...))
}

// Bold emphasizes headings.
func (c *Color) Bold(format string, args ...any) string {
	return c.wrap(bold, fmt.Sprintf(format, args...))
}
