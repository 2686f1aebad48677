package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
	symWarn  = "⚠"
)

var (
	forceColor   bool
	disableColor bool

	stdout = termenv.NewOutput(os.Stdout)
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// ColorEnabled reports whether C emits colour: never for a plain theme or
// when disabled, always when forced, otherwise if NO_COLOR is unset and
// stdout can show colour.
func ColorEnabled() bool {
	if current.Plain || disableColor {
		return false
	}
	if forceColor {
		return true
	}
	if stdout.EnvNoColor() {
		return false
	}
	return stdout.ColorProfile() != termenv.Ascii
}

func C(color, s string) string {
	if color == "" || !ColorEnabled() {
		return s
	}
	return color + s + reset
}

// Dim renders s faint.
func Dim(s string) string { return C(dim, s) }

func OK(w io.Writer, msg string)   { fmt.Fprintln(w, C(current.Success, symCheck+" "+msg)) }
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, C(current.Error, symCross+" "+msg)) }
func Warn(w io.Writer, msg string) { fmt.Fprintln(w, C(current.Pending, symWarn+" "+msg)) }
