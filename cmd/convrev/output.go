package main

import (
	"fmt"
	"os"
)

// ANSI SGR codes for the CLI helpers. Color is applied only when --no-color
// is unset; the TUI does its own styling through lipgloss.
const (
	sgrReset  = "\033[0m"
	sgrRed    = "\033[31m"
	sgrGreen  = "\033[32m"
	sgrYellow = "\033[33m"
	sgrCyan   = "\033[36m"
	sgrBold   = "\033[1m"
)

func paint(code, text string) string {
	if noColor {
		return text
	}
	return code + text + sgrReset
}

// emit writes one marked line to stderr, keeping stdout clean for data output
// (item JSON, exports) so commands stay pipeable.
func emit(code, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(code, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) {
	emit(sgrGreen, "✓", format, args...)
}

func printError(format string, args ...any) {
	emit(sgrRed, "✗", format, args...)
}

func printWarning(format string, args ...any) {
	emit(sgrYellow, "⚠", format, args...)
}

func printStep(format string, args ...any) {
	emit(sgrCyan, "→", format, args...)
}

// printStatus renders one "label: value" line of a status report.
func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(sgrBold, label+":"), val)
}
