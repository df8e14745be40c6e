package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// printSuccess prints a success message with a checkmark.
func printSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// printWarning prints a warning message with a warning symbol.
func printWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// printError prints an error message to stderr.
func printError(err error) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %v\n", err)
}

// printHeader prints a section header.
func printHeader(title string) {
	_, _ = headerColor.Printf("▸ %s\n", title)
}

// printDetail prints an indented detail line.
func printDetail(format string, args ...any) {
	_, _ = dimColor.Printf("  "+format+"\n", args...)
}

// printLine prints a plain line.
func printLine(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
