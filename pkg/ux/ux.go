// Package ux provides console output helpers for violation-issues: colored
// status lines, priority and trend formatting, tables and progress bars.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/tsanders/violation-issues/pkg/priority"
)

// Color definitions for consistent output
var (
	Success = color.New(color.FgGreen).SprintFunc()
	Error   = color.New(color.FgRed).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Info    = color.New(color.FgCyan).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
)

// Out is where console output is written.
var Out io.Writer = os.Stdout

// ProgressOut is where progress bars are drawn.
var ProgressOut io.Writer = os.Stderr

// PrintSuccess prints a success message with green checkmark
func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintf(Out, "%s %s\n", Success("✓"), fmt.Sprintf(format, args...))
}

// PrintError prints an error message with red X
func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(Out, "%s %s\n", Error("✗"), fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message with yellow triangle
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintf(Out, "%s %s\n", Warning("⚠"), fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message with cyan dot
func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintf(Out, "%s %s\n", Info("•"), fmt.Sprintf(format, args...))
}

// PrintHeader prints a bold header
func PrintHeader(text string) {
	fmt.Fprintln(Out, Bold(text))
	fmt.Fprintln(Out, Bold(strings.Repeat("=", len(text))))
	fmt.Fprintln(Out)
}

// PrintSection prints a section header
func PrintSection(text string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, Bold(text))
}

// NewProgressBar creates a new progress bar with consistent styling.
// Output goes to stderr so it never mixes with YAML written to stdout.
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(ProgressOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

// FormatPriority colors a priority tier
func FormatPriority(p priority.Priority) string {
	switch p {
	case priority.High:
		return Error(p.String())
	case priority.Normal:
		return Warning(p.String())
	case priority.Low:
		return Info(p.String())
	}
	return Dim(p.String())
}

// FormatDelta formats a trend count: new issues red, fixed issues green
func FormatDelta(label string, n int) string {
	text := fmt.Sprintf("%s: %d", label, n)
	switch {
	case n == 0:
		return Dim(text)
	case label == "new":
		return Error(text)
	case label == "fixed":
		return Success(text)
	}
	return text
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return Dim(d.Round(time.Millisecond).String())
	}
	return Dim(d.Round(time.Second).String())
}

// PrintSummaryTable prints a summary table
func PrintSummaryTable(rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths on the uncolored text
	colWidths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, col := range row {
			if i < len(colWidths) && visibleLen(col) > colWidths[i] {
				colWidths[i] = visibleLen(col)
			}
		}
	}

	for _, row := range rows {
		for i, col := range row {
			pad := 0
			if i < len(colWidths) {
				pad = colWidths[i] - visibleLen(col)
			}
			fmt.Fprintf(Out, "%s%s  ", col, strings.Repeat(" ", max(pad, 0)))
		}
		fmt.Fprintln(Out)
	}
}

// IsTerminal checks if w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// visibleLen is the length of s without ANSI color sequences
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			n++
		}
	}
	return n
}
