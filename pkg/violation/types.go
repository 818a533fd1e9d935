// Package violation provides types and utilities for working with violations reports.
// It handles loading the per-file violation collections recorded for a build and
// flattening them into findings that can be turned into issues.
package violation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFinding is returned when a finding is missing a required field.
var ErrMalformedFinding = errors.New("malformed finding")

// Report represents the root structure of a violations.yaml file.
// Violations are grouped by file model, then by violation type.
type Report struct {
	Files map[string]FileModel `yaml:"files"`
}

// FileModel holds every violation detected in a single source file.
type FileModel struct {
	SourceFile string                 `yaml:"sourceFile"` // Absolute path, or relative to the report
	Types      map[string][]Violation `yaml:"types"`      // Violations keyed by type (checkstyle, pmd, ...)
}

// Violation is a single static-analysis result as recorded by the analysis tool.
type Violation struct {
	Type     string `yaml:"type"`     // Category of the rule that fired (e.g. unused-import)
	Source   string `yaml:"source"`   // Originating tool or rule source
	Message  string `yaml:"message"`  // Human-readable description
	Line     int    `yaml:"line"`     // 1-based line, 0 when the violation has no specific line
	Severity int    `yaml:"severity"` // Severity level, lower is more severe
}

// Finding is the flattened form of a violation, bound to its source file.
type Finding struct {
	Path     string `yaml:"path"`
	Line     int    `yaml:"line"`
	Category string `yaml:"category"`
	Source   string `yaml:"source"`
	Severity int    `yaml:"severity"`
	Message  string `yaml:"message"`
}

// Validate checks that the finding carries every field needed to build an issue.
func (f Finding) Validate() error {
	switch {
	case f.Path == "":
		return fmt.Errorf("%w: missing path", ErrMalformedFinding)
	case f.Category == "":
		return fmt.Errorf("%w: missing category", ErrMalformedFinding)
	case f.Source == "":
		return fmt.Errorf("%w: missing source", ErrMalformedFinding)
	case f.Line < 0:
		return fmt.Errorf("%w: negative line %d", ErrMalformedFinding, f.Line)
	}
	return nil
}

// Location returns "path:line", or just the path when there is no line.
func (f Finding) Location() string {
	if f.Line == 0 {
		return f.Path
	}
	return fmt.Sprintf("%s:%d", f.Path, f.Line)
}

// FileURIPath extracts the file path from a file:// URI
func FileURIPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
