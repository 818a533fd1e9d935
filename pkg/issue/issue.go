// Package issue maps violations findings to normalized, deduplicable issues.
package issue

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/tsanders/violation-issues/pkg/identity"
	"github.com/tsanders/violation-issues/pkg/priority"
	"github.com/tsanders/violation-issues/pkg/violation"
	"gopkg.in/yaml.v3"
)

// Origin identifies issues produced from violations reports.
const Origin = "violations"

// Issue is the normalized form of a finding used for trend tracking.
type Issue struct {
	ID       identity.Identity `yaml:"id"`
	Message  string            `yaml:"message"`
	Priority priority.Priority `yaml:"priority"`
	File     string            `yaml:"file"`
	Line     int               `yaml:"line,omitempty"`
	Category string            `yaml:"category"`
	Source   string            `yaml:"source"`
	Origin   string            `yaml:"origin"`
}

// Failure records a finding that could not be turned into an issue.
type Failure struct {
	Finding violation.Finding
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Finding.Location(), f.Finding.Category, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result holds the issues produced in one pass and the findings that were skipped.
type Result struct {
	Issues   []Issue
	Failures []Failure
}

// Errors joins every failure into one error, or returns nil when there were none.
func (r Result) Errors() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Counts returns the number of issues per priority.
func (r Result) Counts() map[priority.Priority]int {
	counts := map[priority.Priority]int{
		priority.High:   0,
		priority.Normal: 0,
		priority.Low:    0,
	}
	for _, i := range r.Issues {
		counts[i.Priority]++
	}
	return counts
}

// SortByPriority orders issues from most to least urgent, then by file and line.
func SortByPriority(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		if ra, rb := issues[a].Priority.Rank(), issues[b].Priority.Rank(); ra != rb {
			return ra < rb
		}
		if issues[a].File != issues[b].File {
			return issues[a].File < issues[b].File
		}
		return issues[a].Line < issues[b].Line
	})
}

// document is the on-disk layout of an issue list.
type document struct {
	Issues []Issue `yaml:"issues"`
}

// WriteYAML writes issues as a YAML document.
func WriteYAML(w io.Writer, issues []Issue) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Issues: issues}); err != nil {
		return fmt.Errorf("failed to encode issues: %w", err)
	}
	return enc.Close()
}

// ReadYAML reads a document written by WriteYAML.
func ReadYAML(r io.Reader) ([]Issue, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse issues YAML: %w", err)
	}
	return doc.Issues, nil
}
