// Package build models builds and the actions recorded against them.
// Reports are located by capability: any action that can produce a
// violations report satisfies ReportSource.
package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tsanders/violation-issues/pkg/violation"
)

// Action is something recorded against a build.
type Action interface {
	Kind() string
}

// ReportSource is implemented by actions that can produce a violations report.
type ReportSource interface {
	Action
	FindReport() (*violation.Report, error)
}

// Build is a numbered build and its actions.
type Build struct {
	Number  int
	Actions []Action
}

// ViolationsAction points at the violations report recorded for a build.
type ViolationsAction struct {
	ReportPath string
}

// Kind implements Action.
func (a *ViolationsAction) Kind() string { return "violations" }

// FindReport loads the report from ReportPath.
func (a *ViolationsAction) FindReport() (*violation.Report, error) {
	return violation.LoadReport(a.ReportPath)
}

// Lookup is the outcome of asking a build for its report.
// Found is false when the build has no report source; a found report may
// still contain zero findings.
type Lookup struct {
	Report *violation.Report
	Found  bool
}

// FindReportSource returns the first action that can produce a report.
func FindReportSource(b *Build) (ReportSource, bool) {
	if b == nil {
		return nil, false
	}
	for _, a := range b.Actions {
		if src, ok := a.(ReportSource); ok {
			return src, true
		}
	}
	return nil, false
}

// LoadReport resolves the build's report source and loads its report.
func LoadReport(b *Build) (Lookup, error) {
	src, ok := FindReportSource(b)
	if !ok {
		return Lookup{}, nil
	}
	report, err := src.FindReport()
	if err != nil {
		return Lookup{}, fmt.Errorf("failed to load report for build #%d: %w", b.Number, err)
	}
	return Lookup{Report: report, Found: true}, nil
}

// ErrBuildNotFound is returned when a build directory does not exist.
var ErrBuildNotFound = errors.New("build not found")

// Store reads builds from a directory laid out as <root>/<number>/violations.yaml.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory holding build number.
func (s *Store) Dir(number int) string {
	return filepath.Join(s.root, strconv.Itoa(number))
}

// Get returns build number. A build without a report file has no actions.
func (s *Store) Get(number int) (*Build, error) {
	dir := s.Dir(number)
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: #%d", ErrBuildNotFound, number)
		}
		return nil, fmt.Errorf("failed to stat build directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: #%d is not a directory", ErrBuildNotFound, number)
	}

	b := &Build{Number: number}
	reportPath := filepath.Join(dir, violation.ReportFileName)
	if _, err := os.Stat(reportPath); err == nil {
		b.Actions = append(b.Actions, &ViolationsAction{ReportPath: reportPath})
	}
	return b, nil
}

// Numbers lists the numbered build directories in ascending order.
func (s *Store) Numbers() ([]int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read builds directory: %w", err)
	}

	var numbers []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil || n < 0 {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// Latest returns the highest-numbered build.
func (s *Store) Latest() (*Build, error) {
	numbers, err := s.Numbers()
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: no builds in %s", ErrBuildNotFound, s.root)
	}
	return s.Get(numbers[len(numbers)-1])
}

// Previous returns the highest-numbered build below number, and false when there is none.
func (s *Store) Previous(number int) (*Build, bool, error) {
	numbers, err := s.Numbers()
	if err != nil {
		return nil, false, err
	}
	for i := len(numbers) - 1; i >= 0; i-- {
		if numbers[i] < number {
			b, err := s.Get(numbers[i])
			if err != nil {
				return nil, false, err
			}
			return b, true, nil
		}
	}
	return nil, false, nil
}
