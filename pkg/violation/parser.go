package violation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ReportFileName is the report looked up when LoadReport is given a directory.
const ReportFileName = "violations.yaml"

// LoadReport loads and parses a violations.yaml file
func LoadReport(reportPath string) (*Report, error) {
	// Check if path is a directory (contains violations.yaml) or direct file path
	path := reportPath
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, ReportFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report YAML: %w", err)
	}

	// Relative source files are anchored at the report's directory
	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report directory: %w", err)
	}
	for key, fm := range report.Files {
		src := FileURIPath(fm.SourceFile)
		if src == "" {
			src = FileURIPath(key)
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(baseDir, src)
		}
		fm.SourceFile = filepath.Clean(src)
		report.Files[key] = fm
	}

	return &report, nil
}

// Findings flattens the report into findings.
// Order is deterministic: file key, then type, then line, then message.
func (r *Report) Findings() []Finding {
	if r == nil {
		return nil
	}

	fileKeys := make([]string, 0, len(r.Files))
	for key := range r.Files {
		fileKeys = append(fileKeys, key)
	}
	sort.Strings(fileKeys)

	var findings []Finding
	for _, key := range fileKeys {
		fm := r.Files[key]

		typeKeys := make([]string, 0, len(fm.Types))
		for t := range fm.Types {
			typeKeys = append(typeKeys, t)
		}
		sort.Strings(typeKeys)

		for _, t := range typeKeys {
			violations := append([]Violation(nil), fm.Types[t]...)
			sort.SliceStable(violations, func(i, j int) bool {
				if violations[i].Line != violations[j].Line {
					return violations[i].Line < violations[j].Line
				}
				return violations[i].Message < violations[j].Message
			})

			for _, v := range violations {
				category := v.Type
				if category == "" {
					category = t
				}
				findings = append(findings, Finding{
					Path:     fm.SourceFile,
					Line:     v.Line,
					Category: category,
					Source:   v.Source,
					Severity: v.Severity,
					Message:  v.Message,
				})
			}
		}
	}

	return findings
}

// Count returns the number of violations in the report.
func (r *Report) Count() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, fm := range r.Files {
		for _, vs := range fm.Types {
			n += len(vs)
		}
	}
	return n
}
