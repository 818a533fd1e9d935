package trend

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsanders/violation-issues/pkg/issue"
	"gopkg.in/yaml.v3"
)

const SnapshotVersion = "1.0"

// Snapshot is the set of issues recorded for one build.
type Snapshot struct {
	Version   string        `yaml:"version"`
	Build     int           `yaml:"build"`
	CreatedAt time.Time     `yaml:"created_at"`
	Issues    []issue.Issue `yaml:"issues"`
}

// NewSnapshot creates a snapshot of a build's issues
func NewSnapshot(build int, issues []issue.Issue) *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		Build:     build,
		CreatedAt: time.Now().UTC(),
		Issues:    issues,
	}
}

// SnapshotPath returns the conventional snapshot location for a build.
func SnapshotPath(dir string, build int) string {
	return filepath.Join(dir, fmt.Sprintf("issues-%d.yaml", build))
}

// LoadSnapshot reads a snapshot from a YAML file.
// A missing file is not an error: it returns a nil snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	if err := ValidateSnapshot(&s); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	return &s, nil
}

// SaveSnapshot writes a snapshot to a YAML file, creating its directory
func SaveSnapshot(s *Snapshot, path string) error {
	if err := ValidateSnapshot(s); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

// ValidateSnapshot checks a snapshot before it is written or after it is read
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}

	if s.Version == "" {
		return fmt.Errorf("snapshot version is required")
	}

	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %s (expected %s)", s.Version, SnapshotVersion)
	}

	if s.Build < 0 {
		return fmt.Errorf("build number cannot be negative: %d", s.Build)
	}

	for i, iss := range s.Issues {
		if iss.ID.IsZero() {
			return fmt.Errorf("issue %d has no identity", i)
		}
	}

	return nil
}
