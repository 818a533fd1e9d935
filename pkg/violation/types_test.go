package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileURIPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file URI with absolute path",
			uri:  "file:///path/to/File.java",
			want: "/path/to/File.java",
		},
		{
			name: "file URI with relative path",
			uri:  "file://relative/path.go",
			want: "relative/path.go",
		},
		{
			name: "plain path without file:// prefix",
			uri:  "/path/to/file.py",
			want: "/path/to/file.py",
		},
		{
			name: "empty URI",
			uri:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileURIPath(tt.uri))
		})
	}
}

func TestFinding_Validate(t *testing.T) {
	valid := Finding{
		Path:     "/src/Main.java",
		Line:     5,
		Category: "unused-import",
		Source:   "checker-A",
		Severity: 1,
		Message:  "Unused import 'foo'",
	}

	tests := []struct {
		name    string
		mutate  func(f *Finding)
		wantErr string
	}{
		{name: "valid finding", mutate: func(f *Finding) {}},
		{name: "no line is allowed", mutate: func(f *Finding) { f.Line = 0 }},
		{name: "empty message is allowed", mutate: func(f *Finding) { f.Message = "" }},
		{name: "missing path", mutate: func(f *Finding) { f.Path = "" }, wantErr: "missing path"},
		{name: "missing category", mutate: func(f *Finding) { f.Category = "" }, wantErr: "missing category"},
		{name: "missing source", mutate: func(f *Finding) { f.Source = "" }, wantErr: "missing source"},
		{name: "negative line", mutate: func(f *Finding) { f.Line = -2 }, wantErr: "negative line -2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrMalformedFinding)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFinding_Location(t *testing.T) {
	assert.Equal(t, "/a/B.java:7", Finding{Path: "/a/B.java", Line: 7}.Location())
	assert.Equal(t, "/a/B.java", Finding{Path: "/a/B.java"}.Location())
}
