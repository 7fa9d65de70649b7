package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestValidateInputs verifies the pre-flight checks on the video arguments:
// extension allowlist, optional directory confinement, readability.
func TestValidateInputs(t *testing.T) {
	clipDir := t.TempDir()
	clip := filepath.Join(clipDir, "pitch.mp4")
	if err := os.WriteFile(clip, []byte("stub"), 0o644); err != nil {
		t.Fatalf("failed to write test clip: %v", err)
	}

	otherDir := t.TempDir()
	stray := filepath.Join(otherDir, "stray.mp4")
	if err := os.WriteFile(stray, []byte("stub"), 0o644); err != nil {
		t.Fatalf("failed to write test clip: %v", err)
	}

	tests := []struct {
		name    string
		paths   []string
		dir     string
		wantErr bool
	}{
		{
			name:  "clip inside the restricted directory",
			paths: []string{clip},
			dir:   clipDir,
		},
		{
			name:  "no restriction accepts any location",
			paths: []string{clip, stray},
		},
		{
			name:    "clip outside the restricted directory",
			paths:   []string{stray},
			dir:     clipDir,
			wantErr: true,
		},
		{
			name:    "traversal out of the restricted directory",
			paths:   []string{filepath.Join(clipDir, "..", "escape.mp4")},
			dir:     clipDir,
			wantErr: true,
		},
		{
			name:    "unsupported extension",
			paths:   []string{filepath.Join(clipDir, "notes.txt")},
			dir:     clipDir,
			wantErr: true,
		},
		{
			name:    "missing file",
			paths:   []string{filepath.Join(clipDir, "gone.mp4")},
			dir:     clipDir,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInputs(tt.paths, tt.dir)
			if tt.wantErr && err == nil {
				t.Error("expected an error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
