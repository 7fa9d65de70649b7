// Package security validates and sanitizes file inputs that originate from
// outside the process: uploaded video filenames and operator-supplied paths.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AllowedVideoExtensions lists the container extensions accepted for
// analysis, matched case-insensitively.
var AllowedVideoExtensions = []string{".mp4", ".mov", ".avi"}

// HasAllowedVideoExtension reports whether name ends in one of the accepted
// video container extensions.
func HasAllowedVideoExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedVideoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ValidateVideoFilename rejects names without an accepted video extension.
func ValidateVideoFilename(name string) error {
	if name == "" {
		return fmt.Errorf("empty filename")
	}
	if !HasAllowedVideoExtension(name) {
		return fmt.Errorf("unsupported video type %q (want one of %s)",
			filepath.Ext(name), strings.Join(AllowedVideoExtensions, ", "))
	}
	return nil
}

// ValidatePathWithinDirectory checks that a file path resolves inside the
// given directory. It guards against traversal via ".." components and via
// symlinked parents.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	// Resolve symlinks to canonical paths. EvalSymlinks errors when the path
	// does not exist yet, so walk up to the nearest existing parent and
	// reconstruct from there.
	canonicalPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		canonicalPath = resolved
	} else {
		checkPath := absPath
		for {
			parentDir := filepath.Dir(checkPath)
			if parentDir == checkPath {
				break
			}
			if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
				relToParent, _ := filepath.Rel(parentDir, absPath)
				canonicalPath = filepath.Join(resolved, relToParent)
				break
			}
			checkPath = parentDir
		}
	}

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// SanitizeFilename makes a safe filename fragment from an arbitrary string,
// e.g. an uploaded file's client-supplied name. Characters outside ASCII
// letters, digits, dot, underscore and dash become underscores; runs of
// underscores collapse; the result is length-capped.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
