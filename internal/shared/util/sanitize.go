package util

import (
	"errors"
	"mime"
	"path"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// FileExt returns the lower-case extension of name, falling back to the
// first extension registered for contentType. It returns "" when neither
// yields one.
func FileExt(name, contentType string) string {
	if clean, err := SanitizeFileName(name); err == nil {
		if ext := strings.ToLower(path.Ext(clean)); ext != "" {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
