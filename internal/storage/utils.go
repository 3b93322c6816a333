package storage

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName keeps only the base name and replaces characters outside [a-zA-Z0-9._-] with '_'
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return unsafeFileChars.ReplaceAllString(base, "_")
}

// GenerateFileName builds a unique stored name "<uuid>-<sanitized original name>"
func GenerateFileName(originalName string) string {
	return uuid.NewString() + "-" + SanitizeFileName(originalName)
}

// sizeWriter counts the bytes written through it
type sizeWriter struct {
	size int64
}

// Write implements io.Writer
func (sw *sizeWriter) Write(p []byte) (int, error) {
	sw.size += int64(len(p))
	return len(p), nil
}

// Size returns the total number of bytes written
func (sw *sizeWriter) Size() int64 {
	return sw.size
}
