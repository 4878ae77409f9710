package errors

import (
	"os"
	"strings"
	"unicode"
)

// MaxTraceBytes is the largest trace the pipeline accepts.
const MaxTraceBytes = 32 << 20

// ValidateTracePath checks that path names a readable regular file.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - The file must exist and must not be a directory
func ValidateTracePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "trace path cannot be empty")
	}

	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "trace path contains null bytes")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "trace path contains invalid control characters")
		}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Wrap(ErrCodeFileNotFound, err, "trace %s not found", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidPath, "trace %s is a directory", path)
	}
	return nil
}

// ValidateTraceSize rejects traces larger than MaxTraceBytes.
func ValidateTraceSize(n int64) error {
	if n > MaxTraceBytes {
		return New(ErrCodeTraceTooLarge, "trace too large (%d bytes, max %d)", n, MaxTraceBytes)
	}
	return nil
}
