package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrNotText = errors.New("file content is not text")

// allowedDetectedTypes are the sniffed types a dropped CSV may have.
var allowedDetectedTypes = map[string]bool{
	"text/plain":      true,
	"text/csv":        true,
	"application/csv": true,
}

// ValidateCSVContent sniffs the first 512 bytes and rejects binary content
// (spreadsheets, archives, executables) carrying a .csv name. The read offset
// is reset so the caller can parse the whole file afterwards.
func ValidateCSVContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}
	if n == 0 {
		return "text/plain", nil
	}

	detected := http.DetectContentType(buffer[:n])
	detected = strings.ToLower(strings.Split(detected, ";")[0]) // "text/plain; charset=utf-8"
	if !allowedDetectedTypes[detected] {
		return detected, fmt.Errorf("%w: detected %s", ErrNotText, detected)
	}
	return detected, nil
}
