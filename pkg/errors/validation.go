package errors

import (
	"strings"
	"unicode"
)

// ValidateSource checks the size of submitted source text before analysis.
// maxBytes of 0 disables the check. Encoding problems are left to the
// analyzer, which reports them as diagnostics.
func ValidateSource(src []byte, maxBytes int64) error {
	if maxBytes > 0 && int64(len(src)) > maxBytes {
		return New(ErrCodeTooLarge, "source is %d bytes (max %d)", len(src), maxBytes)
	}
	return nil
}

// ValidateOffset checks a cursor offset against the length of the text it
// points into. An offset equal to length is valid (cursor at end of text).
func ValidateOffset(offset, length int) error {
	if offset < 0 {
		return New(ErrCodeInvalidOffset, "offset cannot be negative: %d", offset)
	}
	if offset > length {
		return New(ErrCodeInvalidOffset, "offset %d is past the end of the source (%d bytes)", offset, length)
	}
	return nil
}

// ValidateLanguageName rejects language names that cannot be a registry key.
// Whether the language is supported is decided by the analyzer registry.
func ValidateLanguageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLanguage, "language cannot be empty")
	}
	if len(name) > 32 {
		return New(ErrCodeInvalidLanguage, "language name too long (max 32 characters)")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return New(ErrCodeInvalidLanguage, "language name contains invalid characters: %q", name)
		}
	}
	return nil
}

// ValidatePath validates a file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
