package editor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxDocumentSize is 1 MiB.
	DefaultMaxDocumentSize = 1 << 20
	// EnvMaxDocumentSize is the environment variable to override the default
	EnvMaxDocumentSize = "EMERGENCE_MAX_DOCUMENT_SIZE"
)

var (
	ErrDocumentTooLarge = errors.New("document exceeds maximum allowed size")
	ErrInvalidUTF8      = errors.New("document contains invalid UTF-8 sequences")
)

// Guard rejects documents that are too large or not valid UTF-8, before any parsing.
func Guard(data []byte) error {
	limit := MaxDocumentSize()
	if len(data) > limit {
		// Rejected, never truncated.
		return fmt.Errorf("%w: size=%d limit=%d", ErrDocumentTooLarge, len(data), limit)
	}
	if !utf8.Valid(data) {
		return ErrInvalidUTF8
	}
	return nil
}

// StripControl removes control characters other than newline, tab and carriage return.
// It is applied to text echoed back to terminals and logs.
func StripControl(input string) string {
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxDocumentSize returns the active size limit in bytes.
func MaxDocumentSize() int {
	if val := os.Getenv(EnvMaxDocumentSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxDocumentSize
}
