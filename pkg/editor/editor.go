package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/schema"
)

// ErrUnsupportedFile is returned by Upload for names that are not JSON or YAML documents.
var ErrUnsupportedFile = errors.New("unsupported file type, expected .json, .yaml or .yml")

// Level classifies the outcome of Check.
type Level string

const (
	LevelValid   Level = "valid"
	LevelWarning Level = "warning" // well-formed but structurally invalid
	LevelError   Level = "error"   // not well-formed, or rejected by Guard
)

// Status is the result of checking editor text.
type Status struct {
	Level      Level    `json:"level"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`

	// Document is set only for LevelValid.
	Document *domain.Document `json:"-"`

	err error
}

// OK reports whether the text is a valid document.
func (s Status) OK() bool { return s.Level == LevelValid }

// Err returns the underlying parse, guard or structural error, or nil when valid.
func (s Status) Err() error { return s.err }

// Stats summarizes editor text. Nodes is -1 when the text cannot be parsed.
type Stats struct {
	Lines int `json:"lines"`
	Chars int `json:"chars"`
	Nodes int `json:"nodes"`
}

// Check parses and validates JSON text.
func Check(text string) Status {
	return CheckFormat([]byte(text), "json")
}

// CheckFormat parses and validates data in the given format ("json" or "yaml").
func CheckFormat(data []byte, format string) Status {
	if err := Guard(data); err != nil {
		return Status{Level: LevelError, Message: err.Error(), err: err}
	}
	raw, err := schema.ParseFormat(data, format)
	if err != nil {
		return Status{Level: LevelError, Message: "syntax error: " + err.Error(), err: err}
	}

	res := schema.Validate(raw)
	if !res.Valid() {
		err := res.Err()
		st := Status{
			Level:   LevelWarning,
			Message: fmt.Sprintf("syntax is valid but structure is incorrect (%d violations)", len(res.Violations)),
			err:     err,
		}
		for _, v := range res.Violations {
			st.Violations = append(st.Violations, v.Error())
		}
		return st
	}
	return Status{Level: LevelValid, Message: "document is valid", Document: res.Document}
}

// Format re-indents JSON text with two spaces. Key order is preserved.
func Format(text string) (string, error) {
	data := []byte(text)
	if err := Guard(data); err != nil {
		return "", err
	}
	if _, err := schema.Parse(data); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", &domain.ParseError{Format: "json", Err: err}
	}
	return buf.String(), nil
}

// ComputeStats counts lines, characters and nodes of the text.
func ComputeStats(text string) Stats {
	st := Stats{
		Lines: strings.Count(text, "\n") + 1,
		Chars: utf8.RuneCountInString(text),
		Nodes: -1,
	}
	raw, err := schema.Parse([]byte(text))
	if err != nil {
		return st
	}
	st.Nodes = 0
	if root, ok := raw.(map[string]any); ok {
		if nodes, ok := root["nodes"].(map[string]any); ok {
			st.Nodes = len(nodes)
		}
	}
	return st
}

// Save writes the text verbatim to w. Invalid documents are refused.
func Save(text string, w io.Writer) error {
	st := Check(text)
	if !st.OK() {
		return fmt.Errorf("refusing to save: %w", st.Err())
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Upload accepts a named document file and returns it as indented JSON editor text.
// YAML files are converted. The document must be valid.
func Upload(name string, data []byte) (string, error) {
	var format string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		format = "json"
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
	}

	st := CheckFormat(data, format)
	if !st.OK() {
		return "", st.Err()
	}
	if format == "json" {
		return Format(string(data))
	}
	out, err := schema.Serialize(st.Document)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
