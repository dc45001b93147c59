package editor

import (
	"embed"
	"fmt"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/schema"
)

//go:embed defaults/*.json
var defaults embed.FS

// DefaultJSON returns the built-in six-node document.
func DefaultJSON() []byte { return mustRead("defaults/default.json") }

// ExampleJSON returns the single-node document that shows every media kind.
func ExampleJSON() []byte { return mustRead("defaults/example.json") }

// DefaultDocument returns a fresh copy of the built-in document.
func DefaultDocument() *domain.Document { return mustDecode(DefaultJSON()) }

// ExampleDocument returns a fresh copy of the media example.
func ExampleDocument() *domain.Document { return mustDecode(ExampleJSON()) }

// Seed returns the text the editor opens with: the loaded document when there is one,
// otherwise the media example.
func Seed(doc *domain.Document) (string, error) {
	if doc == nil {
		return string(ExampleJSON()), nil
	}
	data, err := schema.Serialize(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func mustRead(name string) []byte {
	data, err := defaults.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("editor: missing embedded %s: %v", name, err))
	}
	return data
}

func mustDecode(data []byte) *domain.Document {
	res, err := schema.ValidateBytes(data)
	if err != nil {
		panic(fmt.Sprintf("editor: embedded document does not parse: %v", err))
	}
	if !res.Valid() {
		panic(fmt.Sprintf("editor: embedded document is invalid: %v", res.Err()))
	}
	return res.Document
}
