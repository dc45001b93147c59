// Package editor implements the authoring operations behind the document editor:
// checking, formatting, measuring, saving and uploading document text.
//
// Every entry point runs Guard before parsing, so oversized or non UTF-8 input is
// rejected up front. The built-in documents are embedded and exposed through
// DefaultDocument and ExampleDocument.
package editor
