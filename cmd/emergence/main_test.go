package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/emergence/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	out, err := run(t, "init", path, "--example=false", "--force=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, editor.DefaultJSON(), data)

	_, err = run(t, "init", path, "--example=false", "--force=false")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", path, "--example", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, editor.ExampleJSON(), data)
}

func TestValidate(t *testing.T) {
	good := writeDoc(t, "good.json", editor.DefaultJSON())
	out, err := run(t, "validate", good, "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, out, "valid: document is valid")

	example := writeDoc(t, "example.json", editor.ExampleJSON())
	out, err = run(t, "validate", example, "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, out, `leads to missing node "node2"`)

	_, err = run(t, "validate", example, "--strict")
	assert.ErrorIs(t, err, errInvalid)

	broken := writeDoc(t, "broken.json", []byte(`{"startNode": "a", "nodes": {}}`))
	out, err = run(t, "validate", broken, "--strict=false")
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "start-node-exists")
}

func TestFormatAndStats(t *testing.T) {
	path := writeDoc(t, "doc.json", []byte(`{"startNode":"a","nodes":{"a":{"question":"q","answer":"a","followUps":[]}}}`))

	out, err := run(t, "format", path, "--write=false")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \"startNode\": \"a\","))

	out, err = run(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "lines: 1\n")
	assert.Contains(t, out, "nodes: 1\n")

	_, err = run(t, "format", path, "--write")
	require.NoError(t, err)
	out, err = run(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "lines: 11\n")

	yamlDoc := writeDoc(t, "doc.yaml", []byte("startNode: a\nnodes:\n  a:\n    question: q\n    answer: a\n    followUps: []\n"))
	out, err = run(t, "format", yamlDoc, "--write=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"startNode": "a"`)
}

func TestGraph(t *testing.T) {
	path := writeDoc(t, "doc.json", editor.ExampleJSON())

	out, err := run(t, "graph", path, "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))

	out, err = run(t, "graph", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"startNode": "node1"`)

	_, err = run(t, "graph", path, "--format", "dot")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "emergence version ")
}
