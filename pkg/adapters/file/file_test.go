package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/emergence/pkg/adapters/file"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/aretw0/emergence/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonDoc = `{"startNode":"a","nodes":{
	"a":{"question":"Q","answer":"A","followUps":[{"prompt":"next","nextNodeId":"b"}]},
	"b":{"question":"Q2","answer":"A2","followUps":[]}
}}`

const yamlDoc = `startNode: a
nodes:
  a:
    question: Q
    answer: A
    followUps:
      - prompt: next
        nextNodeId: b
  b:
    question: Q2
    answer: A2
    followUps: []
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileSource_Contract(t *testing.T) {
	dir := t.TempDir()
	t.Run("json", func(t *testing.T) {
		ports.RunDocumentSourceContract(t, file.NewSource(write(t, dir, "doc.json", jsonDoc)), "a", []string{"a", "b"})
	})
	t.Run("yaml", func(t *testing.T) {
		ports.RunDocumentSourceContract(t, file.NewSource(write(t, dir, "doc.yaml", yamlDoc)), "a", []string{"a", "b"})
	})
}

func TestFileSource_Failures(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := file.NewSource(filepath.Join(dir, "absent.json")).Fetch(ctx)
	var failure *domain.LoadFailure
	require.True(t, errors.As(err, &failure))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = file.NewSource(write(t, dir, "broken.json", `{"startNode":`)).Fetch(ctx)
	var parseErr *domain.ParseError
	assert.True(t, errors.As(err, &parseErr))

	_, err = file.NewSource(write(t, dir, "invalid.json", `{"startNode":"x","nodes":{}}`)).Fetch(ctx)
	var structural *domain.StructuralError
	assert.True(t, errors.As(err, &structural))

	t.Setenv(editor.EnvMaxDocumentSize, "10")
	_, err = file.NewSource(write(t, dir, "big.json", jsonDoc)).Fetch(ctx)
	assert.ErrorIs(t, err, editor.ErrDocumentTooLarge)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "yaml", file.Format("x.YML"))
	assert.Equal(t, "yaml", file.Format("dir/x.yaml"))
	assert.Equal(t, "json", file.Format("x.json"))
	assert.Equal(t, "json", file.Format("data"))
}

func TestFileSource_Watch(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "doc.json", jsonDoc)
	src := file.NewSource(path, file.WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Watch(ctx)
	require.NoError(t, err)

	// Unrelated files in the same directory are ignored.
	write(t, dir, "other.json", "{}")
	select {
	case <-ch:
		t.Fatal("unexpected signal for another file")
	case <-time.After(150 * time.Millisecond):
	}

	write(t, dir, "doc.json", jsonDoc)
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("watch was not signaled")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ports.RunSnapshotStoreContract(t, store)
}

func TestFileStore_EmptyID(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()
	assert.Error(t, store.Save(ctx, "", domain.NewSnapshot("")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "nope"))
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".emergence", "sessions"), file.NewStore("").BasePath)
}
