package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID)
		snap.Phase = domain.PhaseExpanded
		snap.CurrentNodeID = "node2"
		snap.History = []string{"node1", "node2"}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.SessionID, loaded.SessionID)
		assert.Equal(t, domain.PhaseExpanded, loaded.Phase)
		assert.Equal(t, "node2", loaded.CurrentNodeID)
		assert.Equal(t, []string{"node1", "node2"}, loaded.History)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseIntro, loaded.Phase)
		assert.Empty(t, loaded.CurrentNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(id1))
		_ = store.Save(ctx, id2, domain.NewSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunDocumentSourceContract verifies that a DocumentSource returns a validated document
// whose start node is wantStart and whose node set matches wantNodes.
func RunDocumentSourceContract(t *testing.T, source DocumentSource, wantStart string, wantNodes []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Fetch", func(t *testing.T) {
		doc, err := source.Fetch(ctx)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, wantStart, doc.StartNode)
		assert.ElementsMatch(t, wantNodes, doc.NodeIDs())

		start, ok := doc.Node(doc.StartNode)
		require.True(t, ok, "start node must exist")
		assert.Equal(t, doc.StartNode, start.ID)
		for _, id := range doc.NodeIDs() {
			n, _ := doc.Node(id)
			assert.NotNil(t, n.FollowUps, "node %s must have a follow-up sequence", id)
		}
	})

	t.Run("Fetch Is Repeatable", func(t *testing.T) {
		first, err := source.Fetch(ctx)
		require.NoError(t, err)
		second, err := source.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.NodeIDs(), second.NodeIDs())
	})

	t.Run("Canceled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := source.Fetch(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
