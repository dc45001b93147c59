/*
Package graph holds the authoritative content graph and moves through it.

A Store owns the validated Document, the current node and the visit history. A Navigator
is the only way to change the current node once a document is loaded; every move is
checked for existence and either commits fully or leaves the store unchanged.

	store := graph.NewStore()
	if err := store.Load(doc); err != nil {
		return err
	}
	nav := graph.NewNavigator(store)
	node, err := nav.GoTo(ctx, "node2")

Preview swaps in a candidate document while keeping the authoritative one for Revert.
Inspect reports unreachable nodes and dangling follow-ups without rejecting the document.
*/
package graph
