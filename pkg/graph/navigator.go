package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
)

// Navigator is the only way to change the store's current node after Load.
type Navigator struct {
	store  *Store
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithNavigatorLogger sets the logger for moves and rejections.
func WithNavigatorLogger(logger *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithNavigatorHooks registers OnNodeEnter and OnNavigationRejected callbacks.
func WithNavigatorHooks(hooks domain.LifecycleHooks) NavigatorOption {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// NewNavigator creates a Navigator over store.
func NewNavigator(store *Store, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Store returns the store the navigator moves through.
func (n *Navigator) Store() *Store {
	return n.store
}

// GoTo moves to nodeID and returns the entered node. The move is atomic: when the
// target does not exist a *domain.DanglingReferenceError is returned and the
// current node is unchanged.
func (n *Navigator) GoTo(ctx context.Context, nodeID string) (*domain.Node, error) {
	node, from, err := n.store.move(nodeID)
	if err != nil {
		var dangling *domain.DanglingReferenceError
		if errors.As(err, &dangling) {
			n.logger.Debug("navigation rejected", "from", from, "target", nodeID)
			if n.hooks.OnNavigationRejected != nil {
				n.hooks.OnNavigationRejected(ctx, &domain.NodeEvent{
					EventBase:  n.event(ctx, domain.EventNavigationRejected),
					NodeID:     nodeID,
					FromNodeID: from,
					Err:        err,
				})
			}
		}
		return nil, err
	}

	n.logger.Debug("node entered", "node_id", nodeID, "from", from)
	if n.hooks.OnNodeEnter != nil {
		n.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase:  n.event(ctx, domain.EventNodeEnter),
			NodeID:     nodeID,
			FromNodeID: from,
		})
	}
	return node, nil
}

// Select follows the follow-up at index of the current node.
func (n *Navigator) Select(ctx context.Context, index int) (*domain.Node, error) {
	current, err := n.store.Current()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(current.FollowUps) {
		return nil, domain.ErrFollowUpIndex
	}
	return n.GoTo(ctx, current.FollowUps[index].NextNodeID)
}

// Restore places the navigator at a previously saved position without firing hooks.
func (n *Navigator) Restore(currentID string, history []string) error {
	return n.store.place(currentID, history)
}

func (n *Navigator) event(ctx context.Context, typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      typ,
		SessionID: SessionIDFrom(ctx),
	}
}

type sessionKey struct{}

// ContextWithSessionID tags ctx so emitted events carry the session identifier.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom returns the session identifier stored by ContextWithSessionID.
func SessionIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
