package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
)

// StreamManager fans out session events to server-sent event subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func removes and
// closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast phase changes and node entries of each
// session before calling next.
func (sm *StreamManager) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			sm.publish(e.SessionID, e)
			if next.OnPhaseChange != nil {
				next.OnPhaseChange(ctx, e)
			}
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			sm.publish(e.SessionID, e)
			if next.OnNodeEnter != nil {
				next.OnNodeEnter(ctx, e)
			}
		},
		OnNavigationRejected: next.OnNavigationRejected,
		OnLoadFailed: func(ctx context.Context, e *domain.LoadEvent) {
			sm.publish(e.SessionID, map[string]any{
				"type":       e.Type,
				"session_id": e.SessionID,
				"error":      fmt.Sprint(e.Err),
			})
			if next.OnLoadFailed != nil {
				next.OnLoadFailed(ctx, e)
			}
		},
	}
}

func (sm *StreamManager) publish(sessionID string, v any) {
	if sessionID == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Warn("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(sessionID, string(data))
}

// handleEvents serves GET /events. Without session_id it streams document reloads,
// otherwise the events of that session.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	var events <-chan string
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		changes, err := s.engine.Watch(r.Context())
		if err != nil {
			writeError(w, http.StatusNotImplemented, err)
			return
		}
		reloads := make(chan string)
		go func() {
			defer close(reloads)
			for range changes {
				select {
				case reloads <- "reload":
				case <-r.Context().Done():
					return
				}
			}
		}()
		events = reloads
	} else {
		ch, cancel := s.streams.Subscribe(sessionID)
		defer cancel()
		events = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
