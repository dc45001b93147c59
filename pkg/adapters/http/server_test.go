package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/emergence"
	"github.com/aretw0/emergence/internal/metrics"
	httpadapter "github.com/aretw0/emergence/pkg/adapters/http"
	"github.com/aretw0/emergence/pkg/adapters/memory"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = `{
  "startNode": "a",
  "nodes": {
    "a": {
      "question": "Hello?",
      "answer": "World.",
      "followUps": [
        {"prompt": "Next", "nextNodeId": "b"},
        {"prompt": "Nowhere", "nextNodeId": "missing"}
      ]
    },
    "b": {"question": "Bye?", "answer": "Bye.", "followUps": []}
  }
}`

type fixture struct {
	server  *httptest.Server
	api     *httpadapter.Server
	source  *memory.Source
	store   *memory.Store
	streams *httpadapter.StreamManager
}

func newFixture(t *testing.T, store *memory.Store) *fixture {
	t.Helper()
	src, err := memory.NewSourceFromBytes([]byte(testDoc))
	require.NoError(t, err)

	streams := httpadapter.NewStreamManager()
	collector := metrics.New()
	eng, err := emergence.New(src,
		emergence.WithLifecycleHooks(streams.Hooks(collector.Hooks(domain.LifecycleHooks{}))))
	require.NoError(t, err)

	if store == nil {
		store = memory.NewStore()
	}
	api := httpadapter.NewServer(eng,
		func(id string) httpadapter.Session { return eng.NewSession(id) },
		httpadapter.WithManager(session.NewManager(store)),
		httpadapter.WithMetrics(collector),
		httpadapter.WithStreams(streams),
		httpadapter.WithVersion("test"),
	)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = api.Close()
	})
	return &fixture{server: ts, api: api, source: src, store: store, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (f *fixture) view(t *testing.T, method, path, body string, wantStatus int) httpadapter.SessionView {
	t.Helper()
	status, data := f.do(t, method, path, body)
	require.Equal(t, wantStatus, status, string(data))
	var v httpadapter.SessionView
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func (f *fixture) expanded(t *testing.T) string {
	t.Helper()
	created := f.view(t, http.MethodPost, "/sessions?wait=true", "", http.StatusCreated)
	require.Equal(t, domain.PhaseWaiting, created.Phase)
	v := f.view(t, http.MethodPost, "/sessions/"+created.SessionID+"/activate?wait=true", "", http.StatusOK)
	require.Equal(t, domain.PhaseExpanded, v.Phase)
	return created.SessionID
}

func TestServer_SessionFlow(t *testing.T) {
	f := newFixture(t, nil)
	id := f.expanded(t)

	v := f.view(t, http.MethodGet, "/sessions/"+id, "", http.StatusOK)
	require.NotNil(t, v.View)
	assert.Equal(t, "a", v.View.NodeID)
	assert.Equal(t, []string{"Next", "Nowhere"}, v.View.FollowUpLabels)

	v = f.view(t, http.MethodPost, "/sessions/"+id+"/select", `{"index": 0}`, http.StatusOK)
	assert.Equal(t, "b", v.View.NodeID)
	assert.True(t, v.View.Terminal)
	assert.Equal(t, []string{"a", "b"}, v.History)

	v = f.view(t, http.MethodPost, "/sessions/"+id+"/return?wait=true", "", http.StatusOK)
	assert.Equal(t, domain.PhaseWaiting, v.Phase)
	assert.Nil(t, v.View)
}

func TestServer_ActionErrors(t *testing.T) {
	f := newFixture(t, nil)
	id := f.expanded(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"index out of range", "/select", `{"index": 7}`, http.StatusBadRequest},
		{"missing index", "/select", `{}`, http.StatusBadRequest},
		{"dangling target", "/select", `{"index": 1}`, http.StatusUnprocessableEntity},
		{"wrong phase", "/activate", "", http.StatusConflict},
		{"retry without failure", "/retry", "", http.StatusConflict},
		{"commit without preview", "/commit", "", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := f.do(t, http.MethodPost, "/sessions/"+id+tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(data))

			var body map[string]string
			require.NoError(t, json.Unmarshal(data, &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	// Rejected moves leave the position untouched.
	v := f.view(t, http.MethodGet, "/sessions/"+id, "", http.StatusOK)
	assert.Equal(t, "a", v.View.NodeID)
}

func TestServer_UnknownSession(t *testing.T) {
	f := newFixture(t, nil)
	status, _ := f.do(t, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = f.do(t, http.MethodPost, "/sessions/nope/activate", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_Delete(t *testing.T) {
	f := newFixture(t, nil)
	id := f.expanded(t)

	status, _ := f.do(t, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = f.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_RestoresFromStore(t *testing.T) {
	store := memory.NewStore()
	first := newFixture(t, store)
	id := first.expanded(t)
	first.view(t, http.MethodPost, "/sessions/"+id+"/select", `{"index": 0}`, http.StatusOK)

	// A second server sharing the store picks the session up where it was left.
	second := newFixture(t, store)
	v := second.view(t, http.MethodGet, "/sessions/"+id, "", http.StatusOK)
	assert.Equal(t, domain.PhaseExpanded, v.Phase)
	require.NotNil(t, v.View)
	assert.Equal(t, "b", v.View.NodeID)
	assert.Equal(t, []string{"a", "b"}, v.History)
}

func TestServer_CreateReservesSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	v := f.view(t, http.MethodPost, "/sessions", "", http.StatusCreated)

	snap, err := f.store.Load(context.Background(), v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, v.SessionID, snap.SessionID)
}

func TestServer_RestoresRemovedNodeAtStart(t *testing.T) {
	store := memory.NewStore()
	snap := domain.NewSnapshot("old")
	snap.Phase = domain.PhaseExpanded
	snap.CurrentNodeID = "removed"
	snap.History = []string{"a", "removed"}
	require.NoError(t, store.Save(context.Background(), "old", snap))

	f := newFixture(t, store)
	v := f.view(t, http.MethodGet, "/sessions/old", "", http.StatusOK)
	assert.Equal(t, domain.PhaseExpanded, v.Phase)
	require.NotNil(t, v.View)
	assert.Equal(t, "a", v.View.NodeID)

	// The session stays usable on later requests.
	v = f.view(t, http.MethodPost, "/sessions/old/select", `{"index": 0}`, http.StatusOK)
	assert.Equal(t, "b", v.View.NodeID)
}

func TestServer_PreviewCommitRevert(t *testing.T) {
	f := newFixture(t, nil)
	id := f.expanded(t)

	status, _ := f.do(t, http.MethodPost, "/sessions/"+id+"/preview", `{"startNode": "x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = f.do(t, http.MethodPost, "/sessions/"+id+"/preview", `{"startNode": `)
	assert.Equal(t, http.StatusBadRequest, status)

	candidate := `{"startNode": "x", "nodes": {"x": {"question": "Draft?", "answer": "Yes.", "followUps": []}}}`
	v := f.view(t, http.MethodPost, "/sessions/"+id+"/preview", candidate, http.StatusOK)
	assert.True(t, v.Previewing)
	assert.Equal(t, "x", v.View.NodeID)

	v = f.view(t, http.MethodPost, "/sessions/"+id+"/revert", "", http.StatusOK)
	assert.False(t, v.Previewing)
	assert.Equal(t, "a", v.View.NodeID)

	f.view(t, http.MethodPost, "/sessions/"+id+"/preview", candidate, http.StatusOK)
	v = f.view(t, http.MethodPost, "/sessions/"+id+"/commit", "", http.StatusOK)
	assert.False(t, v.Previewing)
	assert.Equal(t, "x", v.View.NodeID)
}

func TestServer_LoadFailedAndRetry(t *testing.T) {
	f := newFixture(t, nil)
	f.source.Fail(assert.AnError)

	v := f.view(t, http.MethodPost, "/sessions?wait=true", "", http.StatusCreated)
	assert.Equal(t, domain.PhaseLoadFailed, v.Phase)
	assert.NotEmpty(t, v.LoadError)

	doc, err := f.source.Fetch(context.Background())
	assert.Error(t, err)
	assert.Nil(t, doc)

	f.source.Fail(nil)
	v = f.view(t, http.MethodPost, "/sessions/"+v.SessionID+"/retry?wait=true", "", http.StatusOK)
	assert.Equal(t, domain.PhaseWaiting, v.Phase)
	assert.Empty(t, v.LoadError)
}

func TestServer_Editor(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		body  string
		level string
	}{
		{"valid", testDoc, "valid"},
		{"structural", `{"startNode": "a", "nodes": {}}`, "warning"},
		{"syntax", `{"startNode": `, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := f.do(t, http.MethodPost, "/editor/validate", tt.body)
			require.Equal(t, http.StatusOK, status)
			var st struct {
				Level      string   `json:"level"`
				Violations []string `json:"violations"`
			}
			require.NoError(t, json.Unmarshal(data, &st))
			assert.Equal(t, tt.level, st.Level)
			if tt.level == "warning" {
				assert.NotEmpty(t, st.Violations)
			}
		})
	}

	status, data := f.do(t, http.MethodPost, "/editor/format", `{"startNode":"a","nodes":{"a":{"question":"q","answer":"a","followUps":[]}}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "\n  \"startNode\": \"a\",")

	status, _ = f.do(t, http.MethodPost, "/editor/format", `{"startNode": `)
	assert.Equal(t, http.StatusBadRequest, status)

	status, data = f.do(t, http.MethodPost, "/editor/stats", testDoc)
	require.Equal(t, http.StatusOK, status)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 2, stats["nodes"])
	assert.Equal(t, 14, stats["lines"])
}

func TestServer_DocumentAndGraph(t *testing.T) {
	f := newFixture(t, nil)

	status, data := f.do(t, http.MethodGet, "/document", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"startNode":"a"`)

	status, data = f.do(t, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, status)
	var report struct {
		Reachable []string `json:"reachable"`
		Terminal  []string `json:"terminal"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, []string{"a", "b"}, report.Reachable)
	assert.Equal(t, []string{"b"}, report.Terminal)

	id := f.expanded(t)
	status, data = f.do(t, http.MethodGet, "/graph?format=mermaid&session_id="+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "graph TD")
	assert.Contains(t, string(data), "missing{{")
	assert.Contains(t, string(data), "class a current;")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	f.expanded(t)

	status, data := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","version":"test","sessions":1}`, string(data))

	status, data = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "emergence_phase_changes_total")
}

func TestServer_CORS(t *testing.T) {
	f := newFixture(t, nil)
	status, _ := f.do(t, http.MethodOptions, "/sessions", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_SessionEvents(t *testing.T) {
	f := newFixture(t, nil)
	created := f.view(t, http.MethodPost, "/sessions?wait=true", "", http.StatusCreated)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/events?session_id="+created.SessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	go func() {
		resp, err := http.Post(f.server.URL+"/sessions/"+created.SessionID+"/activate", "application/json", nil)
		if err == nil {
			resp.Body.Close()
		}
	}()

	var phases []string
	for lines.Scan() && len(phases) < 2 {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var e domain.PhaseEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		if e.Type == domain.EventPhaseChange {
			phases = append(phases, string(e.To))
		}
	}
	assert.Equal(t, []string{"bursting", "expanded"}, phases)
}

func TestServer_ReloadAll(t *testing.T) {
	f := newFixture(t, nil)
	id := f.expanded(t)

	f.source.Set(&domain.Document{
		StartNode: "z",
		Nodes: map[string]*domain.Node{
			"z": {ID: "z", Question: "New?", Answer: "New.", FollowUps: []domain.FollowUp{}},
		},
	})
	f.api.ReloadAll(context.Background())

	v := f.view(t, http.MethodGet, "/sessions/"+id+"?wait=true", "", http.StatusOK)
	require.NotNil(t, v.View)
	assert.Equal(t, "z", v.View.NodeID)
}
