package schema

import (
	"errors"
	"testing"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[]}}}`

func TestValidate_MinimalDocument(t *testing.T) {
	res, err := ValidateBytes([]byte(minimalDoc))
	require.NoError(t, err)
	require.True(t, res.Valid(), "violations: %v", res.Violations)
	require.NoError(t, res.Err())

	doc := res.Document
	assert.Equal(t, "a", doc.StartNode)
	node, ok := doc.Node("a")
	require.True(t, ok)
	assert.Equal(t, "a", node.ID)
	assert.Equal(t, "Q", node.Question)
	assert.NotNil(t, node.FollowUps)
	assert.Empty(t, node.FollowUps)
	assert.True(t, node.IsTerminal())
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		rule     domain.Rule
		nodeID   string
		followUp int
	}{
		{"not an object", `[1,2]`, domain.RuleDocumentShape, "", -1},
		{"null document", `null`, domain.RuleDocumentShape, "", -1},
		{"missing startNode", `{"nodes":{"a":{"question":"Q","answer":"A","followUps":[]}}}`, domain.RuleStartNode, "", -1},
		{"empty startNode", `{"startNode":"","nodes":{}}`, domain.RuleStartNode, "", -1},
		{"numeric startNode", `{"startNode":1,"nodes":{}}`, domain.RuleStartNode, "", -1},
		{"null nodes", `{"startNode":"a","nodes":null}`, domain.RuleNodesMapping, "", -1},
		{"nodes is a list", `{"startNode":"a","nodes":[]}`, domain.RuleNodesMapping, "", -1},
		{"start node missing", `{"startNode":"x","nodes":{"a":{"question":"Q","answer":"A","followUps":[]}}}`, domain.RuleStartNodeExists, "x", -1},
		{"missing question", `{"startNode":"a","nodes":{"a":{"answer":"A","followUps":[]}}}`, domain.RuleNodeFields, "a", -1},
		{"empty answer", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"","followUps":[]}}}`, domain.RuleNodeFields, "a", -1},
		{"missing followUps", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A"}}}`, domain.RuleNodeFields, "a", -1},
		{"followUps not a list", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":{}}}}`, domain.RuleNodeFields, "a", -1},
		{"node not an object", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[]},"b":"oops"}}`, domain.RuleNodeFields, "b", -1},
		{"follow-up without prompt", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[{"nextNodeId":"a"}]}}}`, domain.RuleFollowUpFields, "a", 0},
		{"follow-up without target", `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[{"prompt":"go"},{"prompt":"x","nextNodeId":""}]}}}`, domain.RuleFollowUpFields, "a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateBytes([]byte(tt.input))
			require.NoError(t, err, "well-formed input must not produce a parse error")
			require.False(t, res.Valid())
			assert.Nil(t, res.Document, "no partial acceptance")
			require.NotEmpty(t, res.Violations)

			first := res.Violations[0]
			assert.Equal(t, tt.rule, first.Rule)
			assert.Equal(t, tt.nodeID, first.NodeID)
			assert.Equal(t, tt.followUp, first.FollowUp)

			var structural *domain.StructuralError
			assert.True(t, errors.As(res.Err(), &structural))
		})
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	input := `{"startNode":"a","nodes":{
		"a":{"question":"","answer":"","followUps":[{"prompt":"","nextNodeId":""}]}
	}}`
	res, err := ValidateBytes([]byte(input))
	require.NoError(t, err)
	assert.Len(t, res.Violations, 4)
	assert.Len(t, Violations(res.Err()), 4)
}

func TestValidate_DanglingReferenceIsAccepted(t *testing.T) {
	input := `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[{"prompt":"Go","nextNodeId":"missing"}]}}}`
	res, err := ValidateBytes([]byte(input))
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, "missing", res.Document.Nodes["a"].FollowUps[0].NextNodeID)
}

func TestParse_Malformed(t *testing.T) {
	const minimal = `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[]}}}`
	for _, input := range []string{
		`{"startNode":`, `not json`, `{} {}`, ``,
		minimal + ` }`, minimal + `]`, minimal + ` {}`,
	} {
		_, err := ValidateBytes([]byte(input))
		var parseErr *domain.ParseError
		assert.True(t, errors.As(err, &parseErr), "input %q: got %v", input, err)
	}
}

func TestParseFormat_YAML(t *testing.T) {
	input := `
startNode: a
nodes:
  a:
    question: Q
    answer: A
    media:
      - type: image
        url: https://example.com/x.png
        width: 320
    followUps:
      - prompt: Again
        nextNodeId: a
`
	raw, err := ParseFormat([]byte(input), "yaml")
	require.NoError(t, err)
	res := Validate(raw)
	require.True(t, res.Valid(), "violations: %v", res.Violations)

	media := res.Document.Nodes["a"].Media
	require.Len(t, media, 1)
	img, ok := media[0].(domain.Image)
	require.True(t, ok, "got %T", media[0])
	assert.Equal(t, "320", img.Width)

	_, err = ParseFormat([]byte("a: [unclosed"), "yaml")
	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "yaml", parseErr.Format)
}

func TestDecode_Media(t *testing.T) {
	input := `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[],"media":[
		{"type":"video","url":"https://youtu.be/dQw4w9WgXcQ","autoplay":true},
		{"type":"link","url":"https://example.com/page","title":"Page"},
		{"type":"audio","url":"https://example.com/a.mp3"},
		{"type":"gif","url":"https://example.com/a.gif"},
		"bare string"
	]}}}`
	res, err := ValidateBytes([]byte(input))
	require.NoError(t, err)
	require.True(t, res.Valid())

	media := res.Document.Nodes["a"].Media
	require.Len(t, media, 5)
	assert.Equal(t, domain.Video{URL: "https://youtu.be/dQw4w9WgXcQ", Autoplay: true}, media[0])
	assert.Equal(t, domain.MediaLink, media[1].Kind())
	assert.Equal(t, domain.MediaAudio, media[2].Kind())
	assert.Equal(t, domain.MediaUnknown, media[3].Kind())
	assert.Equal(t, "gif", media[3].(domain.UnknownMedia).Type)
	assert.Equal(t, domain.MediaUnknown, media[4].Kind())
}

func TestDecode_MediaNotAList(t *testing.T) {
	input := `{"startNode":"a","nodes":{"a":{"question":"Q","answer":"A","followUps":[],"media":"nope"}}}`
	res, err := ValidateBytes([]byte(input))
	require.NoError(t, err)
	require.True(t, res.Valid())
	assert.Empty(t, res.Document.Nodes["a"].Media)
}

func TestSerialize_RoundTripPreservesValidity(t *testing.T) {
	inputs := []string{
		minimalDoc,
		`{"startNode":"a","nodes":{
			"a":{"question":"Q","answer":"<b>A</b>","followUps":[{"prompt":"Next","nextNodeId":"b"},{"prompt":"Lost","nextNodeId":"nowhere"}],
				"media":[{"type":"video","url":"https://vimeo.com/123","title":"T"},{"type":"gif","url":"u","extra":1}]},
			"b":{"question":"Q2","answer":"A2","followUps":[]}
		}}`,
	}

	for _, input := range inputs {
		first, err := ValidateBytes([]byte(input))
		require.NoError(t, err)
		require.True(t, first.Valid())

		data, err := Serialize(first.Document)
		require.NoError(t, err)

		second, err := ValidateBytes(data)
		require.NoError(t, err)
		require.True(t, second.Valid(), "violations: %v", second.Violations)
		assert.Equal(t, first.Document, second.Document)
	}
}

func TestValidateDocument(t *testing.T) {
	valid := &domain.Document{
		StartNode: "a",
		Nodes: map[string]*domain.Node{
			"a": {Question: "Q", Answer: "A", FollowUps: []domain.FollowUp{{Prompt: "p", NextNodeID: "zz"}}},
		},
	}
	assert.NoError(t, ValidateDocument(valid))

	assert.Error(t, ValidateDocument(nil))
	assert.Error(t, ValidateDocument(&domain.Document{StartNode: "a"}))
	assert.Error(t, ValidateDocument(&domain.Document{StartNode: "b", Nodes: valid.Nodes}))

	broken := &domain.Document{
		StartNode: "a",
		Nodes: map[string]*domain.Node{
			"a": {Question: "Q", Answer: "A", FollowUps: []domain.FollowUp{{Prompt: "", NextNodeID: "a"}}},
		},
	}
	err := ValidateDocument(broken)
	require.Error(t, err)
	v := Violations(err)
	require.Len(t, v, 1)
	assert.Equal(t, domain.RuleFollowUpFields, v[0].Rule)
	assert.Equal(t, 0, v[0].FollowUp)
}
