package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Result is the outcome of validating a raw payload.
// Document is set only when there are no violations.
type Result struct {
	Violations []*domain.StructuralError
	Document   *domain.Document
}

// Valid reports whether the payload satisfied every rule.
func (r Result) Valid() bool {
	return len(r.Violations) == 0 && r.Document != nil
}

// Err returns nil for a valid result, otherwise an *AggregateError with every violation.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &AggregateError{Errors: r.Violations}
}

var (
	startNodeType = NonEmptyString()
	nodesType     = Mapping()
	followUpsType = Sequence()
	textType      = NonEmptyString()
)

// Parse decodes JSON text into its raw form.
func Parse(data []byte) (any, error) {
	return ParseFormat(data, "json")
}

// ParseFormat decodes JSON or YAML text into its raw form.
func ParseFormat(data []byte, format string) (any, error) {
	var raw any
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &domain.ParseError{Format: "yaml", Err: err}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, &domain.ParseError{Format: "json", Err: err}
		}
		// Anything after the first value, including a stray "}" or "]", is malformed.
		if _, err := dec.Token(); err != io.EOF {
			return nil, &domain.ParseError{Format: "json", Err: fmt.Errorf("unexpected data after top-level value")}
		}
	}
	return raw, nil
}

// ValidateBytes parses JSON text and validates it.
func ValidateBytes(data []byte) (Result, error) {
	raw, err := Parse(data)
	if err != nil {
		return Result{}, err
	}
	return Validate(raw), nil
}

// Validate checks a raw payload against the document contract. It never panics on
// unexpected shapes. On success the typed Document is decoded and attached.
func Validate(raw any) Result {
	violations := check(raw)
	if len(violations) > 0 {
		return Result{Violations: violations}
	}

	doc, err := Decode(raw)
	if err != nil {
		return Result{Violations: []*domain.StructuralError{{
			Rule:     domain.RuleDocumentShape,
			FollowUp: -1,
			Reason:   err.Error(),
		}}}
	}
	return Result{Document: doc}
}

func check(raw any) []*domain.StructuralError {
	root, ok := raw.(map[string]any)
	if !ok || root == nil {
		return []*domain.StructuralError{violation(domain.RuleDocumentShape, "", -1,
			fmt.Sprintf("expected object, got %s", typeName(raw)))}
	}

	var errs []*domain.StructuralError

	start := root["startNode"]
	if err := startNodeType.Validate(start); err != nil {
		errs = append(errs, violation(domain.RuleStartNode, "", -1, "startNode: "+err.Error()))
	}
	if err := nodesType.Validate(root["nodes"]); err != nil {
		errs = append(errs, violation(domain.RuleNodesMapping, "", -1, "nodes: "+err.Error()))
	}
	if len(errs) > 0 {
		return errs
	}

	nodes := root["nodes"].(map[string]any)
	startID := start.(string)
	if n, exists := nodes[startID]; !exists || n == nil {
		errs = append(errs, violation(domain.RuleStartNodeExists, startID, -1, "start node is not defined"))
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		errs = append(errs, checkNode(id, nodes[id])...)
	}
	return errs
}

func checkNode(id string, raw any) []*domain.StructuralError {
	node, ok := raw.(map[string]any)
	if !ok || node == nil {
		return []*domain.StructuralError{violation(domain.RuleNodeFields, id, -1,
			fmt.Sprintf("expected object, got %s", typeName(raw)))}
	}

	var errs []*domain.StructuralError
	if err := textType.Validate(node["question"]); err != nil {
		errs = append(errs, violation(domain.RuleNodeFields, id, -1, "question: "+err.Error()))
	}
	if err := textType.Validate(node["answer"]); err != nil {
		errs = append(errs, violation(domain.RuleNodeFields, id, -1, "answer: "+err.Error()))
	}
	if err := followUpsType.Validate(node["followUps"]); err != nil {
		errs = append(errs, violation(domain.RuleNodeFields, id, -1, "followUps: "+err.Error()))
		return errs
	}

	for i, entry := range node["followUps"].([]any) {
		fu, ok := entry.(map[string]any)
		if !ok || fu == nil {
			errs = append(errs, violation(domain.RuleFollowUpFields, id, i,
				fmt.Sprintf("expected object, got %s", typeName(entry))))
			continue
		}
		if err := textType.Validate(fu["prompt"]); err != nil {
			errs = append(errs, violation(domain.RuleFollowUpFields, id, i, "prompt: "+err.Error()))
		}
		if err := textType.Validate(fu["nextNodeId"]); err != nil {
			errs = append(errs, violation(domain.RuleFollowUpFields, id, i, "nextNodeId: "+err.Error()))
		}
	}
	return errs
}

// ValidateDocument applies the same rules to an already typed document.
func ValidateDocument(doc *domain.Document) error {
	if doc == nil {
		return &AggregateError{Errors: []*domain.StructuralError{
			violation(domain.RuleDocumentShape, "", -1, "document is nil"),
		}}
	}

	var errs []*domain.StructuralError
	if doc.StartNode == "" {
		errs = append(errs, violation(domain.RuleStartNode, "", -1, "startNode: must not be empty"))
	}
	if doc.Nodes == nil {
		errs = append(errs, violation(domain.RuleNodesMapping, "", -1, "nodes: missing"))
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	if _, ok := doc.Node(doc.StartNode); !ok {
		errs = append(errs, violation(domain.RuleStartNodeExists, doc.StartNode, -1, "start node is not defined"))
	}

	for _, id := range doc.NodeIDs() {
		n := doc.Nodes[id]
		if n == nil {
			errs = append(errs, violation(domain.RuleNodeFields, id, -1, "node is null"))
			continue
		}
		if n.Question == "" {
			errs = append(errs, violation(domain.RuleNodeFields, id, -1, "question: must not be empty"))
		}
		if n.Answer == "" {
			errs = append(errs, violation(domain.RuleNodeFields, id, -1, "answer: must not be empty"))
		}
		for i, fu := range n.FollowUps {
			if fu.Prompt == "" {
				errs = append(errs, violation(domain.RuleFollowUpFields, id, i, "prompt: must not be empty"))
			}
			if fu.NextNodeID == "" {
				errs = append(errs, violation(domain.RuleFollowUpFields, id, i, "nextNodeId: must not be empty"))
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

var mediaListType = reflect.TypeOf(domain.MediaList{})

// mediaHook turns raw media entries into their typed variants.
// A media value that is not a sequence is treated as no media.
func mediaHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != mediaListType {
		return data, nil
	}
	entries, ok := data.([]any)
	if !ok {
		return domain.MediaList{}, nil
	}
	list := make(domain.MediaList, 0, len(entries))
	for _, entry := range entries {
		list = append(list, domain.ParseMediaItem(entry))
	}
	return list, nil
}

// Decode converts a raw payload that passed Validate into a typed Document.
func Decode(raw any) (*domain.Document, error) {
	var doc domain.Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(mediaHook),
		Result:     &doc,
		TagName:    "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	for id, n := range doc.Nodes {
		if n == nil {
			continue
		}
		n.ID = id
		if n.FollowUps == nil {
			n.FollowUps = []domain.FollowUp{}
		}
	}
	return &doc, nil
}

// Serialize writes the document as indented JSON.
func Serialize(doc *domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return data, nil
}

func violation(rule domain.Rule, nodeID string, followUp int, reason string) *domain.StructuralError {
	return &domain.StructuralError{Rule: rule, NodeID: nodeID, FollowUp: followUp, Reason: reason}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
