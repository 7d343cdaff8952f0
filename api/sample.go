package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sample field names, as used in configuration files and MissingFieldError
const (
	FieldUserInput           = "user_input"
	FieldResponse            = "response"
	FieldReference           = "reference"
	FieldRetrievedContexts   = "retrieved_contexts"
	FieldReferenceContexts   = "reference_contexts"
	FieldRetrievedContextIDs = "retrieved_context_ids"
	FieldReferenceContextIDs = "reference_context_ids"
	FieldToolCalls           = "tool_calls"
	FieldReferenceToolCalls  = "reference_tool_calls"
	FieldGoal                = "goal"
)

// Sample is one evaluation record. Every field is optional; each strategy
// declares the fields it needs.
//
// A string field is present when it is non-empty. A slice field is present
// when it is non-nil, so an explicitly empty list counts as present.
type Sample struct {
	UserInput           string     `json:"user_input,omitempty" yaml:"user_input,omitempty"`
	Response            string     `json:"response,omitempty" yaml:"response,omitempty"`
	Reference           string     `json:"reference,omitempty" yaml:"reference,omitempty"`
	RetrievedContexts   []string   `json:"retrieved_contexts,omitempty" yaml:"retrieved_contexts,omitempty"`
	ReferenceContexts   []string   `json:"reference_contexts,omitempty" yaml:"reference_contexts,omitempty"`
	RetrievedContextIDs IDs        `json:"retrieved_context_ids,omitempty" yaml:"retrieved_context_ids,omitempty"`
	ReferenceContextIDs IDs        `json:"reference_context_ids,omitempty" yaml:"reference_context_ids,omitempty"`
	ToolCalls           []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	ReferenceToolCalls  []ToolCall `json:"reference_tool_calls,omitempty" yaml:"reference_tool_calls,omitempty"`
	Goal                string     `json:"goal,omitempty" yaml:"goal,omitempty"`
}

// Has reports whether the named field is present
func (s Sample) Has(field string) bool {
	switch field {
	case FieldUserInput:
		return s.UserInput != ""
	case FieldResponse:
		return s.Response != ""
	case FieldReference:
		return s.Reference != ""
	case FieldRetrievedContexts:
		return s.RetrievedContexts != nil
	case FieldReferenceContexts:
		return s.ReferenceContexts != nil
	case FieldRetrievedContextIDs:
		return s.RetrievedContextIDs != nil
	case FieldReferenceContextIDs:
		return s.ReferenceContextIDs != nil
	case FieldToolCalls:
		return s.ToolCalls != nil
	case FieldReferenceToolCalls:
		return s.ReferenceToolCalls != nil
	case FieldGoal:
		return s.Goal != ""
	default:
		return false
	}
}

// Missing returns the fields from required that are absent, in the given order
func (s Sample) Missing(required []string) []string {
	var missing []string
	for _, f := range required {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// IDs is a list of context identifiers. JSON input may use numbers or strings.
type IDs []string

// UnmarshalJSON accepts a JSON array of strings and/or numbers. A JSON
// null leaves the field absent.
func (ids *IDs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ids = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("context ids must be an array: %w", err)
	}
	out := make(IDs, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(r, &n); err != nil {
			return fmt.Errorf("context id %s is neither string nor number", string(r))
		}
		out = append(out, n.String())
	}
	*ids = out
	return nil
}

// IntIDs converts integer identifiers to IDs
func IntIDs(ids ...int) IDs {
	out := make(IDs, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id)
	}
	return out
}

// ToolCall is a single tool invocation made by an agent
type ToolCall struct {
	Name string         `json:"name" yaml:"name"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// Key returns a canonical identity for the call: the name followed by its
// arguments serialized with sorted keys.
func (c ToolCall) Key() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	keys := make([]string, 0, len(c.Args))
	for k := range c.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		v, err := json.Marshal(c.Args[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", c.Args[k]))
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
	}
	b.WriteByte(')')
	return b.String()
}

// Require returns a *MissingFieldError naming the absent fields, or nil
func (s Sample) Require(family Family, strategy Strategy, fields ...string) error {
	if missing := s.Missing(fields); len(missing) > 0 {
		return &MissingFieldError{Family: family, Strategy: strategy, Fields: missing}
	}
	return nil
}
