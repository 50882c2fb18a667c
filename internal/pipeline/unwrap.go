package pipeline

import (
	"encoding/json"
	"reflect"

	"github.com/dealscout/backend/internal/domain"
)

// Payload is what Unwrap extracts from an agent result: either text that
// still has to go through RepairAndParse, or a value that is already structured.
type Payload struct {
	Text       string
	Structured any
	IsText     bool
}

func textPayload(s string) Payload {
	return Payload{Text: s, IsText: true}
}

func structuredPayload(v any) Payload {
	return Payload{Structured: v}
}

// emptyPayload is the "no data" default
func emptyPayload() Payload {
	return structuredPayload(map[string]any{})
}

// Unwrap extracts a text or structured payload from an agent result.
// Probing order for wrappers: structured accessor, raw text accessor,
// generic mapping conversion. Failing or panicking accessors are skipped.
func Unwrap(raw domain.AgentResult) Payload {
	switch r := raw.(type) {
	case domain.TextResult:
		return textPayload(string(r))
	case domain.MappingResult:
		if r == nil {
			return emptyPayload()
		}
		return structuredPayload(map[string]any(r))
	case domain.SequenceResult:
		if r == nil {
			return structuredPayload([]any{})
		}
		return structuredPayload([]any(r))
	case domain.WrapperResult:
		return unwrapWrapper(r)
	case *domain.WrapperResult:
		if r != nil {
			return unwrapWrapper(*r)
		}
	}
	return emptyPayload()
}

func unwrapWrapper(w domain.WrapperResult) Payload {
	if v, ok := probe(w.Structured); ok && !isEmpty(v) {
		// A structured accessor that hands back a string is really raw text
		switch s := v.(type) {
		case string:
			return textPayload(s)
		case json.RawMessage:
			return textPayload(string(s))
		}
		return structuredPayload(v)
	}

	if s, ok := probe(w.Raw); ok && s != "" {
		return textPayload(s)
	}

	if m, ok := probe(w.AsMap); ok && m != nil {
		return structuredPayload(m)
	}

	return emptyPayload()
}

// probe calls an optional accessor, turning errors and panics into ok=false
func probe[T any](fn func() (T, error)) (v T, ok bool) {
	if fn == nil {
		return v, false
	}

	defer func() {
		if recover() != nil {
			var zero T
			v, ok = zero, false
		}
	}()

	v, err := fn()
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// isEmpty reports nil, empty strings, empty maps and empty slices
func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
