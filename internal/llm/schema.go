package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON Schema a reply must satisfy. Use it by pointer; the
// compiled form is cached on first use.
type Schema struct {
	// Name is sent as the vendor's schema or tool name, kebab-case.
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Compile reports whether Definition is a valid JSON Schema.
func (s *Schema) Compile() error {
	s.once.Do(func() {
		s.compiled, s.err = s.compile()
	})
	return s.err
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	url := "mem:///" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	return compiled, nil
}

// Validate checks raw against the schema.
func (s *Schema) Validate(raw json.RawMessage) error {
	if err := s.Compile(); err != nil {
		return err
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("reply is not JSON: %w", err)
	}
	return s.compiled.Validate(v)
}

// reply turns a vendor's text output into a Response, rejecting truncated
// or non-conforming output.
func reply(provider string, req Request, text, model string, usage Usage, truncated bool) (*Response, error) {
	content := json.RawMessage(bytes.TrimSpace([]byte(text)))
	if truncated {
		return nil, &Error{Kind: KindTruncated, Provider: provider, Content: content,
			Err: fmt.Errorf("max tokens %d reached", req.MaxTokens)}
	}
	if req.Schema != nil {
		if err := req.Schema.Validate(content); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Content: content, Err: err}
		}
	}
	return &Response{Content: content, Usage: usage, Model: model}, nil
}
