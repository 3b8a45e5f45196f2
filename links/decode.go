package links

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// parseJSON walks the top level object token by token so that key order is
// kept.
func parseJSON(r io.Reader) (Set, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level value must be an object", ErrInvalidDocument)
	}

	var set Set
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		slug, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrInvalidDocument, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDocument, slug, err)
		}
		set = set.put(index, decodeJSONEntry(slug, raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after the top level object", ErrInvalidDocument)
	}
	return set, nil
}

func decodeJSONEntry(slug string, raw json.RawMessage) Entry {
	entry := Entry{Slug: slug, raw: raw}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		entry.Err = ErrInvalidEntry
	case trimmed[0] == '"':
		var url string
		if err := json.Unmarshal(trimmed, &url); err != nil {
			entry.Err = fmt.Errorf("%w: %v", ErrInvalidEntry, err)
			return entry
		}
		entry.Link = Link{Slug: slug, URL: url}
	case trimmed[0] == '{':
		var link Link
		if err := json.Unmarshal(trimmed, &link); err != nil {
			entry.Err = fmt.Errorf("%w: %v", ErrInvalidEntry, err)
			return entry
		}
		link.Slug = slug
		entry.Link = link
	case bytes.Equal(trimmed, []byte("null")):
		entry.Err = ErrURLRequired
	default:
		entry.Err = ErrInvalidEntry
	}
	if entry.Err == nil && entry.Link.URL == "" {
		entry.Err = ErrURLRequired
	}
	return entry
}

func parseYAML(r io.Reader) (Set, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bufio.NewReader(r)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level value must be a mapping", ErrInvalidDocument)
	}

	var set Set
	index := make(map[string]int)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		set = set.put(index, decodeYAMLEntry(key.Value, value))
	}
	return set, nil
}

func decodeYAMLEntry(slug string, node *yaml.Node) Entry {
	entry := Entry{Slug: slug, raw: node}
	switch {
	case node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null":
		entry.Err = ErrURLRequired
	case node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str":
		entry.Link = Link{Slug: slug, URL: node.Value}
	case node.Kind == yaml.MappingNode:
		var link Link
		if err := node.Decode(&link); err != nil {
			entry.Err = fmt.Errorf("%w: %v", ErrInvalidEntry, err)
			return entry
		}
		link.Slug = slug
		entry.Link = link
	default:
		entry.Err = ErrInvalidEntry
	}
	if entry.Err == nil && entry.Link.URL == "" {
		entry.Err = ErrURLRequired
	}
	return entry
}
