package links

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goaux/stacktrace/v2"
	"gopkg.in/yaml.v3"
)

// Save writes set to path in the format implied by its extension, keeping the
// entry order. Entries that failed to decode are written back as they were
// read. The file is replaced atomically.
func Save(path string, set Set) error {
	data, err := Marshal(set, FormatOf(path))
	if err != nil {
		return err
	}
	tmp, err := stacktrace.Trace2(os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return stacktrace.Trace(err)
	}
	if err := tmp.Close(); err != nil {
		return stacktrace.Trace(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return stacktrace.Trace(err)
	}
	return stacktrace.Trace(os.Rename(tmp.Name(), path))
}

// Marshal encodes set in the given format.
func Marshal(set Set, format Format) ([]byte, error) {
	if format == YAML {
		return marshalYAML(set)
	}
	return marshalJSON(set)
}

func marshalJSON(set Set) ([]byte, error) {
	const indent = "    "
	buf := new(bytes.Buffer)
	buf.WriteString("{")
	for i, e := range set {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(e.Slug)
		if err != nil {
			return nil, err
		}
		value, err := jsonValue(e)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Slug, err)
		}
		indented := new(bytes.Buffer)
		if err := json.Indent(indented, value, indent, indent); err != nil {
			return nil, fmt.Errorf("%q: %w", e.Slug, err)
		}
		fmt.Fprintf(buf, "\n%s%s: %s", indent, key, indented.Bytes())
	}
	if len(set) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func jsonValue(e Entry) ([]byte, error) {
	if !e.OK() {
		switch raw := e.raw.(type) {
		case json.RawMessage:
			return raw, nil
		case *yaml.Node:
			var v any
			if err := raw.Decode(&v); err != nil {
				return nil, err
			}
			return json.Marshal(v)
		}
	}
	return json.Marshal(e.Link)
}

func marshalYAML(set Set) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range set {
		value, err := yamlValue(e)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Slug, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Slug}
		root.Content = append(root.Content, key, value)
	}
	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlValue(e Entry) (*yaml.Node, error) {
	node := new(yaml.Node)
	if !e.OK() {
		switch raw := e.raw.(type) {
		case *yaml.Node:
			return raw, nil
		case json.RawMessage:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return node, node.Encode(v)
		}
	}
	return node, node.Encode(e.Link)
}
