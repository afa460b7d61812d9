package cli

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadURIList reads the source list given to --from. path "-" reads stdin.
//
// The file is either a mapping with a "uris" sequence or a bare sequence.
// JSON is accepted because it is valid YAML. Empty entries are dropped.
func LoadURIList(path string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}
	uris, err := ParseURIList(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return uris, nil
}

// ParseURIList decodes a source list document.
func ParseURIList(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse source list: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	var raw []string
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse source list: %w", err)
		}
	case yaml.MappingNode:
		var doc struct {
			URIs []string `yaml:"uris"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse source list: %w", err)
		}
		raw = doc.URIs
	default:
		return nil, fmt.Errorf("parse source list: want a sequence or a uris mapping, got %s", root.Tag)
	}

	uris := raw[:0]
	for _, u := range raw {
		if u != "" {
			uris = append(uris, u)
		}
	}
	return uris, nil
}
