package routemap

import (
	"gopkg.in/yaml.v3"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// DecodeYAML decodes a YAML route map.
func DecodeYAML(data []byte, file string) (router.RouteMap, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, werrors.New("W403").WithDetail("invalid YAML: " + err.Error()).Wrap(err)
	}
	if doc.Kind == 0 {
		return router.RouteMap{}, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return router.RouteMap{}, nil
		}
		root = root.Content[0]
	}
	return yamlTable(root, file)
}

func yamlTable(n *yaml.Node, file string) (router.RouteMap, error) {
	if n.Kind != yaml.MappingNode {
		return nil, mapError(file, n.Line, "expected a table of routes, found %s", yamlKind(n))
	}

	m := make(router.RouteMap, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, mapError(file, key.Line, "route keys must be non-empty strings")
		}

		entry := router.RouteEntry{Key: key.Value, File: file, Line: key.Line}
		switch value.Kind {
		case yaml.ScalarNode:
			if value.Value == "" {
				return nil, mapError(file, value.Line, "key %q names an empty resource", key.Value)
			}
			entry.Resources = []string{value.Value}
		case yaml.SequenceNode:
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode || item.Value == "" {
					return nil, mapError(file, item.Line, "key %q: resource lists hold names only", key.Value)
				}
				entry.Resources = append(entry.Resources, item.Value)
			}
		case yaml.MappingNode:
			routes, err := yamlTable(value, file)
			if err != nil {
				return nil, err
			}
			entry.Routes = routes
		default:
			return nil, mapError(file, value.Line, "key %q: unsupported value %s", key.Value, yamlKind(value))
		}
		m = append(m, entry)
	}
	return m, nil
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "table"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}
