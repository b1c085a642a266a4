package routemap

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// DecodeTOML decodes a TOML route map. Path keys need quoting:
//
//	"/" = "blog"
//
//	["/:channel"]
//	on = "blog"
//	before = ["auth", "log"]
func DecodeTOML(data []byte, file string) (router.RouteMap, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		we := werrors.New("W403").WithDetail("invalid TOML: " + err.Error())
		var perr toml.ParseError
		if errors.As(err, &perr) && file != "" {
			we = we.WithLocation(file, perr.Position.Line, 0)
		}
		return nil, we.Wrap(err)
	}
	return tomlTable(md, md.Keys(), nil, raw, file)
}

// tomlTable builds the entries directly below prefix. keys is every key of
// the document in order; md.Keys is the only source of key order since raw
// is a Go map.
func tomlTable(md toml.MetaData, keys []toml.Key, prefix toml.Key, table map[string]any, file string) (router.RouteMap, error) {
	var m router.RouteMap
	seen := make(map[string]bool)

	for _, key := range keys {
		if len(key) != len(prefix)+1 || !hasPrefix(key, prefix) {
			continue
		}
		name := key[len(key)-1]
		if seen[name] {
			continue
		}
		seen[name] = true

		if name == "" {
			return nil, mapError(file, 0, "route keys must be non-empty strings")
		}

		entry := router.RouteEntry{Key: name, File: file}
		switch value := table[name].(type) {
		case string:
			if value == "" {
				return nil, mapError(file, 0, "key %q names an empty resource", key.String())
			}
			entry.Resources = []string{value}
		case []any:
			for _, item := range value {
				s, ok := item.(string)
				if !ok || s == "" {
					return nil, mapError(file, 0, "key %q: resource lists hold names only", key.String())
				}
				entry.Resources = append(entry.Resources, s)
			}
		case map[string]any:
			routes, err := tomlTable(md, keys, key, value, file)
			if err != nil {
				return nil, err
			}
			entry.Routes = routes
		default:
			return nil, mapError(file, 0, "key %q: unsupported %s value", key.String(), strings.ToLower(md.Type(key...)))
		}
		m = append(m, entry)
	}

	if m == nil {
		m = router.RouteMap{}
	}
	return m, nil
}

func hasPrefix(key, prefix toml.Key) bool {
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
