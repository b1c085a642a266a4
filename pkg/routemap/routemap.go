// Package routemap decodes declarative route maps from YAML and TOML files.
//
// A route map is a nested table. Keys are path fragments or method names;
// values are a resource name, a list of resource names, or a nested table:
//
//	/:channel/:category/(.*\.html): blog
//	/:channel:
//	  on: blog
//	  before: [auth, log]
//	/: blog
//
// Resource names are resolved by the router's resources when the map is
// mounted. YAML maps keep their key order and record line numbers; TOML
// maps keep their key order.
package routemap

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Format is a route map encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", werrors.New("W403").
			WithDetailf("unsupported route map extension %q", filepath.Ext(path)).
			WithSuggestion("Use a .yaml, .yml or .toml file")
	}
}

// Load reads and decodes the route map at path.
func Load(path string) (router.RouteMap, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.New("W403").WithDetail("cannot read " + path).Wrap(err)
	}
	return Parse(data, format, path)
}

// Parse decodes data. file is recorded on each entry for error locations
// and may be empty.
func Parse(data []byte, format Format, file string) (router.RouteMap, error) {
	switch format {
	case FormatYAML:
		return DecodeYAML(data, file)
	case FormatTOML:
		return DecodeTOML(data, file)
	default:
		return nil, werrors.New("W403").WithDetailf("unknown route map format %q", format)
	}
}

// Resources returns the resource names m refers to, sorted and without
// duplicates.
func Resources(m router.RouteMap) []string {
	seen := make(map[string]struct{})
	var walk func(router.RouteMap)
	walk = func(m router.RouteMap) {
		for _, e := range m {
			for _, name := range e.Resources {
				seen[name] = struct{}{}
			}
			walk(e.Routes)
		}
	}
	walk(m)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func mapError(file string, line int, format string, args ...any) error {
	err := werrors.New("W403").WithDetail(fmt.Sprintf(format, args...))
	if file != "" && line > 0 {
		err = err.WithLocation(file, line, 0)
	}
	return err
}
