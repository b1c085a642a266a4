package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/blog"
	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/routemap"
	"github.com/vango-dev/waypoint/pkg/router"
)

func routesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Print the routes a page is served with.

With --routes the route map file is loaded and checked: every resource it
names must be one the blog provides. Without it the built-in blog routes
are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := buildRouter(cfg)
			if err != nil {
				return err
			}

			var infos []router.RouteInfo
			if err := rt.Walk(func(info router.RouteInfo) error {
				infos = append(infos, info)
				return nil
			}); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			return printRoutes(os.Stdout, infos)
		},
	}

	cmd.Flags().String("routes", "", "Route map file (YAML or TOML)")
	cmd.Flags().String("recurse", "forward", "Recursion mode: forward, backward or off")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func printRoutes(out io.Writer, infos []router.RouteInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tKIND\tMETHODS")
	for _, info := range infos {
		methods := make([]string, 0, len(info.Methods))
		for _, m := range info.Methods {
			methods = append(methods, fmt.Sprintf("%s(%d)", m.Method, m.Handlers))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Pattern, info.Kind, strings.Join(methods, " "))
	}
	return w.Flush()
}

// buildRouter builds the router a page would get, with handlers that are
// never run.
func buildRouter(cfg *config.Config) (*router.Router, error) {
	b := blog.New(nil, nil)

	opts, err := cfg.Router.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, router.WithResources(b.Resources()))

	rt := router.New()
	if err := rt.Configure(opts...); err != nil {
		return nil, err
	}

	routes := b.Routes()
	if path := cfg.RoutesPath(); path != "" {
		if routes, err = routemap.Load(path); err != nil {
			return nil, err
		}
		info("resources: %s", strings.Join(routemap.Resources(routes), ", "))
	}
	if err := rt.Mount(routes); err != nil {
		return nil, err
	}
	return rt, nil
}
