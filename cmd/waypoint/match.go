package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/routepath"
	"github.com/vango-dev/waypoint/pkg/router"
)

func matchCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "match <location>",
		Short: "Show which route a location resolves to",
		Long: `Resolve a location against the route table without running it.

The location is a hash ("#/tech/go") or, in history mode, a path.

Examples:
  waypoint match '#/tech/go/router.md'
  waypoint match --routes=routes.yaml /tech`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := buildRouter(cfg)
			if err != nil {
				return err
			}

			res, err := routepath.Normalize(args[0], cfg.Router.History)
			if err != nil {
				return fmt.Errorf("location %q: %w", args[0], err)
			}

			m := rt.Match(router.Method(method), res.Path)
			if !m.Matched {
				fmt.Printf("%s: no route\n", res.Path)
				return nil
			}
			success("%s matches %s", res.Path, m.Pattern)
			info("captures: [%s]", strings.Join(quoteAll(m.Captures), " "))
			info("levels:   %d", len(m.Chain))
			info("handlers: %d", m.Len())
			info("after:    %d", len(m.After))
			return nil
		},
	}

	cmd.Flags().String("routes", "", "Route map file (YAML or TOML)")
	cmd.Flags().String("recurse", "forward", "Recursion mode: forward, backward or off")
	cmd.Flags().StringVarP(&method, "method", "m", string(router.MethodOn), "Method to match")

	return cmd
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
