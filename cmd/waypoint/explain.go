package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain an error code",
		Long: `Print the explanation of an error code such as W105, or list every
code when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				for _, code := range werrors.GetAllCodes() {
					t, _ := werrors.GetTemplate(code)
					fmt.Fprintf(w, "%s\t%s\t%s\n", code, t.Category, t.Message)
				}
				return w.Flush()
			}

			code := strings.ToUpper(args[0])
			t, ok := werrors.GetTemplate(code)
			if !ok {
				return fmt.Errorf("unknown error code %q", args[0])
			}
			fmt.Printf("%s: %s\n\n", code, t.Message)
			info("%s", t.Explain)
			if t.DocURL != "" {
				fmt.Println()
				info("Learn more: %s", t.DocURL)
			}
			return nil
		},
	}
}
