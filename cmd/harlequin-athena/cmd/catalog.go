package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/singlow/harlequin-athena/adapter"
)

// newCatalogCmd builds the catalog subcommand, which prints the schema tree
// down to a chosen depth.
func newCatalogCmd(c *Cmd) *cobra.Command {
	var flagDepth int

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the Athena catalog tree",
		Long: "Print the catalog tree: schemas at depth 1, tables at depth 2,\n" +
			"columns at depth 3.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.newAdapter()
			if err != nil {
				return err
			}

			conn, err := a.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			catalog, err := conn.GetCatalog(cmd.Context())
			if err != nil {
				return err
			}

			for _, item := range catalog.Items {
				if err := printTree(cmd.Context(), cmd.OutOrStdout(), item, 0, flagDepth); err != nil {
					return err
				}
			}
			return nil
		},
	}

	catalogCmd.Flags().IntVar(&flagDepth, "depth",
		2,
		"How deep to expand the tree below the catalog (1 schemas, 2 tables, 3 columns).")

	return catalogCmd
}

func printTree(ctx context.Context, w io.Writer, item *adapter.CatalogItem, depth, maxDepth int) error {
	fmt.Fprintf(w, "%s%s [%s]\n", strings.Repeat("  ", depth), item.Label, item.TypeLabel)

	if depth >= maxDepth {
		return nil
	}

	children, err := item.FetchChildren(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := printTree(ctx, w, child, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
