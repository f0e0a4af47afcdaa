package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/catalog"
)

var collectionsJSON bool

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List repository collections with their item counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "catalog"); shown {
			return err
		}
		cfg, err := setup("")
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		client := catalog.NewClient(cfg.Catalog)
		defer client.Close()

		counts, err := client.FacetCounts(ctx, catalog.CollectionField)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if collectionsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(counts)
		}
		rows := make([][]string, 0, len(counts))
		total := 0
		for _, c := range counts {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
			total += c.Count
		}
		fmt.Fprintln(out, renderTable([]string{"Collection", "Items"}, rows, 1))
		fmt.Fprintf(out, "%d collections, %d items\n", len(counts), total)
		return nil
	},
}

func init() {
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "print JSON instead of a table")
}
