package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

var (
	partOf_pid        string
	partOf_outputPath string
)

var partOfCmd = &cobra.Command{
	Use:     "part-of-pids",
	Short:   "List the PIDs of records that are part of a parent record",
	Example: `  bdr-scripts part-of-pids --pid bdr:9x6r2xgj --output_path pids.txt`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "catalog"); shown {
			return err
		}
		if err := requireFlags(cmd, "pid"); err != nil {
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

		docs, err := client.PartOf(ctx, partOf_pid)
		if err != nil {
			return err
		}
		pids := make([]string, 0, len(docs))
		for _, d := range docs {
			pids = append(pids, d.PID)
		}
		logger.Info("%d records are part of %s", len(pids), partOf_pid)

		if partOf_outputPath == "" {
			for _, pid := range pids {
				fmt.Fprintln(cmd.OutOrStdout(), pid)
			}
			return nil
		}
		return writeLines(partOf_outputPath, pids)
	},
}

func init() {
	partOfCmd.Flags().StringVar(&partOf_pid, "pid", "", "parent PID, e.g. bdr:9x6r2xgj")
	partOfCmd.Flags().StringVar(&partOf_outputPath, "output_path", "", "write the PIDs to this file, one per line")
}
