package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/internal/ledger"
	"github.com/brown-library/bdr-scripts/internal/scanner"
	"github.com/brown-library/bdr-scripts/internal/updater"
	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

var (
	um_orgList    string
	um_modsDir    string
	um_trackerDir string
)

var updateModsCmd = &cobra.Command{
	Use:   "update-mods",
	Short: "Update org and item MODS for the given orgs, skipping work already done",
	Long: `Updates all org-MODS and item-MODS for the given orgs.

For each org, local MODS files under --mods_dir are matched with PIDs from the
repository search API, and the update-mods binary is run once per item.
Progress is tracked with marker files under --tracker_dir, so a rerun only
processes orgs and items that have not completed. Remove a marker file to force
that org or item to be processed again.`,
	Example: `  bdr-scripts update-mods --org_list "HH123456,HH654321" --mods_dir /path/to/mods --tracker_dir /path/to/tracker`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "catalog.api_root", "catalog.timeout", "catalog.retries", "update"); shown {
			return err
		}
		if err := requireFlags(cmd, "org_list", "mods_dir", "tracker_dir"); err != nil {
			return err
		}

		orgs := splitList(um_orgList)
		for _, org := range orgs {
			if err := scanner.ValidateOrgID(org); err != nil {
				return err
			}
		}
		if err := requireDir("mods_dir", um_modsDir); err != nil {
			return err
		}
		if err := requireDir("tracker_dir", um_trackerDir); err != nil {
			return err
		}

		cfg, err := setup("")
		if err != nil {
			return err
		}
		if err := config.Validate(&cfg.Update); err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client := catalog.NewClient(cfg.Catalog)
		defer client.Close()

		inv := updater.NewInvoker(client, updater.NewBinaryUpdater(cfg.Update), ledger.New(um_trackerDir), um_modsDir)
		logger.Info("Processing orgs %v", orgs)
		summary, runErr := inv.Run(ctx, orgs)

		fmt.Fprintf(cmd.OutOrStdout(),
			"orgs: %d (skipped %d, failed %d); items: %d, updated %d, already done %d, problems %d (missing pid %d)\n",
			summary.Orgs, summary.OrgsSkipped, len(summary.OrgsFailed),
			summary.Items, summary.Updated, summary.Skipped, summary.Problems, summary.MissingPID)
		return runErr
	},
}

func init() {
	updateModsCmd.Flags().StringVar(&um_orgList, "org_list", "", `orgs to process; example "HH123456" or "HH123456,HH654321"`)
	updateModsCmd.Flags().StringVar(&um_modsDir, "mods_dir", "", "directory containing pre-made org-mods and item-mods files")
	updateModsCmd.Flags().StringVar(&um_trackerDir, "tracker_dir", "", "directory holding the tracker files")
}
