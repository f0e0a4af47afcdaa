package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/ocflstore"
	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

var (
	del_pids   string
	del_dryRun bool
	del_yes    bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete OCFL objects by PID from the storage root",
	Long:    `Deletes the given PIDs from the OCFL storage root in DEL__STORAGE_ROOT_PATH with rocfl purge.`,
	Example: `  bdr-scripts delete --pids "bdr:abc123,bdr:def456"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "delete"); shown {
			return err
		}
		if err := requireFlags(cmd, "pids"); err != nil {
			return err
		}
		cfg, err := setup("")
		if err != nil {
			return err
		}
		if err := config.Validate(&cfg.Delete); err != nil {
			return err
		}

		pids := ocflstore.SplitIDs(del_pids)
		if len(pids) == 0 {
			return fmt.Errorf("--pids: no pids given")
		}
		logger.Debug("cleaned pids, %v", pids)

		if !del_yes && !del_dryRun {
			if err := requireConfirmation(fmt.Sprintf("Permanently delete %d objects?", len(pids)), cfg.Delete.StorageRoot); err != nil {
				logger.Info("Nothing deleted")
				return err
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		store := ocflstore.NewStore(cfg.Delete.RocflCmd, cfg.Delete.StorageRoot)
		return reportOutcomes(cmd.OutOrStdout(), ocflstore.NewPurger(store).Run(ctx, pids, del_dryRun))
	},
}

func init() {
	deleteCmd.Flags().StringVar(&del_pids, "pids", "", "comma-separated list of pids to delete")
	deleteCmd.Flags().BoolVar(&del_dryRun, "dry_run", false, "log what would be deleted without deleting")
	deleteCmd.Flags().BoolVar(&del_yes, "yes", false, "skip the confirmation prompt")
}
