package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/modsfetch"
	"github.com/brown-library/bdr-scripts/internal/ocflstore"
	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

var (
	purge_pidsFile string
	purge_dryRun   bool
	purge_yes      bool
)

var purgeOCFLCmd = &cobra.Command{
	Use:   "purge-ocfl",
	Short: "PERMANENTLY purge OCFL objects listed in a PIDs file",
	Long: `Purges OCFL objects from the storage root in OCFL_DIR with rocfl.

Reads PIDs from PIDS_FILE (or --pids_file), one per line. Objects that rocfl
cannot find are logged and skipped. DRY_RUN must be "true" or "false"; when true,
the purge command for each object is logged but not run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "purge"); shown {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		pcfg := cfg.Purge
		if purge_pidsFile != "" {
			pcfg.PIDsFile = purge_pidsFile
		}
		if purge_dryRun {
			pcfg.DryRun = "true"
		}
		if err := logger.Initialize(cfg.LogLevel, pcfg.LogFile); err != nil {
			return err
		}
		if err := config.Validate(&pcfg); err != nil {
			return err
		}
		if pcfg.PIDsFile == "" {
			return errors.New("no pids file: set PIDS_FILE or --pids_file")
		}

		logger.Info("Starting...")
		pids, err := modsfetch.ReadPIDs(pcfg.PIDsFile)
		if err != nil {
			return err
		}
		if len(pids) == 0 {
			return fmt.Errorf("no pids found in %s", pcfg.PIDsFile)
		}
		logger.Info("Read %d pids from %s", len(pids), pcfg.PIDsFile)

		if !purge_yes && !pcfg.IsDryRun() {
			if err := requireConfirmation("This will PERMANENTLY delete OCFL directories!",
				fmt.Sprintf("%d objects from %s. Do you want to continue?", len(pids), pcfg.OCFLDir)); err != nil {
				logger.Info("Exiting...")
				return err
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		store := ocflstore.NewStore(pcfg.RocflCmd, pcfg.OCFLDir)
		outcomes := ocflstore.NewPurger(store).Run(ctx, pids, pcfg.IsDryRun())
		logger.Info("...Done")
		return reportOutcomes(cmd.OutOrStdout(), outcomes)
	},
}

func init() {
	purgeOCFLCmd.Flags().StringVar(&purge_pidsFile, "pids_file", "", "file of PIDs to purge, one per line (overrides PIDS_FILE)")
	purgeOCFLCmd.Flags().BoolVar(&purge_dryRun, "dry_run", false, "log what would be purged without purging (overrides DRY_RUN)")
	purgeOCFLCmd.Flags().BoolVar(&purge_yes, "yes", false, "skip the confirmation prompt")
}

// reportOutcomes prints a per-status tally and fails if any id failed.
func reportOutcomes(w io.Writer, outcomes []ocflstore.Outcome) error {
	tally := ocflstore.Tally(outcomes)
	rows := [][]string{}
	for _, s := range []ocflstore.Status{ocflstore.StatusPurged, ocflstore.StatusDryRun, ocflstore.StatusMissing, ocflstore.StatusFailed} {
		if tally[s] > 0 {
			rows = append(rows, []string{string(s), fmt.Sprint(tally[s])})
		}
	}
	fmt.Fprintln(w, renderTable([]string{"Status", "Objects"}, rows, 1))
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.ID, o.Err))
		}
	}
	return errors.Join(errs...)
}
