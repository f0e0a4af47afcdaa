package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/modsfetch"
	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

var (
	sm_outputDirPath string
	sm_pidsListPath  string
)

var saveModsCmd = &cobra.Command{
	Use:   "save-mods",
	Short: "Download the MODS for a list of PIDs into a directory",
	Long: `Downloads MODS files to the specified directory for the given PIDs.

Takes an output directory and a file of PIDs, one per line. Each record is saved
as <pid>__MODS.xml with ':' replaced by '_', and checked for well-formed XML.
Downloads run in parallel, bounded by SM__PROCESSES.`,
	Example: `  bdr-scripts save-mods --output_dir_path /path/to/output_dir --pids_list_path /path/to/bdr_pids.txt`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "save_mods"); shown {
			return err
		}
		if err := requireFlags(cmd, "output_dir_path", "pids_list_path"); err != nil {
			return err
		}
		if err := requireDir("output_dir_path", sm_outputDirPath); err != nil {
			return err
		}

		cfg, err := setup("")
		if err != nil {
			return err
		}
		if err := config.Validate(&cfg.SaveMods); err != nil {
			return err
		}

		pids, err := modsfetch.ReadPIDs(sm_pidsListPath)
		if err != nil {
			return err
		}
		logger.Info("%d pids to process", len(pids))

		ctx, cancel := signalContext()
		defer cancel()

		httpClient := utils.NewHTTPClient(cfg.Catalog.Timeout)
		defer httpClient.Close()

		results := modsfetch.NewDownloader(cfg.SaveMods, httpClient, sm_outputDirPath).Run(ctx, pids)
		failed := modsfetch.Failed(results)
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d of %d MODS records\n", len(results)-len(failed), len(results))
		if len(failed) > 0 {
			for _, r := range failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.PID, r.Err)
			}
			return fmt.Errorf("%d of %d pids failed; see WARN-level log output", len(failed), len(results))
		}
		return nil
	},
}

func init() {
	saveModsCmd.Flags().StringVar(&sm_outputDirPath, "output_dir_path", "", "directory to save the MODS files in")
	saveModsCmd.Flags().StringVar(&sm_pidsListPath, "pids_list_path", "", "file of BDR PIDs, one per line")
}
