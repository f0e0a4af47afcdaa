package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/internal/reconcile"
	"github.com/brown-library/bdr-scripts/internal/scanner"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

var (
	gp_modsDir    string
	gp_orgList    string
	gp_outputPath string
)

var gatherPathsCmd = &cobra.Command{
	Use:   "gather-paths",
	Short: "Map MODS identifiers to their file paths, and optionally to catalog PIDs",
	Long: `Recursively finds *mods.xml files under --mods_dir and maps each identifier
(e.g. HH123456 for an org, HH123456_0001 for an item) to its path.

With --org_list, only that org's files are gathered and each identifier is matched
to its PID from the repository search API; identifiers with no PID are reported.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if shown, err := showEnvars(cmd, "log_level", "catalog"); shown {
			return err
		}
		if err := requireFlags(cmd, "mods_dir"); err != nil {
			return err
		}
		if err := requireDir("mods_dir", gp_modsDir); err != nil {
			return err
		}
		orgs := splitList(gp_orgList)
		for _, org := range orgs {
			if err := scanner.ValidateOrgID(org); err != nil {
				return err
			}
		}
		cfg, err := setup("")
		if err != nil {
			return err
		}

		report := map[string]reconcile.ReportEntry{}
		var missing []string
		if len(orgs) == 0 {
			paths, err := scanner.ScanAll(gp_modsDir)
			if err != nil {
				return err
			}
			for _, id := range paths.IDs() {
				report[id] = reconcile.ReportEntry{Path: paths.Paths[id]}
			}
		} else {
			ctx, cancel := signalContext()
			defer cancel()
			client := catalog.NewClient(cfg.Catalog)
			defer client.Close()

			for _, org := range orgs {
				paths, err := scanner.Scan(gp_modsDir, org)
				if err != nil {
					return err
				}
				docs, err := client.OrgDocs(ctx, org)
				if err != nil {
					return err
				}
				wl := reconcile.Merge(paths, docs)
				for id, entry := range wl.Report() {
					report[id] = entry
				}
				missing = append(missing, wl.MissingPIDs...)
			}
		}
		logger.Info("Gathered %d MODS paths", len(report))

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if gp_outputPath == "" {
			_, err = cmd.OutOrStdout().Write(data)
		} else {
			err = utils.WriteFileAtomic(gp_outputPath, data, 0o644)
		}
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d identifiers have no PID: %v\n", len(missing), missing)
		}
		return nil
	},
}

func init() {
	gatherPathsCmd.Flags().StringVar(&gp_modsDir, "mods_dir", "", "directory to search for *mods.xml files")
	gatherPathsCmd.Flags().StringVar(&gp_orgList, "org_list", "", "only gather these orgs and look up their PIDs")
	gatherPathsCmd.Flags().StringVar(&gp_outputPath, "output_path", "", "write the JSON map to this file instead of stdout")
}
