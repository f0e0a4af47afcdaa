package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

var (
	orgs_outputPath string
	orgs_mapPath    string
)

type orgEntry struct {
	PID   string `json:"pid"`
	Title string `json:"title"`
}

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List the top-level org records of the collection",
	Long: `Lists the org records of the collection: members of the collection that are
not part of another record. Identifiers are printed sorted, one per line, and can
be written to --output_path for use as an update-mods org list.
--map_path writes a JSON map of identifier to pid and title.`,
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

		docs, err := client.TopLevelOrgs(ctx, cfg.Catalog.CollectionPID)
		if err != nil {
			return err
		}

		orgs := make(map[string]orgEntry, len(docs))
		for _, d := range docs {
			id := d.ID()
			if id == "" {
				logger.Warn("Record %s has no identifier; skipping", d.PID)
				continue
			}
			orgs[id] = orgEntry{PID: d.PID, Title: d.PrimaryTitle}
		}
		ids := sortedKeys(orgs)

		if orgs_outputPath != "" {
			if err := writeLines(orgs_outputPath, ids); err != nil {
				return err
			}
			logger.Info("Wrote %d orgs to %s", len(ids), orgs_outputPath)
		}
		if orgs_mapPath != "" {
			data, err := json.MarshalIndent(orgs, "", "  ")
			if err != nil {
				return err
			}
			if err := utils.WriteFileAtomic(orgs_mapPath, append(data, '\n'), 0o644); err != nil {
				return err
			}
			logger.Info("Wrote org map to %s", orgs_mapPath)
		}
		if orgs_outputPath == "" && orgs_mapPath == "" {
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		}
		return nil
	},
}

func init() {
	orgsCmd.Flags().StringVar(&orgs_outputPath, "output_path", "", "write sorted org identifiers to this file, one per line")
	orgsCmd.Flags().StringVar(&orgs_mapPath, "map_path", "", "write a JSON map of identifier to pid and title to this file")
}
