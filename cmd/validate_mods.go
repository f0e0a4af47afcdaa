package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/internal/modsxml"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

var (
	vm_modsPath string
	vm_schema   string
)

var validateModsCmd = &cobra.Command{
	Use:   "validate-mods [more MODS files...]",
	Short: "Validate MODS XML files against their embedded schema",
	Long: `Validates a MODS XML file against the schema named in its xsi:schemaLocation.
The schema is fetched when it is an http(s) URL and read from disk otherwise;
--schema overrides it. Extra arguments are validated as further MODS files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shown, err := showEnvars(cmd, "log_level", "catalog.timeout"); shown {
			return err
		}
		if err := requireFlags(cmd, "mods_path"); err != nil {
			return err
		}
		cfg, err := setup("")
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		httpClient := utils.NewHTTPClient(cfg.Catalog.Timeout)
		defer httpClient.Close()
		v := modsxml.NewValidator(httpClient, vm_schema)

		out := cmd.OutOrStdout()
		invalid := 0
		for _, path := range append([]string{vm_modsPath}, args...) {
			res, err := v.Validate(ctx, path)
			if err != nil {
				return err
			}
			if res.Valid {
				fmt.Fprintf(out, "%s: the XML is valid according to the schema.\n", path)
				continue
			}
			invalid++
			fmt.Fprintf(out, "%s: the XML is invalid.\n", path)
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d file(s) failed validation", invalid)
		}
		return nil
	},
}

func init() {
	validateModsCmd.Flags().StringVar(&vm_modsPath, "mods_path", "", "path to the MODS XML file to validate")
	validateModsCmd.Flags().StringVar(&vm_schema, "schema", "", "schema path or URL to use instead of the file's xsi:schemaLocation")
}
