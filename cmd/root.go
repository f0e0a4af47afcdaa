package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

var checkEnvars bool

var RootCmd = &cobra.Command{
	Use:   "bdr-scripts",
	Short: "Brown Digital Repository maintenance scripts",
	Long: `Maintenance scripts for the Brown Digital Repository.

Queries the repository search API, downloads and validates MODS records,
runs tracked bulk MODS updates, and purges objects from OCFL storage.
Configuration is read from environment variables, optionally loaded from a .env file
in the working directory. Every command accepts --check_envars to print the
configuration it would use and exit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(config.Init)

	RootCmd.PersistentFlags().BoolVar(&checkEnvars, "check_envars", false, "display the resolved environment variables and exit")

	RootCmd.AddCommand(
		updateModsCmd,
		collectionsCmd,
		orgsCmd,
		gatherPathsCmd,
		partOfCmd,
		saveModsCmd,
		validateModsCmd,
		purgeOCFLCmd,
		deleteCmd,
		versionCmd,
	)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// showEnvars prints the configuration for the given key prefixes when --check_envars is set.
func showEnvars(cmd *cobra.Command, prefixes ...string) (bool, error) {
	if !checkEnvars {
		return false, nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return true, err
	}
	fmt.Fprint(cmd.OutOrStdout(), config.Display(cmd.Name(), prefixes...))
	return true, nil
}

// setup loads the configuration and starts the logger.
func setup(logFile string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.LogLevel, logFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// requireFlags prints usage to stderr and fails when any named flag is unset.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f == nil || !f.Changed || strings.TrimSpace(f.Value.String()) == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	cmd.SetOut(cmd.ErrOrStderr())
	_ = cmd.Usage()
	return fmt.Errorf("required flag(s) not set: %s", strings.Join(missing, ", "))
}

// requireDir checks that path exists and is a directory.
func requireDir(flag, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("--%s: %w", flag, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--%s: %s is not a directory", flag, path)
	}
	return nil
}

// splitList splits a comma-separated flag value, trimming entries and dropping
// blanks and duplicates while keeping the first-seen order.
func splitList(value string) []string {
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(value, ",") {
		item := strings.TrimSpace(part)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// writeLines writes one entry per line to path.
func writeLines(path string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return utils.WriteFileAtomic(path, []byte(b.String()), 0o644)
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
