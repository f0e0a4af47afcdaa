package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Display renders the resolved environment for the given config key prefixes,
// in the form printed by --check_envars.
func Display(title string, prefixes ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nEnvars:\n\nFor `%s`...\n", title)
	for _, bd := range bindings {
		if !hasPrefix(bd.key, prefixes) {
			continue
		}
		fmt.Fprintf(&b, "- %s, ``%s``\n", strings.Join(bd.envs, " | "), viper.GetString(bd.key))
	}
	b.WriteString("\n(end)\n")
	return b.String()
}

func hasPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if key == p || strings.HasPrefix(key, p+".") {
			return true
		}
	}
	return false
}
