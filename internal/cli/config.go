package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			out, err := a.config.Config().YAML()
			if err != nil {
				return err
			}
			if f := a.config.ConfigFileUsed(); f != "" {
				fmt.Fprintf(a.stdout, "# loaded from %s\n", f)
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List the config file locations searched",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			for _, p := range config.SearchPaths() {
				state := "missing"
				if _, err := os.Stat(p); err == nil {
					state = "found"
				}
				fmt.Fprintf(a.stdout, "%-8s %s\n", state, p)
			}
			return nil
		},
	})
	return cmd
}
