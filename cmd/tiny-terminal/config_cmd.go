package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/tiny-terminal/config"
)

func newConfigCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}
	cmd.AddCommand(newConfigShowCmd(f), newConfigInitCmd())
	return cmd
}

// newConfigShowCmd prints the configuration the effect would run with
func newConfigShowCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := setupLogging(f.debug)
			if err != nil {
				return err
			}
			defer closeLog()

			res := config.Load(f.configPath, config.WithLogger(logger))
			data, err := res.Config.MarshalTOML()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Path == "" {
				fmt.Fprintf(out, "# source: %s\n", res.Source)
			} else {
				fmt.Fprintf(out, "# source: %s %s\n", res.Source, res.Path)
			}
			for _, s := range res.Skipped {
				if s.Path != "" {
					fmt.Fprintf(out, "# skipped %s %s: %v\n", s.Source, s.Path, s.Err)
				}
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration (default: the user config file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.UserPath()
				if err != nil {
					return err
				}
				path = p
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return usageErrorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
