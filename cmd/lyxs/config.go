package main

import (
	"fmt"
	"os"

	"lyxs/internal/config"
	"lyxs/internal/errors"

	"github.com/spf13/cobra"
)

// configCmd groups configuration commands
func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(a.configInitCmd())
	cmd.AddCommand(a.configShowCmd())
	return cmd
}

func (a *app) configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewConfigError("config file already exists, use --force to overwrite", path, errors.InvalidConfig, nil)
			}
			if err := config.SaveConfig(config.New(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := a.configPath()
			if err == nil {
				fmt.Fprintf(out, "Config:   %s\n", path)
			}
			fmt.Fprintf(out, "Bindings: %v (%s)\n", a.cfg.BindingDirs(), a.cfg.Bindings.Pattern)
			fmt.Fprintf(out, "Snapshot: %s\n", a.cfg.SnapshotPath())
			if p := a.cfg.CorpusPath(); p != "" {
				fmt.Fprintf(out, "Cache:    %s\n", p)
			}
			if p := a.cfg.LogPath(); p != "" {
				fmt.Fprintf(out, "Log:      %s\n", p)
			}
			fmt.Fprintf(out, "Query:    trigger %q, min length %d, limit %d\n",
				a.cfg.Query.Trigger, a.cfg.Query.MinLength, a.cfg.Query.Limit)
			return nil
		},
	}
}
