package main

import (
	"fmt"
	"os"

	"lyxs/internal/config"
	"lyxs/internal/launcher"
	"lyxs/internal/log"

	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfgFile string
	debug   bool
	cfg     *config.Config

	// clipboard overrides the configured clipboard; set by tests.
	clipboard launcher.Clipboard
}

// NewRootCmd creates the root command. Without a subcommand it starts the
// terminal launcher.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "lyxs",
		Short: "Search LyX keyboard shortcuts and keep the ones you use at hand",
		Long: `lyxs indexes the LyX bind files on this machine and finds shortcuts by
name. Every binding you pick is counted, and a short query shows the
bindings you use most.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, a.cfg.WatchMode.Enabled)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Shutdown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/lyxs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(a.tuiCmd())
	rootCmd.AddCommand(a.queryCmd())
	rootCmd.AddCommand(a.selectCmd())
	rootCmd.AddCommand(a.topCmd())
	rootCmd.AddCommand(a.statsCmd())
	rootCmd.AddCommand(a.corpusCmd())
	rootCmd.AddCommand(a.configCmd())

	return rootCmd
}

// loadConfig reads the configuration and sets up logging. A configuration
// that cannot be used is reported and replaced by the defaults.
func (a *app) loadConfig(cmd *cobra.Command) error {
	log.SetDebug(a.debug)
	level := "warn"
	if a.debug {
		level = "debug"
	}
	log.Configure(log.WithOutput(cmd.ErrOrStderr()), log.WithLevel(level))

	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Using default settings. Run 'lyxs config init --force' to reset the file.")
		a.cfg = config.New()
	}
	return nil
}

// configPath returns the file the configuration is read from.
func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	return config.DefaultPath()
}

// openSession creates and initializes a launcher session.
func (a *app) openSession() (*launcher.Session, error) {
	var opts []launcher.Option
	if a.clipboard != nil {
		opts = append(opts, launcher.WithClipboard(a.clipboard))
	}
	session, err := launcher.NewSession(a.cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := session.Initialize(); err != nil {
		return nil, err
	}
	return session, nil
}

// pluginDirReady creates the plugin directory so the log file can be opened
// before the session initializes.
func (a *app) pluginDirReady() error {
	return os.MkdirAll(a.cfg.PluginDir(), 0755)
}
