package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"lyxs/internal/launcher"
	"lyxs/internal/log"
	"lyxs/internal/tui"
	"lyxs/internal/tui/messages"
	"lyxs/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// tuiCmd represents the TUI command
func (a *app) tuiCmd() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive launcher",
		Long: `Start the interactive launcher. Type part of a binding name, move with the
arrow keys and press Enter to copy the binding and count the selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("watch") {
				watchFiles = a.cfg.WatchMode.Enabled
			}
			return a.runTUI(cmd, watchFiles)
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "reload bindings when bind files change")

	return cmd
}

func (a *app) runTUI(cmd *cobra.Command, watchFiles bool) error {
	if err := a.pluginDirReady(); err != nil {
		return err
	}
	// Anything written to the terminal would corrupt the screen.
	if path := a.cfg.LogPath(); path != "" {
		log.Configure(log.WithFileOnly(path))
	} else {
		log.Configure(log.WithOutput(io.Discard))
	}

	session, err := a.openSession()
	if err != nil {
		return err
	}

	model := tui.New(session)
	p := tea.NewProgram(model, tea.WithOutput(cmd.OutOrStdout()))

	if watchFiles {
		stop, err := startReloader(session, p)
		if err != nil {
			log.LogWithError(err).Warn("Watching bind files failed, continuing without reload")
		} else {
			defer stop()
		}
	}

	_, runErr := p.Run()

	if err := session.Finalize(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: usage statistics not saved: %v\n", err)
	}
	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}

	if item, ok := model.Selected(); ok {
		if err := model.Err(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", item.Text, item.Subtext)
	}
	return nil
}

// startReloader watches the binding directories and rebuilds the corpus of
// session while p runs.
func startReloader(session *launcher.Session, p *tea.Program) (func(), error) {
	loader := session.Loader()
	w, err := watch.Open(loader.Dirs(), loader.Matches)
	if err != nil {
		return nil, err
	}

	debounce := time.Duration(session.Config().WatchMode.Debounce) * time.Millisecond
	reloader := watch.NewReloader(w.Changes(), session, debounce)
	reloader.OnReload(func(err error) {
		p.Send(messages.ReloadedMsg{Err: err})
	})

	ctx, cancel := context.WithCancel(context.Background())
	go reloader.Run(ctx)

	return func() {
		cancel()
		w.Stop()
	}, nil
}
