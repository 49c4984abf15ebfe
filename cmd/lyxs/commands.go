package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"lyxs/internal/bindings"
	"lyxs/internal/errors"
	"lyxs/internal/launcher"

	"github.com/spf13/cobra"
)

// queryCmd prints the results the launcher shows for a query
func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [text...]",
		Short: "Search bindings by name",
		Long: `Print the bindings the launcher shows for the given text. Text shorter than
query.min_length lists the most used bindings instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			items := session.HandleQuery(launcher.NewQuery(a.cfg.Query.Trigger, text))
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bindings found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\n", it.Text, it.Subtext)
			}
			return tw.Flush()
		},
	}
}

// selectCmd records a selection the way picking it in the launcher does
func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <name> [shortcut]",
		Short: "Record a binding as selected and copy it",
		Long: `Record that a binding was picked, copy its name to the clipboard and save
the usage statistics. Without a shortcut it is looked up in the bind files.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}

			name := args[0]
			var shortcut string
			if len(args) == 2 {
				shortcut = args[1]
			} else if shortcut, err = lookupShortcut(session, name); err != nil {
				return err
			}

			if err := session.Select(name, shortcut); err != nil {
				if errors.IsInvalidInputError(err) {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			if err := session.Finalize(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: usage statistics not saved: %v\n", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (%s), used %d times\n",
				name, shortcut, session.Tracker().Count(name))
			return nil
		},
	}
}

// lookupShortcut finds the shortcut of name in the corpus, falling back to
// the one recorded with earlier selections.
func lookupShortcut(session *launcher.Session, name string) (string, error) {
	for _, b := range session.Corpus().Search(name, session.Corpus().Len()) {
		if b.Name == name {
			return b.Shortcut, nil
		}
	}
	if shortcut, ok := session.Tracker().Shortcut(name); ok {
		return shortcut, nil
	}
	return "", errors.NewInvalidInputError("unknown binding, pass its shortcut as well", errors.ErrInvalidInput).
		WithContext("name", name)
}

// topCmd lists the most used bindings
func (a *app) topCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the most used bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("number") {
				n = a.cfg.Query.Limit
			}
			entries := session.Tracker().Top(n)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bindings selected yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Count, e.Name, e.Shortcut)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 0, "number of bindings to list (default is query.limit)")

	return cmd
}

// statsCmd dumps the usage statistics
func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot: %s\n", a.cfg.SnapshotPath())
			fmt.Fprintln(cmd.OutOrStdout(), session.Tracker().String())
			return nil
		},
	}
}

// corpusCmd shows where bindings come from
func (a *app) corpusCmd() *cobra.Command {
	var printLines bool

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Show the bind files and the bindings read from them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			files := session.Loader().Files()
			fmt.Fprintf(out, "%d bindings from %d files\n", session.Corpus().Len(), len(files))
			for _, f := range files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			if path := a.cfg.CorpusPath(); path != "" {
				fmt.Fprintf(out, "Cache: %s\n", path)
			}

			if printLines {
				fmt.Fprintln(out)
				printBindings(cmd, session.Corpus())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&printLines, "lines", "l", false, "print every binding declaration")

	return cmd
}

func printBindings(cmd *cobra.Command, corpus *bindings.Corpus) {
	for _, line := range corpus.Lines() {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
