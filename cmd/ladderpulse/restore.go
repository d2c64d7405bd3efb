package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/loader"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

type restoreOptions struct {
	layout  string
	url     string
	api     string
	title   string
	timeout time.Duration
	then    []string
}

func restoreCmd() *cobra.Command {
	var opts restoreOptions

	cmd := &cobra.Command{
		Use:   "restore <url>",
		Short: "Dry-run a restoration against a layout",
		Long: `Restore a "?query#anchor" URL against an in-memory copy of a layout and
print the resulting page state and history.

Follow-up actions run in order after the restoration:
  tab:<id>        select a tab
  modal:<id>      show a modal
  hide            hide the active modal
  navigate:<url>  navigate to a new state
  back, forward   move through history

Examples:
  ladderpulse restore '?type=character&id=42#player-stats-mmr' --layout layout.yaml
  ladderpulse restore '#stats' --then tab:stats-league --then back`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.url = args[0]
			return runRestore(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "layout.yaml", "YAML layout file")
	cmd.Flags().StringVar(&opts.api, "api", "", "Data API base URL; loads are skipped when empty")
	cmd.Flags().StringVar(&opts.title, "title", "", "Default page title")
	cmd.Flags().DurationVar(&opts.timeout, "settle-timeout", time.Second, "Bound on each transition wait")
	cmd.Flags().StringArrayVar(&opts.then, "then", nil, "Follow-up action (repeatable)")

	return cmd
}

func runRestore(ctx context.Context, w io.Writer, opts restoreOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := os.Open(opts.layout)
	if err != nil {
		return errors.New("N140").WithDetail("Cannot open " + opts.layout).Wrap(err)
	}
	root, err := view.ParseLayout(f)
	f.Close()
	if err != nil {
		return errors.New("N140").Wrap(err)
	}
	tree, err := view.NewTree(root)
	if err != nil {
		return errors.New("N140").Wrap(err)
	}
	tree.SetLocation(opts.url)

	navOpts := []nav.Option{
		nav.WithSettleTimeout(opts.timeout),
		nav.WithDefaultTitle(opts.title),
	}
	if opts.api != "" {
		navOpts = append(navOpts, nav.WithLoader(loader.New(opts.api,
			loader.WithSink(loader.SinkFunc(func(_ context.Context, r loader.Result) {
				fmt.Fprintf(w, "loaded %s (%d bytes)\n", r.Resource, len(r.Body))
			})),
		)))
	}
	engine := nav.New(tree, navOpts...)

	report := func(label string, err error) {
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", label, err)
		}
	}

	report("restore", <-engine.Start(ctx))
	for _, step := range opts.then {
		report(step, runStep(ctx, engine, tree, step))
	}

	printTree(w, tree)
	return nil
}

func runStep(ctx context.Context, engine *nav.Engine, tree *view.Tree, step string) error {
	op, arg, _ := strings.Cut(step, ":")
	switch op {
	case "tab":
		return engine.SelectTab(ctx, arg)
	case "modal":
		return engine.ShowModal(ctx, arg)
	case "hide":
		return engine.HideModal(ctx)
	case "navigate":
		st, err := navstate.Parse(arg)
		if err != nil {
			return err
		}
		return <-engine.Navigate(ctx, st)
	case "back", "forward":
		move := tree.Back
		if op == "forward" {
			move = tree.Forward
		}
		entry, ok := move()
		if !ok {
			return fmt.Errorf("no %s entry", op)
		}
		return <-engine.PopState(ctx, entry.URL)
	}
	return errors.New("N002").WithDetailf("unknown step %q", step)
}

func printTree(w io.Writer, tree *view.Tree) {
	fmt.Fprintf(w, "Title:       %s\n", tree.Title())
	fmt.Fprintf(w, "Description: %s\n", tree.Description())
	fmt.Fprintf(w, "URL:         %s\n", tree.Location())

	var active []string
	for _, tab := range tree.ActiveTabs("") {
		if tree.Visible(tab.Target) {
			active = append(active, tab.Target)
		}
	}
	fmt.Fprintf(w, "Active tabs: %s\n", strings.Join(active, ", "))
	fmt.Fprintf(w, "Modals:      %s\n", strings.Join(tree.ShownModals(), ", "))
	if scrolled := tree.ScrolledTo(); len(scrolled) > 0 {
		fmt.Fprintf(w, "Scrolled to: %s\n", strings.Join(scrolled, ", "))
	}

	entries, pos := tree.Entries()
	fmt.Fprintln(w, "History:")
	for i, e := range entries {
		marker := " "
		if i == pos {
			marker = ">"
		}
		fmt.Fprintf(w, "  %s %d %-40s %s\n", marker, i, e.URL, e.Title)
	}

	for _, err := range tree.Errors() {
		fmt.Fprintf(w, "Error:       %v\n", err)
	}
	if n := tree.ReauthCount(); n > 0 {
		fmt.Fprintf(w, "Re-authentication requested %d time(s)\n", n)
	}
}
