// Command prizectl inspects the prize service wiring and replays prize
// scenarios against an in-memory module.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	prizeservice "prizeforge/contexts/prize-lifecycle/prize-service"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prizectl",
		Short:         "Operator tooling for the prize service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log module events to stderr")
	root.AddCommand(
		newSelectorsCmd(),
		newStrategiesCmd(),
		newSimulateCmd(),
		newTokenCmd(),
	)
	return root
}

func newSelectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selectors",
		Short: "List every operation selector and the facet that owns it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module := prizeservice.NewInMemoryModule(commandLogger(cmd))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SELECTOR\tFACET\tMUTATES\tSIGNATURE")
			for _, route := range module.Router.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", route.Selector, route.Facet, route.Mutates, route.Signature)
			}
			return w.Flush()
		},
	}
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered allocation strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID")
			for _, entry := range strategy.DefaultRegistry().Entries() {
				fmt.Fprintf(w, "%s\t%s\n", entry.Name, entry.ID)
			}
			return w.Flush()
		},
	}
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
