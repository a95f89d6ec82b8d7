// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"stockwatch/internal/watchlist"
)

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage named watchlists",
		Long: `Watchlists are named symbol sets stored as JSON files. Tracker
commands scan the "default" list when no tickers are given.`,
	}

	cmd.AddCommand(newWatchlistListCmd(app))
	cmd.AddCommand(newWatchlistAddCmd(app))
	cmd.AddCommand(newWatchlistRemoveCmd(app))

	return cmd
}

func newWatchlistListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [name]",
		Short: "Show one watchlist, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if len(args) == 1 {
				list, err := app.Watchlists.Load(args[0])
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(list)
				}
				renderWatchlist(output, list)
				return nil
			}

			lists, err := app.Watchlists.All()
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(lists)
			}
			if len(lists) == 0 {
				output.Info("No watchlists saved yet; the default list serves the built-in symbols")
				return nil
			}
			table := NewTable(output, "NAME", "SYMBOLS", "UPDATED")
			for _, l := range lists {
				table.AddRow(l.Name, strings.Join(l.Symbols, " "), FormatDateTime(l.UpdatedAt.Local()))
			}
			table.Render()
			return nil
		},
	}
}

func newWatchlistAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol>...",
		Short: "Add symbols to a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			name, _ := cmd.Flags().GetString("name")

			list, err := app.Watchlists.Add(name, args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			output.Success("Added %d symbol(s) to %s", len(args), list.Name)
			renderWatchlist(output, list)
			return nil
		},
	}
	cmd.Flags().String("name", watchlist.DefaultName, "watchlist to modify")
	return cmd
}

func newWatchlistRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <symbol>...",
		Short: "Remove symbols from a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			name, _ := cmd.Flags().GetString("name")

			list, err := app.Watchlists.Remove(name, args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			output.Success("Removed %d symbol(s) from %s", len(args), list.Name)
			renderWatchlist(output, list)
			return nil
		},
	}
	cmd.Flags().String("name", watchlist.DefaultName, "watchlist to modify")
	return cmd
}

func renderWatchlist(o *Output, list watchlist.List) {
	o.Bold(list.Name)
	if len(list.Symbols) == 0 {
		o.Dim("  (empty)")
		return
	}
	o.Printf("  %s\n", strings.Join(list.Symbols, " "))
	if !list.UpdatedAt.IsZero() {
		o.Dim("  updated %s", FormatDateTime(list.UpdatedAt.Local()))
	}
}
