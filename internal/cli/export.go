// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/errors"
	"stockwatch/internal/export"
	"stockwatch/internal/models"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export snapshots, alerts or price history to CSV/JSON",
		Long: `Export writes the cached snapshot set of a tracker, the alert log,
or archived daily bars to a file. Files land in the configured export
directory unless --output names a path.`,
	}

	cmd.AddCommand(newExportAlertsCmd(app))
	cmd.AddCommand(newExportSnapshotsCmd(app))
	cmd.AddCommand(newExportBarsCmd(app))

	return cmd
}

func exportFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "csv", "output format (csv or json)")
	cmd.Flags().String("output", "", "output file path")
}

func exportWriter(app *App) *export.Writer {
	return export.NewWriter(app.Config.Storage.ExportDir, app.Logger)
}

func newExportAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Export the alert log",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			format, path, err := exportArgs(cmd)
			if err != nil {
				return err
			}

			alerts, err := app.Alerts.All()
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				return errors.Wrap(errors.ErrNoData, "alert log is empty")
			}

			written, err := exportWriter(app).Alerts(alerts, format, path)
			if err != nil {
				return err
			}
			return reportExport(output, written, len(alerts))
		},
	}
	exportFlags(cmd)
	return cmd
}

func newExportSnapshotsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Export a tracker's cached snapshot set",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			format, path, err := exportArgs(cmd)
			if err != nil {
				return err
			}
			tracker, _ := cmd.Flags().GetString("tracker")

			var written string
			var count int
			switch tracker {
			case "dividends":
				written, count, err = exportSnapshots[models.DividendSnapshot](app, tracker, format, path)
			case "earnings":
				written, count, err = exportSnapshots[models.EarningsSnapshot](app, tracker, format, path)
			case "options":
				written, count, err = exportSnapshots[models.OptionsSnapshot](app, tracker, format, path)
			case "correlation":
				written, count, err = exportSnapshots[models.CorrelationSnapshot](app, tracker, format, path)
			case "insider":
				written, count, err = exportSnapshots[models.InsiderSnapshot](app, tracker, format, path)
			case "rates":
				written, count, err = exportSnapshots[models.RatesSnapshot](app, tracker, format, path)
			default:
				return fmt.Errorf("unknown tracker %q", tracker)
			}
			if err != nil {
				return err
			}
			return reportExport(output, written, count)
		},
	}
	exportFlags(cmd)
	cmd.Flags().String("tracker", "dividends", "tracker whose snapshots to export")
	return cmd
}

func newExportBarsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bars <symbol>",
		Short: "Export archived daily bars for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			format, path, err := exportArgs(cmd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")

			bars, err := app.priceHistory(cmd.Context(), args[0], days, time.Now().UTC())
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				return errors.Wrapf(errors.ErrNoData, "no bars for %s", args[0])
			}

			written, err := exportWriter(app).Bars(args[0], bars, format, path)
			if err != nil {
				return err
			}
			return reportExport(output, written, len(bars))
		},
	}
	exportFlags(cmd)
	cmd.Flags().Int("days", 180, "trailing days of history")
	return cmd
}

func exportArgs(cmd *cobra.Command) (export.Format, string, error) {
	formatArg, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatArg)
	if err != nil {
		return "", "", err
	}
	path, _ := cmd.Flags().GetString("output")
	return format, path, nil
}

func exportSnapshots[S any](app *App, tracker string, format export.Format, path string) (string, int, error) {
	file, err := trackerCache[S](app, tracker).Load()
	if err != nil {
		return "", 0, err
	}
	if len(file.Entries) == 0 {
		return "", 0, errors.Wrapf(errors.ErrNoData, "no cached %s snapshots", tracker)
	}
	written, err := export.Snapshots(exportWriter(app), tracker, file.Entries, format, path)
	return written, len(file.Entries), err
}

func reportExport(output *Output, path string, count int) error {
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{"path": path, "rows": count})
	}
	output.Success("Exported %d row(s) to %s", count, path)
	return nil
}
