package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finsheets/internal/cli"
	"finsheets/internal/config"
	applog "finsheets/internal/log"
	"finsheets/internal/storage"
)

// bootstrap loads .env and configuration, then wires a runtime.
func bootstrap(ctx context.Context) (*cli.Runtime, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	return cli.NewRuntime(ctx, cfg, cli.SetupLogger(cfg.LogLevel))
}

func newDownloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <plan>",
		Short: "Merge the spreadsheets of a download plan into one local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			plan, err := rt.Config.Plans.Download(args[0])
			if err != nil {
				return err
			}
			if output != "" {
				plan.Output = output
			}

			res, err := rt.DownloadService().Run(ctx, plan)
			if err != nil {
				rt.Logger.ErrorContext(ctx, "Download failed", applog.FieldPlan, plan.Name, applog.FieldError, err)
				return err
			}
			if res.Output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No data loaded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Combined data shape: (%d, %d)\nData saved to %s\n",
				res.Summary.Rows, res.Summary.Columns, res.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "override the plan's output file (.csv or .xlsx)")
	return cmd
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <plan>",
		Short: "Write the local files of an upload plan into their target sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			plan, err := rt.Config.Plans.Upload(args[0])
			if err != nil {
				return err
			}

			res, err := rt.UploadService().Run(ctx, plan)
			for _, u := range res.Uploaded {
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to spreadsheet '%s' sheet '%s' as %s (%d rows)\n",
					u.SpreadsheetTitle, u.SheetName, u.Principal, u.Rows-1)
			}
			if err != nil {
				rt.Logger.ErrorContext(ctx, "Upload failed", applog.FieldPlan, plan.Name, applog.FieldError, err)
				return err
			}
			return nil
		},
	}
}

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the plans of the configured plans file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tDETAIL")
			for _, d := range cfg.Plans.Downloads {
				src := "folder " + d.FolderID
				if d.FolderID == "" {
					src = fmt.Sprintf("%d titles", len(d.Sheets))
				}
				fmt.Fprintf(w, "download\t%s\t%s, %s -> %s\n", d.Name, d.Mode, src, d.Output)
			}
			for _, u := range cfg.Plans.Uploads {
				fmt.Fprintf(w, "upload\t%s\t%d items -> %s\n", u.Name, len(u.Items), u.SpreadsheetID)
			}
			return w.Flush()
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent runs from the run journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SQLiteDBPath == "" {
				return fmt.Errorf("run journal disabled: set SQLITE_DB_PATH")
			}

			journal, err := storage.NewSQLiteJournal(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer journal.Close()

			runs, err := journal.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tKIND\tPLAN\tLOADED\tSKIPPED\tFAILED\tROWS\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, r.Plan, r.Loaded, r.Skipped, r.Failed, r.RowCount, r.Error)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
