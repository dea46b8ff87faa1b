package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/cli"
	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/spf13/cobra"
)

const runsUsage = `Please provide the filepath of the disaster messages database as the only argument.

Example: triage runs DisasterResponse.db`

func runsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs <database.db>",
		Short: "List the recorded ETL runs",
		RunE:  runRuns,
	}
}

func runRuns(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(cmd.OutOrStdout(), runsUsage)
		return nil
	}
	dbPath := config.ExpandPaths(args)[0]

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, dbPath, settings)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No ETL runs recorded"))
		return nil
	}

	for _, run := range runs {
		lines := []string{
			fmt.Sprintf("Date:       %s", run.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			fmt.Sprintf("Messages:   %s", cli.FormatSubtle(run.MessagesPath)),
			fmt.Sprintf("Categories: %s", cli.FormatSubtle(run.CategoriesPath)),
			fmt.Sprintf("Rows:       %d merged, %d kept, %d duplicates", run.MergedRows, run.CleanRows, run.DuplicateRows),
			fmt.Sprintf("Labels:     %d categories", run.CategoryCount),
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Run "+run.ID, strings.Join(lines, "\n")))
	}
	return nil
}
