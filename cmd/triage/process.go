package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/disaster-triage/internal/cli"
	"github.com/Veraticus/disaster-triage/internal/common"
	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/Veraticus/disaster-triage/internal/etl"
	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const processUsage = `Please provide the filepaths of the messages and categories datasets as the first and second argument respectively, as well as the filepath of the database to save the cleaned data to as the third argument.

Example: triage process disaster_messages.csv disaster_categories.csv DisasterResponse.db`

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <messages.csv> <categories.csv> <database.db>",
		Short: "Merge, clean and store the raw message and category files",
		Long: `Read the messages and categories CSV files, join them on id, expand the
combined categories column into one binary column per category, drop
duplicate rows and replace the messages table in the SQLite database.`,
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(cmd.OutOrStdout(), processUsage)
		return nil
	}
	paths := config.ExpandPaths(args)
	messagesPath, categoriesPath, dbPath := paths[0], paths[1], paths[2]

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	common.LogInfo("Loading data...", common.Fields{"messages": messagesPath, "categories": categoriesPath})
	records, err := etl.Load(messagesPath, categoriesPath)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	common.LogInfo("Cleaning data...", common.Fields{"rows": len(records)})
	table, err := etl.Clean(records)
	if err != nil {
		return fmt.Errorf("failed to clean data: %w", err)
	}

	common.LogInfo("Saving data...", common.Fields{"database": dbPath, "table": settings.Store.Table})
	ctx := cmd.Context()
	store, err := initStorage(ctx, dbPath, settings)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.ReplaceMessages(ctx, table); err != nil {
		return fmt.Errorf("failed to save data: %w", err)
	}

	run := &model.Run{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		MessagesPath:   messagesPath,
		CategoriesPath: categoriesPath,
		MergedRows:     len(records),
		CleanRows:      len(table.Rows),
		DuplicateRows:  len(records) - len(table.Rows),
		CategoryCount:  len(table.Categories),
	}
	if err := store.RecordRun(ctx, run); err != nil {
		return err
	}

	common.LogDebug("Recorded ETL run", common.Fields{"run_id": run.ID, "duplicates": run.DuplicateRows})
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cleaned data saved to database!"))
	return nil
}
