package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/artifact"
	"github.com/Veraticus/disaster-triage/internal/cli"
	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/Veraticus/disaster-triage/internal/common"
	"github.com/Veraticus/disaster-triage/internal/evaluate"
	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/Veraticus/disaster-triage/internal/nlp"
	"github.com/spf13/cobra"
)

const evaluateUsage = `Please provide the filepath of the disaster messages database as the first argument and the filepath of a saved model as the second argument.

Example: triage evaluate ../data/DisasterResponse.db classifier.gob`

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <database.db> <model.gob>",
		Short: "Score a saved model against the messages table",
		Long: `Load a model saved by train and print a classification report per
category. By default the model is scored on the held-out split recorded
when it was trained; pass --all to score every stored message.`,
		RunE: runEvaluate,
	}

	addTrainFlags(cmd)
	cmd.Flags().Bool("all", false, "Evaluate on every stored message instead of the held-out split")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(cmd.OutOrStdout(), evaluateUsage)
		return nil
	}
	paths := config.ExpandPaths(args)
	dbPath, modelPath := paths[0], paths[1]

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := applyTrainFlags(cmd, settings); err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	tokenizer, err := nlp.NewTokenizer()
	if err != nil {
		return err
	}

	common.LogInfo("Loading model...", common.Fields{"model": modelPath})
	a, err := artifact.Load(modelPath, tokenizer.Tokenize)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Model "+a.RunID.String(), describeArtifact(a, modelPath)))

	common.LogInfo("Loading data...", common.Fields{"database": dbPath})
	var data *model.Dataset
	if all {
		data, err = loadDataset(cmd.Context(), dbPath, settings)
	} else {
		useTrainingSplit(cmd, a, settings)
		_, data, err = loadSplit(cmd.Context(), dbPath, settings)
	}
	if err != nil {
		return err
	}
	if !equalCategories(a.Categories, data.Categories) {
		return common.NewUserError("model categories do not match the messages table", artifact.ErrCategoryMismatch)
	}

	common.LogInfo("Evaluating model...", common.Fields{"rows": data.Len()})
	if _, err := evaluate.Evaluate(cmd.OutOrStdout(), a, data.Texts, data.Labels, data.Categories); err != nil {
		return fmt.Errorf("failed to evaluate model: %w", err)
	}

	scope := fmt.Sprintf("Scored %d held-out messages (test size %g, seed %d)",
		data.Len(), settings.Train.TestSize, settings.Train.Seed)
	if all {
		scope = fmt.Sprintf("Scored all %d stored messages", data.Len())
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSubtle(scope))
	return nil
}

// useTrainingSplit points settings at the split recorded in a. A --test-size
// or --seed flag still wins, with a warning when it differs from training.
func useTrainingSplit(cmd *cobra.Command, a *artifact.Artifact, settings *config.Settings) {
	flags := cmd.Flags()
	if !flags.Changed("test-size") {
		settings.Train.TestSize = a.TestSize
	} else if settings.Train.TestSize != a.TestSize {
		slog.Warn("Test size differs from training; held-out rows may include training rows",
			"trained", a.TestSize, "requested", settings.Train.TestSize)
	}
	if !flags.Changed("seed") {
		settings.Train.Seed = a.Seed
	} else if settings.Train.Seed != a.Seed {
		slog.Warn("Seed differs from training; held-out rows may include training rows",
			"trained", a.Seed, "requested", settings.Train.Seed)
	}
}

func describeArtifact(a *artifact.Artifact, path string) string {
	lines := []string{
		fmt.Sprintf("File:       %s", cli.FormatSubtle(path)),
		fmt.Sprintf("Trained:    %s", a.CreatedAt.Format("2006-01-02 15:04:05 MST")),
		fmt.Sprintf("Parameters: %s", a.BestParams),
		fmt.Sprintf("CV score:   %.4f", a.BestScore),
		fmt.Sprintf("Split:      test size %g, seed %d", a.TestSize, a.Seed),
		fmt.Sprintf("Categories: %d", len(a.Categories)),
	}
	return strings.Join(lines, "\n")
}

func equalCategories(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
