package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/disaster-triage/internal/artifact"
	"github.com/Veraticus/disaster-triage/internal/classifier"
	"github.com/Veraticus/disaster-triage/internal/cli"
	"github.com/Veraticus/disaster-triage/internal/common"
	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/Veraticus/disaster-triage/internal/evaluate"
	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/Veraticus/disaster-triage/internal/nlp"
	"github.com/spf13/cobra"
)

const trainUsage = `Please provide the filepath of the disaster messages database as the first argument and the filepath of the model file to save the model to as the second argument.

Example: triage train ../data/DisasterResponse.db classifier.gob`

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <database.db> <model.gob>",
		Short: "Train and evaluate the message classifier",
		Long: `Load the cleaned messages table, hold out a test split, grid-search a
bag-of-words, TF-IDF and random forest pipeline with cross-validation,
print a classification report per category and save the best model.`,
		RunE: runTrain,
	}

	addTrainFlags(cmd)
	cmd.Flags().Bool("no-progress", false, "Hide the training progress bar")

	return cmd
}

// addTrainFlags registers the flags that override train.* settings.
func addTrainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("test-size", 0, "Share of rows held out for evaluation (default from config: 0.2)")
	cmd.Flags().Int64("seed", 0, "Seed for the split and the forests (default from config: 42)")
	cmd.Flags().Int("cv-folds", 0, "Cross-validation folds (default from config: 5)")
	cmd.Flags().IntSlice("min-samples-split", nil, "Grid values for min_samples_split")
	cmd.Flags().IntSlice("n-estimators", nil, "Grid values for n_estimators")
	cmd.Flags().StringArray("ngram-range", nil, `Grid value for ngram_range, e.g. "1,2"; repeat the flag for more`)
}

// applyTrainFlags overrides settings with the flags the user set.
func applyTrainFlags(cmd *cobra.Command, settings *config.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("test-size") {
		settings.Train.TestSize, _ = flags.GetFloat64("test-size")
	}
	if flags.Changed("seed") {
		settings.Train.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("cv-folds") {
		settings.Train.CVFolds, _ = flags.GetInt("cv-folds")
	}
	if flags.Changed("min-samples-split") {
		settings.Train.Grid.MinSamplesSplit, _ = flags.GetIntSlice("min-samples-split")
	}
	if flags.Changed("n-estimators") {
		settings.Train.Grid.NEstimators, _ = flags.GetIntSlice("n-estimators")
	}
	if flags.Changed("ngram-range") {
		values, _ := flags.GetStringArray("ngram-range")
		ranges := make([][2]int, 0, len(values))
		for _, value := range values {
			r, err := classifier.ParseNGramRange(value)
			if err != nil {
				return common.NewUserError("invalid --ngram-range", err)
			}
			ranges = append(ranges, r)
		}
		settings.Train.Grid.NGramRanges = ranges
	}
	if err := settings.Validate(); err != nil {
		return common.NewUserError("invalid training options", err)
	}
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(cmd.OutOrStdout(), trainUsage)
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
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	common.LogInfo("Loading data...", common.Fields{"database": dbPath})
	train, test, err := loadSplit(cmd.Context(), dbPath, settings)
	if err != nil {
		return err
	}

	tokenizer, err := nlp.NewTokenizer()
	if err != nil {
		return err
	}

	common.LogInfo("Building model...", common.Fields{
		"grid_points": len(settings.Train.Grid.Combinations()),
		"folds":       settings.Train.CVFolds,
	})
	var (
		progress *cli.Progress
		fits     int
		total    int
	)
	search, err := classifier.BuildModel(settings.Train.Grid, tokenizer.Tokenize,
		classifier.WithFolds(settings.Train.CVFolds),
		classifier.WithSeed(settings.Train.Seed),
		classifier.WithProgress(func(classifier.Params) {
			fits++
			if progress == nil {
				return
			}
			progress.Step()
			// The last fit is the refit of the winning grid point.
			if fits == total-1 {
				progress.Describe("Refitting best model...")
			}
		}),
	)
	if err != nil {
		return common.NewUserError("invalid parameter grid", err)
	}

	common.LogInfo("Training model...", common.Fields{"rows": train.Len(), "categories": len(train.Categories)})
	total = search.TotalFits()
	if !noProgress {
		progress = cli.NewProgress(cmd.ErrOrStderr(), total, "Training model...")
	}
	if err := search.Fit(train.Texts, train.Labels, train.Categories); err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}
	if progress != nil {
		progress.Finish()
	}
	common.LogInfo("Selected parameters", common.Fields{"params": search.BestParams.String(), "cv_score": search.BestScore})
	common.LogDebug("Grid search results", common.Fields{"summary": search.Summary()})

	common.LogInfo("Evaluating model...", common.Fields{"rows": test.Len()})
	if _, err := evaluate.Evaluate(cmd.OutOrStdout(), search, test.Texts, test.Labels, test.Categories); err != nil {
		return fmt.Errorf("failed to evaluate model: %w", err)
	}

	common.LogInfo("Saving model...", common.Fields{"model": modelPath})
	a, err := artifact.New(search, settings.Train.TestSize, settings.Train.Seed)
	if err != nil {
		return err
	}
	if err := artifact.Save(modelPath, a); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Trained model saved!"))
	return nil
}

// loadSplit reads the stored dataset and splits it into train and test rows.
func loadSplit(ctx context.Context, dbPath string, settings *config.Settings) (train, test *model.Dataset, err error) {
	dataset, err := loadDataset(ctx, dbPath, settings)
	if err != nil {
		return nil, nil, err
	}

	trainIdx, testIdx, err := classifier.TrainTestSplit(dataset.Len(), settings.Train.TestSize, settings.Train.Seed)
	if err != nil {
		return nil, nil, common.NewUserError("not enough messages to split", err)
	}
	return dataset.Subset(trainIdx), dataset.Subset(testIdx), nil
}

func loadDataset(ctx context.Context, dbPath string, settings *config.Settings) (*model.Dataset, error) {
	store, err := initStorage(ctx, dbPath, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	dataset, err := store.LoadDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	if dataset.Len() == 0 {
		return nil, common.NewUserError("the messages table has no complete rows; run triage process first", common.ErrNoMessages)
	}
	return dataset, nil
}
