package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/disaster-triage/internal/artifact"
	"github.com/Veraticus/disaster-triage/internal/common"
	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/Veraticus/disaster-triage/internal/storage"
	"github.com/Veraticus/disaster-triage/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeInputs writes the corpus CSV files plus one exact duplicate message row.
func writeInputs(t *testing.T, dir string, corpus testutil.Corpus) (string, string) {
	t.Helper()
	messages, categories := corpus.CSV()
	first := strings.SplitN(messages, "\n", 3)[1]
	messages += first + "\n"

	return testutil.WriteFile(t, dir, "messages.csv", messages),
		testutil.WriteFile(t, dir, "categories.csv", categories)
}

func TestCommands_WrongArgCount(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() *cobra.Command
		args []string
		want string
	}{
		{name: "process without args", cmd: processCmd, want: "third argument"},
		{name: "process with two args", cmd: processCmd, args: []string{"a.csv", "b.csv"}, want: "third argument"},
		{name: "process with four args", cmd: processCmd, args: []string{"a", "b", "c", "d"}, want: "third argument"},
		{name: "train with one arg", cmd: trainCmd, args: []string{"db"}, want: "second argument"},
		{name: "evaluate with three args", cmd: evaluateCmd, args: []string{"a", "b", "c"}, want: "saved model"},
		{name: "runs without args", cmd: runsCmd, want: "only argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, tt.cmd(), tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, "Please provide")
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "Example: triage")
		})
	}
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	corpus := testutil.NewCorpus(40)
	messagesPath, categoriesPath := writeInputs(t, dir, corpus)
	dbPath := filepath.Join(dir, "DisasterResponse.db")

	out, err := executeCommand(t, processCmd(), messagesPath, categoriesPath, dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned data saved to database!")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	table, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, corpus.Categories, table.Categories)
	assert.Len(t, table.Rows, 40)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 41, runs[0].MergedRows)
	assert.Equal(t, 40, runs[0].CleanRows)
	assert.Equal(t, 1, runs[0].DuplicateRows)
	assert.Equal(t, 3, runs[0].CategoryCount)
	assert.Equal(t, messagesPath, runs[0].MessagesPath)

	// A second run replaces the table and appends to the ledger.
	_, err = executeCommand(t, processCmd(), messagesPath, categoriesPath, dbPath)
	require.NoError(t, err)

	table, err = store.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 40)

	runs, err = store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	out, err = executeCommand(t, runsCmd(), dbPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Run "))
	assert.Contains(t, out, "41 merged, 40 kept, 1 duplicates")
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	messagesPath, categoriesPath := writeInputs(t, dir, testutil.NewCorpus(8))
	dbPath := filepath.Join(dir, "triage.db")

	_, err := executeCommand(t, processCmd(), filepath.Join(dir, "absent.csv"), categoriesPath, dbPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = executeCommand(t, processCmd(), messagesPath, messagesPath, dbPath)
	require.Error(t, err)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "failed runs must not create the database")
}

func TestRuns_Empty(t *testing.T) {
	out, err := executeCommand(t, runsCmd(), filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No ETL runs recorded")
}

func TestTrainAndEvaluate(t *testing.T) {
	if testing.Short() {
		t.Skip("trains a model")
	}

	dir := t.TempDir()
	messagesPath, categoriesPath := writeInputs(t, dir, testutil.NewCorpus(40))
	dbPath := filepath.Join(dir, "DisasterResponse.db")
	modelPath := filepath.Join(dir, "models", "classifier.gob")

	_, err := executeCommand(t, processCmd(), messagesPath, categoriesPath, dbPath)
	require.NoError(t, err)

	out, err := executeCommand(t, trainCmd(), dbPath, modelPath,
		"--n-estimators", "10", "--cv-folds", "2", "--seed", "3", "--test-size", "0.25")
	require.NoError(t, err)
	for _, category := range []string{"related", "water", "food"} {
		assert.Contains(t, out, "Classification report for category "+category+":")
	}
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "Trained model saved!")

	info, err := os.Stat(modelPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// Without flags evaluate scores the split recorded at training time,
	// not the configured defaults.
	out, err = executeCommand(t, evaluateCmd(), dbPath, modelPath)
	require.NoError(t, err)
	assert.Contains(t, out, "min_samples_split=2 n_estimators=10 ngram_range=(1, 1)")
	assert.Contains(t, out, "test size 0.25, seed 3")
	assert.Contains(t, out, "Classification report for category food:")
	assert.Contains(t, out, "Scored 10 held-out messages (test size 0.25, seed 3)")

	out, err = executeCommand(t, evaluateCmd(), dbPath, modelPath, "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Scored 10 held-out messages (test size 0.25, seed 9)")

	out, err = executeCommand(t, evaluateCmd(), dbPath, modelPath, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Classification report for category related:")
	assert.Contains(t, out, "Scored all 40 stored messages")
}

func TestApplyTrainFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		want  [][2]int
		folds int
		seed  int64
		trees []int
	}{
		{
			name:  "defaults",
			want:  [][2]int{{1, 1}},
			folds: 5,
			seed:  42,
			trees: []int{100},
		},
		{
			name:  "single range",
			args:  []string{"--ngram-range", "1,2"},
			want:  [][2]int{{1, 2}},
			folds: 5,
			seed:  42,
			trees: []int{100},
		},
		{
			name:  "repeated ranges",
			args:  []string{"--ngram-range", "1,1", "--ngram-range", "(1, 2)", "--seed", "7"},
			want:  [][2]int{{1, 1}, {1, 2}},
			folds: 5,
			seed:  7,
			trees: []int{100},
		},
		{
			name:  "numeric grids",
			args:  []string{"--n-estimators", "10,50", "--cv-folds", "3"},
			want:  [][2]int{{1, 1}},
			folds: 3,
			seed:  42,
			trees: []int{10, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := trainCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			settings := config.DefaultSettings()
			require.NoError(t, applyTrainFlags(cmd, &settings))
			assert.Equal(t, tt.want, settings.Train.Grid.NGramRanges)
			assert.Equal(t, tt.folds, settings.Train.CVFolds)
			assert.Equal(t, tt.seed, settings.Train.Seed)
			assert.Equal(t, tt.trees, settings.Train.Grid.NEstimators)
		})
	}
}

func TestApplyTrainFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "descending range", args: []string{"--ngram-range", "3,1"}},
		{name: "three values", args: []string{"--ngram-range", "1,2,3"}},
		{name: "test size out of range", args: []string{"--test-size", "1.5"}},
		{name: "single fold", args: []string{"--cv-folds", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := trainCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			settings := config.DefaultSettings()
			err := applyTrainFlags(cmd, &settings)
			var userErr *common.UserError
			require.ErrorAs(t, err, &userErr)
		})
	}
}

func TestUseTrainingSplit(t *testing.T) {
	a := &artifact.Artifact{TestSize: 0.25, Seed: 3}

	tests := []struct {
		name     string
		args     []string
		testSize float64
		seed     int64
	}{
		{name: "recorded split", testSize: 0.25, seed: 3},
		{name: "seed flag wins", args: []string{"--seed", "9"}, testSize: 0.25, seed: 9},
		{name: "test size flag wins", args: []string{"--test-size", "0.5"}, testSize: 0.5, seed: 3},
		{name: "flag equal to recorded", args: []string{"--seed", "3"}, testSize: 0.25, seed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := evaluateCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			settings := config.DefaultSettings()
			require.NoError(t, applyTrainFlags(cmd, &settings))
			useTrainingSplit(cmd, a, &settings)
			assert.InDelta(t, tt.testSize, settings.Train.TestSize, 1e-12)
			assert.Equal(t, tt.seed, settings.Train.Seed)
		})
	}
}

func TestInitConfig_InvalidFile(t *testing.T) {
	cfgFile = testutil.WriteFile(t, t.TempDir(), "config.yaml", "store: [unclosed")
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})

	err := initConfig(nil, nil)
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestTrain_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty database", func(t *testing.T) {
		_, err := executeCommand(t, trainCmd(), filepath.Join(dir, "empty.db"), filepath.Join(dir, "m.gob"))
		require.Error(t, err)
	})

	t.Run("no complete rows", func(t *testing.T) {
		store := testutil.SetupTestStorage(t)
		table := testutil.NewCorpus(8).Table()
		for i := range table.Rows {
			table.Rows[i].Original = model.NewText("")
		}
		testutil.SeedTable(t, store, table)

		_, err := executeCommand(t, trainCmd(), store.Path(), filepath.Join(dir, "m.gob"))
		require.ErrorIs(t, err, common.ErrNoMessages)
	})

	t.Run("invalid grid flag", func(t *testing.T) {
		_, err := executeCommand(t, trainCmd(), filepath.Join(dir, "empty.db"), filepath.Join(dir, "m.gob"),
			"--ngram-range", "3,1")
		var userErr *common.UserError
		require.ErrorAs(t, err, &userErr)
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := executeCommand(t, evaluateCmd(), filepath.Join(dir, "empty.db"), filepath.Join(dir, "absent.gob"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
