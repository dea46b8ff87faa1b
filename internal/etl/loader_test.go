package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/disaster-triage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_InnerJoin(t *testing.T) {
	dir := t.TempDir()
	messages := testutil.WriteFile(t, dir, "messages.csv",
		"id,message,original,genre\n"+
			"1,Water needed,,direct\n"+
			"2,\"We need food, please\",Nou bezwen manje,direct\n"+
			"3,No categories for this one,,news\n")
	categories := testutil.WriteFile(t, dir, "categories.csv",
		"id,categories\n"+
			"2,related-1;water-0;food-1\n"+
			"1,related-1;water-1;food-0\n"+
			"2,related-1;water-0;food-1\n"+
			"4,related-0;water-0;food-0\n")

	merged, err := Load(messages, categories)
	require.NoError(t, err)

	// Message order is kept, id 2 matches twice, ids 3 and 4 have no partner.
	require.Len(t, merged, 3)
	assert.Equal(t, int64(1), merged[0].ID)
	assert.Equal(t, "related-1;water-1;food-0", merged[0].Categories)
	assert.False(t, merged[0].Original.Valid)
	assert.Equal(t, int64(2), merged[1].ID)
	assert.Equal(t, int64(2), merged[2].ID)
	assert.Equal(t, "We need food, please", merged[1].Text.String)
	assert.Equal(t, "Nou bezwen manje", merged[1].Original.String)
}

func TestLoadMessages_OriginalColumnOptional(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "messages.csv",
		"id,message,genre\n7,Help,social\n")

	messages, err := LoadMessages(path)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(7), messages[0].ID)
	assert.False(t, messages[0].Original.Valid)
	assert.Equal(t, "social", messages[0].Genre.String)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "categories.csv", "id,categories\n1,related-1\n")

	tests := []struct {
		wantErr  error
		name     string
		messages string
	}{
		{
			name:     "missing join key",
			messages: "message,genre\nhello,direct\n",
			wantErr:  ErrMissingColumn,
		},
		{
			name:     "non integer id",
			messages: "id,message,genre\nabc,hello,direct\n",
			wantErr:  ErrInvalidID,
		},
		{
			name:     "empty file",
			messages: "",
			wantErr:  ErrEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, dir, "messages.csv", tt.messages)
			_, err := Load(path, good)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "also-nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MalformedCSV(t *testing.T) {
	dir := t.TempDir()
	messages := testutil.WriteFile(t, dir, "messages.csv",
		"id,message,genre\n1,\"unterminated,direct\n")
	categories := testutil.WriteFile(t, dir, "categories.csv", "id,categories\n1,related-1\n")

	_, err := Load(messages, categories)
	require.Error(t, err)
}
