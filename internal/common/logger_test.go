package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info", "json"))

	LogDebug("hidden", nil)
	LogInfo("Loading data...", Fields{"messages": "messages.csv"})
	LogError(errors.New("boom"), "Failed", Fields{"stage": "clean"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "Loading data...", first["msg"])
	assert.Equal(t, "messages.csv", first["messages"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "clean", second["stage"])

	require.ErrorIs(t, SetupLogger(&buf, "info", "xml"), ErrInvalidFormat)
	require.ErrorIs(t, SetupLogger(&buf, "loud", "json"), ErrInvalidLevel)
}

func TestUserError(t *testing.T) {
	cause := errors.New("file missing")
	err := NewUserError("could not load data", cause)

	assert.Equal(t, "could not load data: file missing", err.Error())
	require.ErrorIs(t, err, cause)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not load data", userErr.UserMessage)

	assert.Equal(t, "bare", NewUserError("bare", nil).Error())
}
