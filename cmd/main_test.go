package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with an empty config file so the user's own config
// does not leak into the test.
func execute(t *testing.T, args ...string) error {
	t.Helper()

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log-level: error\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestRootCmd_DryRunReport(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Rock")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for _, name := range []string{"Artist-Title 2020.mp3", "NoSeparator.mp3", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644))
	}
	reportPath := filepath.Join(t.TempDir(), "run.json")

	require.NoError(t, execute(t, "--dry-run", "--no-cache", "--report", reportPath, dir))

	assert.FileExists(t, filepath.Join(dir, "Artist-Title 2020.mp3"))
	assert.NoFileExists(t, filepath.Join(dir, "Artist - Title.mp3"))

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var got struct {
		ID      string `json:"id"`
		DryRun  bool   `json:"dry_run"`
		Summary struct {
			Total     int `json:"total"`
			Processed int `json:"processed"`
			Skipped   int `json:"skipped"`
			Results   []struct {
				NewPath string `json:"new_path"`
				Reason  string `json:"reason"`
			} `json:"results"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Len(t, got.ID, 26)
	assert.True(t, got.DryRun)
	assert.Equal(t, 2, got.Summary.Total)
	assert.Equal(t, 1, got.Summary.Processed)
	assert.Equal(t, 1, got.Summary.Skipped)
	require.Len(t, got.Summary.Results, 2)
	assert.Equal(t, filepath.Join(dir, "Artist - Title.mp3"), got.Summary.Results[0].NewPath)
	assert.Equal(t, "no-separator", got.Summary.Results[1].Reason)
}

func TestRootCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing folder",
			args:    []string{"--no-cache", filepath.Join(t.TempDir(), "nope")},
			wantErr: "reading music folder",
		},
		{
			name:    "invalid workers",
			args:    []string{"--no-cache", "--workers", "0", t.TempDir()},
			wantErr: "invalid workers",
		},
		{
			name:    "no folder",
			args:    []string{"--no-cache"},
			wantErr: "accepts 1 arg",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := execute(t, test.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}
}
