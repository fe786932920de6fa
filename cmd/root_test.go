package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/chlog/internal/changelog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dirtyChangelog = `# Changelog

All notable changes to this project will be documented in this file.

## [1.2.0] - 2024-01-01
## Changes
- feat: add export
- chore: bump deps
- fix(core): null check

## [1.1.0] - 2023-12-01
## Changes
- chore: x
- docs: y
`

const cleanChangelog = `# Changelog

All notable changes to this project will be documented in this file.


## [1.2.0] - 2024-01-01

## Changes
- feat: add export
- fix(core): null check


## [1.1.0] - 2023-12-01

## Changes
- Internal improvements and bug fixes
`

func newCleanTestCmd(out, errOut *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "chlog"}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	addCleanFlags(cmd)
	return cmd
}

func writeChangelog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), changelog.DefaultPath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func readChangelog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return string(data)
}

func resetViper(path string) {
	viper.Reset()
	viper.Set("file", path)
	viper.Set("format", "text")
}

func TestCleanRewritesFile(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)

	var out, errOut bytes.Buffer
	cmd := newCleanTestCmd(&out, &errOut)
	require.NoError(t, cmd.Flags().Set("no-color", "true"))

	if err := runClean(cmd, nil); err != nil {
		t.Fatalf("runClean() error = %v", err)
	}

	assert.Equal(t, cleanChangelog, readChangelog(t, path))

	output := out.String()
	assert.Contains(t, output, "Cleaning up "+path)
	assert.Contains(t, output, path+" cleaned up!")
	assert.Contains(t, output, "User-facing changes kept: 2")
	assert.Contains(t, output, "Internal changes removed: 3")
	assert.Contains(t, output, "Versions using fallback message: 1")
	assert.Empty(t, errOut.String())
}

func TestCleanIsIdempotent(t *testing.T) {
	path := writeChangelog(t, cleanChangelog)
	resetViper(path)

	var out, errOut bytes.Buffer
	require.NoError(t, runClean(newCleanTestCmd(&out, &errOut), nil))

	assert.Equal(t, cleanChangelog, readChangelog(t, path))
	assert.Contains(t, out.String(), "already clean.")
}

func TestCleanDryRun(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)

	var out, errOut bytes.Buffer
	cmd := newCleanTestCmd(&out, &errOut)
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))

	require.NoError(t, runClean(cmd, nil))

	assert.Equal(t, cleanChangelog, out.String())
	assert.Equal(t, dirtyChangelog, readChangelog(t, path))
}

func TestCleanCheck(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"dirty changelog fails", dirtyChangelog, true},
		{"clean changelog passes", cleanChangelog, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeChangelog(t, tt.content)
			resetViper(path)

			var out, errOut bytes.Buffer
			cmd := newCleanTestCmd(&out, &errOut)
			require.NoError(t, cmd.Flags().Set("check", "true"))

			err := runClean(cmd, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "contains internal changes")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.content, readChangelog(t, path))
		})
	}
}

func TestCleanJSON(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)
	viper.Set("format", "json")

	var out, errOut bytes.Buffer
	require.NoError(t, runClean(newCleanTestCmd(&out, &errOut), nil))

	var res changelog.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v\noutput: %s", err, out.String())
	}

	assert.Equal(t, path, res.Path)
	assert.True(t, res.Changed)
	assert.True(t, res.Written)
	assert.Equal(t, 2, res.Stats.Versions)
	assert.Equal(t, 2, res.Stats.Kept)
	assert.Equal(t, 1, res.Stats.Fallbacks)
}

func TestCleanMissingFile(t *testing.T) {
	resetViper(filepath.Join(t.TempDir(), "CHANGELOG.md"))

	var out, errOut bytes.Buffer
	err := runClean(newCleanTestCmd(&out, &errOut), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestCleanCustomFallback(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)
	viper.Set("fallback", "- Maintenance release")

	var out, errOut bytes.Buffer
	require.NoError(t, runClean(newCleanTestCmd(&out, &errOut), nil))

	got := readChangelog(t, path)
	assert.True(t, strings.HasSuffix(got, "## Changes\n- Maintenance release\n"), "got:\n%s", got)
}

func TestCleanInvalidConfig(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)
	viper.Set("patterns.user_facing", []string{"nope"})

	var out, errOut bytes.Buffer
	err := runClean(newCleanTestCmd(&out, &errOut), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown pattern "nope"`)
	assert.Equal(t, dirtyChangelog, readChangelog(t, path))
}

func TestCleanFlagConflicts(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		wantErr string
	}{
		{"watch with check", []string{"watch", "check"}, "--watch cannot be combined"},
		{"watch with dry-run", []string{"watch", "dry-run"}, "--watch cannot be combined"},
		{"dry-run with check", []string{"dry-run", "check"}, "--dry-run cannot be combined with --check"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeChangelog(t, dirtyChangelog)
			resetViper(path)

			var out, errOut bytes.Buffer
			cmd := newCleanTestCmd(&out, &errOut)
			for _, f := range tt.flags {
				require.NoError(t, cmd.Flags().Set(f, "true"))
			}

			err := runClean(cmd, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, out.String())
			assert.Equal(t, dirtyChangelog, readChangelog(t, path))
		})
	}
}

func TestCleanWatch(t *testing.T) {
	path := writeChangelog(t, dirtyChangelog)
	resetViper(path)

	var out, errOut bytes.Buffer
	cmd := newCleanTestCmd(&out, &errOut)
	require.NoError(t, cmd.Flags().Set("watch", "true"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runClean(cmd, nil)
	}()

	require.Eventually(t, func() bool {
		return readChangelog(t, path) == cleanChangelog
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "chlog dev (commit: none, built: unknown)\n", out.String())
}
