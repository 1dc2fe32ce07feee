package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("file", "f", "", "")
	return cmd
}

func TestReadResponse_FromArgs(t *testing.T) {
	got, err := readResponse(newResponseCmd(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestReadResponse_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.md")
	require.NoError(t, os.WriteFile(path, []byte("## Plan\nship it"), 0644))

	cmd := newResponseCmd()
	require.NoError(t, cmd.Flags().Set("file", path))

	got, err := readResponse(cmd, []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, "## Plan\nship it", got)

	require.NoError(t, cmd.Flags().Set("file", filepath.Join(t.TempDir(), "missing")))
	_, err = readResponse(cmd, nil)
	assert.Error(t, err)
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "[░░░░]", renderProgressBar(0, 4))
	assert.Equal(t, "[██░░]", renderProgressBar(0.5, 4))
	assert.Equal(t, "[████]", renderProgressBar(1.7, 4))
	assert.Equal(t, "[░░░░]", renderProgressBar(-1, 4))
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[strings.Fields(c.Use)[0]] = true
	}
	for _, want := range []string{"topics", "show", "start", "drill", "challenge", "evaluate",
		"status", "domains", "export", "reset", "snapshots", "serve", "mcp", "config", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, "x", valueOr("x", "y"))
	assert.Equal(t, "y", valueOr("", "y"))
}
