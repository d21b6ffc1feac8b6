package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletionCmd(t *testing.T) {
	t.Parallel()
	cfg, logger := testDeps(t)

	cmd := NewCompletionCmd(cfg, logger)
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"bash", "zsh", "fish", "powershell"}, cmd.ValidArgs)
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	t.Parallel()
	cfg, logger := testDeps(t)

	root := NewRootCmd(cfg, logger, "1.0.0")
	root.SetArgs([]string{"completion", "tcsh"})

	err := root.Execute()
	require.Error(t, err)
}

func TestCompletionRequiresShell(t *testing.T) {
	t.Parallel()
	cfg, logger := testDeps(t)

	root := NewRootCmd(cfg, logger, "1.0.0")
	root.SetArgs([]string{"completion"})

	err := root.Execute()
	require.Error(t, err)
}

func TestCompletionGeneratesBash(t *testing.T) {
	cfg, logger := testDeps(t)

	root := NewRootCmd(cfg, logger, "1.0.0")
	root.SetArgs([]string{"completion", "bash"})

	assert.NoError(t, root.Execute())
}
