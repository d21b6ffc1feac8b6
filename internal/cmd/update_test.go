package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateCmdFlags(t *testing.T) {
	t.Parallel()
	cfg, logger := testDeps(t)

	cmd := NewUpdateCmd(cfg, logger)
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd.Flags().Lookup("timeout"))
	assert.Equal(t, "60", cmd.Flags().Lookup("timeout").DefValue)
}

func TestUpdateRejectsExtraArgs(t *testing.T) {
	t.Parallel()
	cfg, logger := testDeps(t)

	cmd := NewUpdateCmd(cfg, logger)
	cmd.SetArgs([]string{"one", "two"})

	err := cmd.Execute()
	require.Error(t, err)
}
