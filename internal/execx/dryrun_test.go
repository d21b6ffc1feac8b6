package execx

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunnerSuppressesExecution(t *testing.T) {
	t.Parallel()

	real := &MockRunner{}
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	d := NewDryRunner(real, &logger)
	ctx := context.Background()

	out, err := d.Run(ctx, "distrobox", "create", "--name", "archbox")
	require.NoError(t, err)
	assert.Empty(t, out)

	stdout, stderr, err := d.RunWithOutput(ctx, "pacman", "-Syu")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)

	require.NoError(t, d.RunStreaming(ctx, nil, nil, "podman", "pull", "archlinux"))

	// Nothing reached the underlying runner
	assert.Empty(t, real.Calls())

	// Every mutating command was announced
	logged := buf.String()
	assert.Contains(t, logged, "dry-run: would execute")
	assert.Contains(t, logged, "distrobox create --name archbox")
	assert.Contains(t, logged, "podman pull archlinux")
}

func TestDryRunnerAnswersExistenceChecks(t *testing.T) {
	t.Parallel()

	real := &MockRunner{}
	logger := zerolog.Nop()
	d := NewDryRunner(real, &logger)
	ctx := context.Background()

	// On a fresh host nothing is installed yet, so skip-if-present checks
	// must report absence instead of silently succeeding.
	_, err := d.Run(ctx, "distrobox", "enter", "archbox", "--", "yay", "--version")
	require.Error(t, err)

	_, err = d.Run(ctx, "distrobox", "enter", "archbox", "--", "pacman", "-Qi", "pamac-aur")
	require.Error(t, err)

	_, err = d.Run(ctx, "podman", "image", "exists", "docker.io/library/archlinux:latest")
	require.Error(t, err)

	// Checks are not part of the transcript
	assert.Empty(t, d.Announced())

	// Once the installing command has been announced, the same check passes
	require.NoError(t, d.RunStreaming(ctx, nil, nil, "distrobox", "enter", "archbox", "--",
		"git", "clone", "https://aur.archlinux.org/yay-bin.git", "/tmp/build"))
	_, err = d.Run(ctx, "distrobox", "enter", "archbox", "--", "yay", "--version")
	assert.NoError(t, err)

	require.NoError(t, d.RunStreaming(ctx, nil, nil, "distrobox", "enter", "archbox", "--",
		"yay", "-S", "--noconfirm", "pamac-aur"))
	_, err = d.Run(ctx, "distrobox", "enter", "archbox", "--", "pacman", "-Qi", "pamac-aur")
	assert.NoError(t, err)

	assert.Empty(t, real.Calls())
}

func TestDryRunnerDelegatesLookups(t *testing.T) {
	t.Parallel()

	real := &MockRunner{
		CommandExistsFunc: func(name string) bool { return name == "distrobox" },
	}
	logger := zerolog.Nop()
	d := NewDryRunner(real, &logger)

	assert.True(t, d.CommandExists("distrobox"))
	assert.False(t, d.CommandExists("flatpak"))
	assert.Equal(t, 0, d.ExitCode(nil))
}
