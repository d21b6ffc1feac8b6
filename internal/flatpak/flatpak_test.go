package flatpak

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacbox/pacbox/internal/execx"
)

func TestAvailable(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{
		CommandExistsFunc: func(name string) bool { return name == "flatpak" },
	}
	assert.True(t, New(runner).Available())
}

func TestEnsureFlathub(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{}
	c := New(runner)

	require.NoError(t, c.EnsureFlathub(context.Background()))
	assert.True(t, runner.CalledWith("flatpak remote-add --if-not-exists --user flathub "+FlathubURL))
}

func TestIsInstalled(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			return "org.mozilla.firefox\nio.github.dvlv.boxbuddyrs\n", nil
		},
	}
	c := New(runner)
	ctx := context.Background()

	assert.True(t, c.IsInstalled(ctx, BoxBuddyID))
	assert.False(t, c.IsInstalled(ctx, "com.example.missing"))
}

func TestIsInstalledListFails(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			return "", errors.New("no session bus")
		},
	}

	assert.False(t, New(runner).IsInstalled(context.Background(), BoxBuddyID))
}

func TestInstall(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{}
	c := New(runner)

	require.NoError(t, c.Install(context.Background(), BoxBuddyID))
	assert.True(t, runner.CalledWith("flatpak install --user --noninteractive flathub "+BoxBuddyID))
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	runner := &execx.MockRunner{}
	c := New(runner)

	require.NoError(t, c.Uninstall(context.Background(), BoxBuddyID))
	assert.True(t, runner.CalledWith("flatpak uninstall --user --noninteractive "+BoxBuddyID))
}
