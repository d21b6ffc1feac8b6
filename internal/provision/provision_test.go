package provision

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/execx"
)

const emptyList = "ID           | NAME                 | STATUS             | IMAGE\n"

const populatedList = emptyList +
	"a1b2c3d4e5f6 | testbox              | Up 2 hours         | docker.io/library/archlinux:latest\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Container.DefaultName = "testbox"
	cfg.Container.Image = "docker.io/library/archlinux:latest"
	cfg.Container.FallbackUser = "deck"
	cfg.Container.WaitAttempts = 1
	cfg.Container.WaitInterval = 1
	cfg.Paths.DataDir = "/test/data"
	cfg.Export.AppsDir = "/test/apps"
	cfg.Export.BinDir = "/test/bin"
	return cfg
}

func testOpts() core.SetupOptions {
	return core.SetupOptions{
		ContainerName: "testbox",
		Image:         "docker.io/library/archlinux:latest",
	}
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// freshRunner simulates a host where the container does not exist yet and
// the image is already in local storage.
func freshRunner() *execx.MockRunner {
	return &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			if name == "distrobox" && len(args) > 0 && args[0] == "list" {
				return emptyList, nil
			}
			return "", nil
		},
	}
}

func TestRunFreshSetup(t *testing.T) {
	runner := freshRunner()
	fs := afero.NewMemMapFs()
	p := New(testConfig(t), testOpts(), runner, fs, testLogger())

	rec, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, p.CreatedContainer())
	assert.True(t, runner.CalledWith("distrobox create --name testbox --image docker.io/library/archlinux:latest --yes"))
	assert.True(t, runner.CalledWith("distrobox enter testbox -- true"))
	assert.True(t, runner.CalledWith("sudo pacman-key --init"))
	assert.True(t, runner.CalledWith("sudo pacman -Syu --noconfirm"))
	assert.True(t, runner.CalledWith("distrobox-export --app pamac-manager"))

	// Rollback never ran
	assert.False(t, runner.CalledWith("distrobox rm"))

	assert.Equal(t, "testbox", rec.Name)
	require.Len(t, rec.DesktopFiles, 1)
	assert.Contains(t, rec.DesktopFiles[0], "pamac-manager-testbox.desktop")

	// The wrapper script landed on disk, executable, entering the container
	data, err := afero.ReadFile(fs, rec.WrapperScript)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exec distrobox enter testbox -- pamac")
}

func TestRunReusesExistingContainer(t *testing.T) {
	runner := &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			if name == "distrobox" && len(args) > 0 && args[0] == "list" {
				return populatedList, nil
			}
			return "", nil
		},
	}
	fs := afero.NewMemMapFs()
	p := New(testConfig(t), testOpts(), runner, fs, testLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, p.CreatedContainer())
	assert.False(t, runner.CalledWith("distrobox create"))
	assert.False(t, runner.CalledWith("podman pull"))
}

func TestRunForceRebuild(t *testing.T) {
	runner := &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			if name == "distrobox" && len(args) > 0 && args[0] == "list" {
				return populatedList, nil
			}
			return "", nil
		},
	}
	opts := testOpts()
	opts.ForceRebuild = true
	p := New(testConfig(t), opts, runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, runner.CalledWith("distrobox rm --force testbox"))
	assert.True(t, runner.CalledWith("distrobox create --name testbox"))
	assert.True(t, p.CreatedContainer())
}

func TestRunRollsBackCreatedContainer(t *testing.T) {
	runner := freshRunner()
	runner.RunStreamingFunc = func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
		if strings.Contains(strings.Join(args, " "), "pacman -Syu") {
			return errors.New("mirror timeout")
		}
		return nil
	}
	p := New(testConfig(t), testOpts(), runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Installing packages")

	// This run created the container, so rollback removes it
	assert.True(t, runner.CalledWith("distrobox rm --force testbox"))
}

func TestRunFailureOnExistingContainerKeepsIt(t *testing.T) {
	runner := &execx.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
			if name == "distrobox" && len(args) > 0 && args[0] == "list" {
				return populatedList, nil
			}
			return "", nil
		},
		RunStreamingFunc: func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
			return errors.New("mirror timeout")
		},
	}
	p := New(testConfig(t), testOpts(), runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.Error(t, err)

	// The container predates this run and must survive the rollback
	assert.False(t, runner.CalledWith("distrobox rm"))
}

func TestRunInvalidName(t *testing.T) {
	opts := testOpts()
	opts.ContainerName = "bad name!"
	p := New(testConfig(t), opts, &execx.MockRunner{}, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRunPreflightMissingTools(t *testing.T) {
	runner := &execx.MockRunner{
		CommandExistsFunc:  func(name string) bool { return false },
		RequireCommandFunc: func(name string) error { return errors.New(name + " not found") },
	}
	p := New(testConfig(t), testOpts(), runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Checking host tools")
	assert.Empty(t, runner.Calls(), "no command may run when preflight fails")
}

func TestGamingImpliesMultilib(t *testing.T) {
	runner := freshRunner()
	opts := testOpts()
	opts.Gaming = true
	p := New(testConfig(t), opts, runner, afero.NewMemMapFs(), testLogger())

	rec, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rec.Features.Multilib)
	assert.True(t, runner.CalledWith("pacman-conf --repo-list"))
	assert.True(t, runner.CalledWith("[multilib]"))
	assert.True(t, runner.CalledWith("yay -S --noconfirm --needed gamemode lib32-gamemode mangohud lib32-mangohud"))
}

func TestBuildCacheMountsVolume(t *testing.T) {
	runner := freshRunner()
	opts := testOpts()
	opts.BuildCache = true
	fs := afero.NewMemMapFs()
	cfg := testConfig(t)
	p := New(cfg, opts, runner, fs, testLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, runner.CalledWith(":/var/cache/pacman/pkg"))

	// The host side of the mount was created up front
	exists, err := afero.DirExists(fs, cfg.Paths.DataDir+"/cache/testbox")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSkipExport(t *testing.T) {
	runner := freshRunner()
	opts := testOpts()
	opts.SkipExport = true
	p := New(testConfig(t), opts, runner, afero.NewMemMapFs(), testLogger())

	rec, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, runner.CalledWith("distrobox-export"))
	assert.Empty(t, rec.DesktopFiles)
	assert.Empty(t, rec.WrapperScript)
}

func TestExportFallsBackToManualLauncher(t *testing.T) {
	runner := freshRunner()
	base := runner.RunFunc
	runner.RunFunc = func(ctx context.Context, name string, args ...string) (string, error) {
		if strings.Contains(strings.Join(args, " "), "distrobox-export") {
			return "", errors.New("export not supported")
		}
		return base(ctx, name, args...)
	}
	fs := afero.NewMemMapFs()
	p := New(testConfig(t), testOpts(), runner, fs, testLogger())

	rec, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.DesktopFiles, 1)

	data, err := afero.ReadFile(fs, rec.DesktopFiles[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), "Exec=distrobox enter testbox -- pamac-manager")
}

func TestBoxBuddyInstall(t *testing.T) {
	runner := freshRunner()
	base := runner.RunFunc
	runner.RunFunc = func(ctx context.Context, name string, args ...string) (string, error) {
		if name == "flatpak" && args[0] == "list" {
			return "", nil // nothing installed yet
		}
		return base(ctx, name, args...)
	}
	opts := testOpts()
	opts.BoxBuddy = true
	p := New(testConfig(t), opts, runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, runner.CalledWith("flatpak remote-add --if-not-exists --user flathub"))
	assert.True(t, runner.CalledWith("flatpak install --user --noninteractive flathub io.github.dvlv.boxbuddyrs"))
}

func TestBoxBuddyFailureIsNotFatal(t *testing.T) {
	runner := freshRunner()
	base := runner.RunFunc
	runner.RunFunc = func(ctx context.Context, name string, args ...string) (string, error) {
		if name == "flatpak" && args[0] == "install" {
			return "", errors.New("flathub unreachable")
		}
		if name == "flatpak" && args[0] == "list" {
			return "", nil
		}
		return base(ctx, name, args...)
	}
	opts := testOpts()
	opts.BoxBuddy = true
	p := New(testConfig(t), opts, runner, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	assert.NoError(t, err)
}

func TestDryRunExecutesNothing(t *testing.T) {
	real := &execx.MockRunner{}
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	dry := execx.NewDryRunner(real, &logger)
	p := New(testConfig(t), testOpts(), dry, afero.NewMemMapFs(), testLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, real.Calls(), "dry run must not reach the real runner")

	// The transcript covers the whole setup, including the steps guarded by
	// skip-if-present checks: the image pull, the yay bootstrap and the
	// Pamac install must all be announced, not silently skipped.
	logged := buf.String()
	assert.Contains(t, logged, "podman pull docker.io/library/archlinux:latest")
	assert.Contains(t, logged, "distrobox create --name testbox")
	assert.Contains(t, logged, "pacman -Syu")
	assert.Contains(t, logged, "git clone https://aur.archlinux.org/yay-bin.git")
	assert.Contains(t, logged, "makepkg -si --noconfirm")
	assert.Contains(t, logged, "yay -S --noconfirm --needed pamac-aur")
}
