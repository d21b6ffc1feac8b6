package aur

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacbox/pacbox/internal/pacman"
)

// mockSession records commands executed inside the container
type mockSession struct {
	calls  []string
	execFn func(cmd []string) (string, error)
}

func (m *mockSession) Exec(ctx context.Context, name string, cmd ...string) (string, error) {
	m.calls = append(m.calls, strings.Join(cmd, " "))
	if m.execFn != nil {
		return m.execFn(cmd)
	}
	return "", nil
}

func (m *mockSession) ExecStreaming(ctx context.Context, name string, stdout, stderr io.Writer, cmd ...string) error {
	m.calls = append(m.calls, strings.Join(cmd, " "))
	if m.execFn != nil {
		_, err := m.execFn(cmd)
		return err
	}
	return nil
}

func (m *mockSession) calledWith(substr string) bool {
	for _, c := range m.calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func testClient(session *mockSession) *Client {
	logger := zerolog.New(io.Discard)
	pm := pacman.New(session, "archbox")
	return New(session, pm, "archbox", &logger)
}

func TestHelperInstalled(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	assert.True(t, testClient(session).HelperInstalled(context.Background()))

	session = &mockSession{
		execFn: func(cmd []string) (string, error) {
			return "", errors.New("yay: command not found")
		},
	}
	assert.False(t, testClient(session).HelperInstalled(context.Background()))
}

func TestEnsureHelperSkipsWhenPresent(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	c := testClient(session)

	require.NoError(t, c.EnsureHelper(context.Background(), io.Discard))
	require.Len(t, session.calls, 1)
	assert.Equal(t, "yay --version", session.calls[0])
}

func TestEnsureHelperBootstraps(t *testing.T) {
	t.Parallel()

	yayInstalled := false
	session := &mockSession{}
	session.execFn = func(cmd []string) (string, error) {
		if cmd[0] == "yay" {
			if yayInstalled {
				return "yay v12.3.5", nil
			}
			return "", errors.New("yay: command not found")
		}
		if cmd[0] == "bash" {
			// makepkg run installs the helper
			yayInstalled = true
		}
		return "", nil
	}
	c := testClient(session)

	require.NoError(t, c.EnsureHelper(context.Background(), io.Discard))

	assert.True(t, session.calledWith("sudo pacman -S --noconfirm --needed base-devel git"))
	assert.True(t, session.calledWith("git clone https://aur.archlinux.org/yay-bin.git /tmp/pacbox-yay-build"))
	assert.True(t, session.calledWith("cd /tmp/pacbox-yay-build && makepkg -si --noconfirm"))
	assert.True(t, session.calledWith("rm -rf /tmp/pacbox-yay-build"))
}

func TestEnsureHelperIgnoresCleanupFailure(t *testing.T) {
	t.Parallel()

	yayInstalled := false
	session := &mockSession{}
	session.execFn = func(cmd []string) (string, error) {
		switch cmd[0] {
		case "yay":
			if yayInstalled {
				return "yay v12.3.5", nil
			}
			return "", errors.New("yay: command not found")
		case "bash":
			yayInstalled = true
		case "rm":
			if yayInstalled {
				return "", errors.New("device busy")
			}
		}
		return "", nil
	}
	c := testClient(session)

	// Leftover build dir is not worth failing the bootstrap over
	require.NoError(t, c.EnsureHelper(context.Background(), io.Discard))
}

func TestEnsureHelperVerifiesBootstrap(t *testing.T) {
	t.Parallel()

	session := &mockSession{
		execFn: func(cmd []string) (string, error) {
			if cmd[0] == "yay" {
				return "", errors.New("yay: command not found")
			}
			return "", nil
		},
	}
	c := testClient(session)

	err := c.EnsureHelper(context.Background(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still missing after bootstrap")
}

func TestInstall(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	c := testClient(session)

	require.NoError(t, c.Install(context.Background(), io.Discard, "pamac-aur"))
	assert.True(t, session.calledWith("yay -S --noconfirm --needed pamac-aur"))
}

func TestInstallRejectsBadNames(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	c := testClient(session)

	err := c.Install(context.Background(), io.Discard, "$(curl evil)")
	require.Error(t, err)
	assert.Empty(t, session.calls)
}

func TestInstallPamacSkipsWhenInstalled(t *testing.T) {
	t.Parallel()

	session := &mockSession{
		execFn: func(cmd []string) (string, error) {
			if cmd[0] == "pacman" && cmd[1] == "-Qi" {
				return "Name : pamac-aur", nil
			}
			return "", nil
		},
	}
	c := testClient(session)

	require.NoError(t, c.InstallPamac(context.Background(), io.Discard))
	assert.False(t, session.calledWith("yay -S"))
}

func TestInstallPamacInstallsWhenMissing(t *testing.T) {
	t.Parallel()

	session := &mockSession{
		execFn: func(cmd []string) (string, error) {
			if cmd[0] == "pacman" && cmd[1] == "-Qi" {
				return "", errors.New("not installed")
			}
			return "", nil
		},
	}
	c := testClient(session)

	require.NoError(t, c.InstallPamac(context.Background(), io.Discard))
	assert.True(t, session.calledWith("yay -S --noconfirm --needed pamac-aur"))
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	c := testClient(session)

	require.NoError(t, c.Update(context.Background(), io.Discard))
	assert.True(t, session.calledWith("yay -Syu --noconfirm"))
}
