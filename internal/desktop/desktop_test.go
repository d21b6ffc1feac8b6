package desktop

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacbox/pacbox/internal/core"
)

func TestParse(t *testing.T) {
	t.Parallel()

	input := `[Desktop Entry]
Type=Application
Name=Pamac (on archbox)
GenericName=Package Manager
Comment=Run pamac-manager inside the archbox container
Exec=distrobox enter archbox -- pamac-manager
Icon=pamac-manager
Categories=System;PackageManager;
Keywords=pacman;aur;package;
Terminal=false
StartupWMClass=pamac-manager

# trailing comment
[Desktop Action Other]
Name=Should be ignored
`

	de, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "Application", de.Type)
	assert.Equal(t, "Pamac (on archbox)", de.Name)
	assert.Equal(t, "Package Manager", de.GenericName)
	assert.Equal(t, "distrobox enter archbox -- pamac-manager", de.Exec)
	assert.Equal(t, "pamac-manager", de.Icon)
	assert.Equal(t, []string{"System", "PackageManager"}, de.Categories)
	assert.Equal(t, []string{"pacman", "aur", "package"}, de.Keywords)
	assert.False(t, de.Terminal)
	assert.Equal(t, "pamac-manager", de.StartupWMClass)
}

func TestParseIgnoresOtherSections(t *testing.T) {
	t.Parallel()

	input := `[Desktop Action New]
Name=Wrong
[Desktop Entry]
Type=Application
Name=Right
Exec=true
`

	de, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Right", de.Name)
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	de := ContainerAppEntry("pamac-manager", "archbox")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, de))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[Desktop Entry]\n"))
	assert.Contains(t, out, "Exec=distrobox enter archbox -- pamac-manager\n")
	assert.Contains(t, out, "Categories=System;PackageManager;\n")
	assert.NotContains(t, out, "Terminal=true")
	assert.NotContains(t, out, "NoDisplay")

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, de.Name, parsed.Name)
	assert.Equal(t, de.Exec, parsed.Exec)
	assert.Equal(t, de.Categories, parsed.Categories)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := &core.DesktopEntry{Type: "Application", Name: "Pamac", Exec: "pamac-manager"}
	assert.NoError(t, Validate(valid))

	assert.Error(t, Validate(&core.DesktopEntry{Name: "Pamac", Exec: "x"}))
	assert.Error(t, Validate(&core.DesktopEntry{Type: "Application", Exec: "x"}))
	assert.Error(t, Validate(&core.DesktopEntry{Type: "Application", Name: "Pamac"}))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pamac-manager-archbox.desktop")
	de := ContainerAppEntry("pamac-manager", "archbox")

	require.NoError(t, WriteFile(path, de))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name=Pamac (on archbox)")

	// Invalid entries are rejected before touching the disk
	bad := &core.DesktopEntry{Name: "no exec"}
	err = WriteFile(filepath.Join(t.TempDir(), "bad.desktop"), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid desktop entry")
}

func TestContainerAppEntry(t *testing.T) {
	t.Parallel()

	de := ContainerAppEntry("pamac-manager", "steambox")
	assert.Equal(t, "Application", de.Type)
	assert.Equal(t, "Pamac (on steambox)", de.Name)
	assert.Equal(t, "distrobox enter steambox -- pamac-manager", de.Exec)
	assert.NoError(t, Validate(de))

	// Unknown apps keep their command name
	other := ContainerAppEntry("gimp", "steambox")
	assert.Equal(t, "gimp (on steambox)", other.Name)
}
