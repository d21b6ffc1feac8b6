package paths

import (
	"os"
	"path/filepath"

	"github.com/pacbox/pacbox/internal/config"
)

// Resolver centralizes the host paths pacbox reads and writes.
type Resolver struct {
	homeDir string
	cfg     *config.Config
}

// NewResolver creates a Resolver using the current user's HOME.
func NewResolver(cfg *config.Config) *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// NewResolverWithHome creates a Resolver with an explicit homeDir (for tests).
func NewResolverWithHome(cfg *config.Config, homeDir string) *Resolver {
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// HomeDir returns the resolved HOME directory.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// BinDir returns the directory for generated CLI wrapper scripts.
func (r *Resolver) BinDir() string {
	if r.cfg != nil && r.cfg.Export.BinDir != "" {
		return r.cfg.Export.BinDir
	}
	return filepath.Join(r.homeDir, ".local", "bin")
}

// AppsDir returns the desktop launcher directory.
func (r *Resolver) AppsDir() string {
	if r.cfg != nil && r.cfg.Export.AppsDir != "" {
		return r.cfg.Export.AppsDir
	}
	return filepath.Join(r.homeDir, ".local", "share", "applications")
}

// DataDir returns the pacbox state directory.
func (r *Resolver) DataDir() string {
	if r.cfg != nil && r.cfg.Paths.DataDir != "" {
		return r.cfg.Paths.DataDir
	}
	return filepath.Join(r.homeDir, ".local", "share", "pacbox")
}

// DesktopFile returns the launcher path for an exported app of a container.
// The naming convention is <app>-<container>.desktop, which is what uninstall
// matches when it cleans up.
func (r *Resolver) DesktopFile(app, container string) string {
	return filepath.Join(r.AppsDir(), app+"-"+container+".desktop")
}

// WrapperScript returns the CLI wrapper path for a container.
func (r *Resolver) WrapperScript(container string) string {
	return filepath.Join(r.BinDir(), "pamac-"+container)
}

// BuildCacheDir returns the shared pacman build cache directory for a container.
func (r *Resolver) BuildCacheDir(container string) string {
	return filepath.Join(r.DataDir(), "cache", container)
}
