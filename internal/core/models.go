package core

import "time"

// ContainerRecord represents a provisioned container in the database
type ContainerRecord struct {
	Name          string    `json:"name"`
	Image         string    `json:"image"`
	CreatedAt     time.Time `json:"created_at"`
	Features      Features  `json:"features"`
	DesktopFiles  []string  `json:"desktop_files,omitempty"`
	WrapperScript string    `json:"wrapper_script,omitempty"`
	ToolVersion   string    `json:"tool_version,omitempty"`
}

// Features holds the optional capabilities toggled at setup time
type Features struct {
	Multilib        bool `json:"multilib"`
	Gaming          bool `json:"gaming"`
	BuildCache      bool `json:"build_cache"`
	OptimizeMirrors bool `json:"optimize_mirrors"`
	BoxBuddy        bool `json:"boxbuddy"`
}

// SetupOptions contains options for the setup command
type SetupOptions struct {
	ContainerName   string
	Image           string
	Multilib        bool
	Gaming          bool
	BuildCache      bool
	OptimizeMirrors bool
	BoxBuddy        bool
	DryRun          bool
	ForceRebuild    bool
	SkipExport      bool
	AssumeYes       bool
}

// UninstallOptions contains options for the uninstall command
type UninstallOptions struct {
	KeepContainer bool
	AssumeYes     bool
}

// ContainerState describes the live runtime state of a container
type ContainerState string

const (
	StateRunning ContainerState = "running"
	StateExited  ContainerState = "exited"
	StateCreated ContainerState = "created"
	StateAbsent  ContainerState = "absent"
	StateUnknown ContainerState = "unknown"
)

// DesktopEntry represents a .desktop file
type DesktopEntry struct {
	Type           string
	Name           string
	GenericName    string
	Comment        string
	Icon           string
	Exec           string
	Terminal       bool
	Categories     []string
	Keywords       []string
	StartupWMClass string
	NoDisplay      bool
}

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitInterrupted = 130
)

// GamingPackages are the extra packages installed with --enable-gaming
var GamingPackages = []string{
	"gamemode",
	"lib32-gamemode",
	"mangohud",
	"lib32-mangohud",
}

// ExportedApps are the GUI applications exported to the host menu after a
// successful Pamac install. The first entry is the primary launcher.
var ExportedApps = []string{
	"pamac-manager",
}
