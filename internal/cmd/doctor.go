package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/db"
	"github.com/pacbox/pacbox/internal/distrobox"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/flatpak"
	"github.com/pacbox/pacbox/internal/paths"
	"github.com/pacbox/pacbox/internal/podman"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host dependencies and integrity",
		Long:  `Check host tools, configuration, database integrity, and tracked containers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.PrintHeader("System Diagnostics")
			fmt.Println()

			var issues []string
			var warnings []string

			runner := execx.NewOSRunner()
			box := distrobox.New(runner, log)
			pod := podman.New(runner)
			flat := flatpak.New(runner)
			ctx := cmd.Context()

			// 1. Check required host tools
			ui.PrintSubheader("Required Host Tools")
			requiredDeps := []struct {
				name    string
				command string
				purpose string
			}{
				{"distrobox", "distrobox", "Create and manage containers"},
				{"podman", "podman", "Container runtime"},
			}

			for _, dep := range requiredDeps {
				if checkDependency(dep.command) {
					ui.PrintSuccess("%s: found (%s)", dep.name, toolVersion(ctx, dep.command, box, pod))
				} else {
					ui.PrintError("%s: NOT FOUND", dep.name)
					issues = append(issues, fmt.Sprintf("Missing required dependency: %s (%s)", dep.name, dep.purpose))
				}
			}

			fmt.Println()

			// 2. Check optional host tools
			ui.PrintSubheader("Optional Host Tools")
			optionalDeps := []struct {
				name    string
				command string
				purpose string
			}{
				{"flatpak", "flatpak", "Install BoxBuddy"},
				{"update-desktop-database", "update-desktop-database", "Refresh application menus"},
			}

			for _, dep := range optionalDeps {
				if checkDependency(dep.command) {
					ui.PrintSuccess("%s: found", dep.name)
				} else {
					ui.PrintWarning("%s: not found (optional - %s)", dep.name, dep.purpose)
					warnings = append(warnings, fmt.Sprintf("Optional dependency missing: %s", dep.name))
				}
			}

			fmt.Println()

			// 3. Check directory structure
			ui.PrintSubheader("Directory Structure")
			resolver := paths.NewResolver(cfg)
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{resolver.AppsDir(), "Applications directory"},
				{resolver.BinDir(), "Binaries directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}

			for _, dir := range dirs {
				if checkDirectory(dir.path) {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				} else {
					ui.PrintError("%s: NOT ACCESSIBLE (%s)", dir.name, dir.path)
					issues = append(issues, fmt.Sprintf("Directory not accessible: %s", dir.path))
				}
			}

			fmt.Println()

			// 4. Check database and tracked containers
			ui.PrintSubheader("Database")
			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("Database: NOT ACCESSIBLE")
				issues = append(issues, fmt.Sprintf("Cannot open database: %v", err))
			} else {
				ui.PrintSuccess("Database: accessible (%s)", cfg.Paths.DBFile)
				defer database.Close()

				records, err := database.List(ctx)
				if err != nil {
					ui.PrintWarning("Cannot list containers: %v", err)
					warnings = append(warnings, "Cannot list containers")
				} else {
					ui.PrintInfo("Tracked containers: %d", len(records))

					if verbose {
						broken := checkContainerIntegrity(ctx, records, box, resolver)
						if len(broken) > 0 {
							ui.PrintWarning("Found %d container(s) with missing resources:", len(broken))
							for _, rec := range broken {
								fmt.Printf("  • %s\n", rec.Name)
							}
							warnings = append(warnings, fmt.Sprintf("%d containers have missing resources", len(broken)))
						} else {
							ui.PrintSuccess("All tracked containers have their resources intact")
						}

						orphans := findOrphanedLaunchers(records, resolver)
						if len(orphans) > 0 {
							ui.PrintWarning("Found %d orphaned launcher(s):", len(orphans))
							ui.PrintList(orphans)
							warnings = append(warnings, fmt.Sprintf("%d orphaned launchers", len(orphans)))
						}
					}
				}
			}

			fmt.Println()

			// 5. Check flatpak setup when available
			if flat.Available() {
				ui.PrintSubheader("Flatpak")
				if flat.IsInstalled(ctx, flatpak.BoxBuddyID) {
					ui.PrintSuccess("BoxBuddy: installed")
				} else {
					ui.PrintInfo("BoxBuddy: not installed (run 'pacbox setup --with-boxbuddy')")
				}
				fmt.Println()
			}

			// 6. Check environment
			ui.PrintSubheader("Environment")
			checkEnvironment()

			fmt.Println()

			// Summary
			ui.PrintHeader("Summary")
			fmt.Println()

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
				fmt.Println()
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			fmt.Println()

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output with integrity checks")

	return cmd
}

// checkDependency checks if a command is available on PATH
func checkDependency(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

func toolVersion(ctx context.Context, command string, box *distrobox.Client, pod *podman.Client) string {
	var version string
	var err error
	switch command {
	case "distrobox":
		version, err = box.Version(ctx)
	case "podman":
		version, err = pod.Version(ctx)
	default:
		return "unknown"
	}
	if err != nil || version == "" {
		return "unknown"
	}
	return version
}

// checkDirectory checks if a directory exists and is writable
func checkDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return false
			}
			return true
		}
		return false
	}

	if !info.IsDir() {
		return false
	}

	testFile := filepath.Join(path, ".pacbox-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return false
	}
	os.Remove(testFile)

	return true
}

// checkContainerIntegrity checks that tracked containers still exist and
// their exported launchers are on disk
func checkContainerIntegrity(ctx context.Context, records []core.ContainerRecord, box *distrobox.Client, resolver *paths.Resolver) []core.ContainerRecord {
	var broken []core.ContainerRecord

	for _, rec := range records {
		exists, err := box.Exists(ctx, rec.Name)
		if err == nil && !exists {
			broken = append(broken, rec)
			continue
		}

		missing := false
		for _, df := range rec.DesktopFiles {
			if _, err := os.Stat(df); os.IsNotExist(err) {
				missing = true
				break
			}
		}
		if !missing && rec.WrapperScript != "" {
			if _, err := os.Stat(rec.WrapperScript); os.IsNotExist(err) {
				missing = true
			}
		}
		if missing {
			broken = append(broken, rec)
		}
	}

	return broken
}

// findOrphanedLaunchers returns launcher files in the applications directory
// that look pacbox-made but belong to no tracked container
func findOrphanedLaunchers(records []core.ContainerRecord, resolver *paths.Resolver) []string {
	tracked := make(map[string]bool, len(records))
	for _, rec := range records {
		for _, df := range rec.DesktopFiles {
			tracked[df] = true
		}
	}

	entries, err := os.ReadDir(resolver.AppsDir())
	if err != nil {
		return nil
	}

	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".desktop") {
			continue
		}
		full := filepath.Join(resolver.AppsDir(), entry.Name())
		for _, app := range core.ExportedApps {
			if strings.HasPrefix(entry.Name(), app+"-") && !tracked[full] {
				orphans = append(orphans, full)
			}
		}
	}

	return orphans
}

// checkEnvironment checks environment variables
func checkEnvironment() {
	envVars := []struct {
		name   string
		needed bool
	}{
		{"XDG_DATA_HOME", false},
		{"XDG_RUNTIME_DIR", true},
		{"USER", false},
		{"NO_COLOR", false},
	}

	for _, env := range envVars {
		value := os.Getenv(env.name)
		if value != "" {
			ui.PrintSuccess("%s: %s", env.name, value)
		} else {
			if env.needed {
				ui.PrintWarning("%s: not set", env.name)
			} else {
				ui.PrintInfo("%s: not set (using defaults)", env.name)
			}
		}
	}
}
