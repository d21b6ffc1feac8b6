package desktop

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pacbox/pacbox/internal/core"
)

// Parse parses a .desktop file from a reader
func Parse(r io.Reader) (*core.DesktopEntry, error) {
	de := &core.DesktopEntry{}
	scanner := bufio.NewScanner(r)
	inDesktopEntry := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if line == "[Desktop Entry]" {
			inDesktopEntry = true
			continue
		}
		if strings.HasPrefix(line, "[") {
			inDesktopEntry = false
			continue
		}

		if inDesktopEntry && strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			switch key {
			case "Type":
				de.Type = value
			case "Name":
				de.Name = value
			case "GenericName":
				de.GenericName = value
			case "Exec":
				de.Exec = value
			case "Icon":
				de.Icon = value
			case "Comment":
				de.Comment = value
			case "Categories":
				de.Categories = parseSemicolonList(value)
			case "Keywords":
				de.Keywords = parseSemicolonList(value)
			case "Terminal":
				de.Terminal = value == "true"
			case "StartupWMClass":
				de.StartupWMClass = value
			case "NoDisplay":
				de.NoDisplay = value == "true"
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan desktop file: %w", err)
	}

	return de, nil
}

// Write writes a .desktop file to a writer
func Write(w io.Writer, de *core.DesktopEntry) error {
	fmt.Fprintln(w, "[Desktop Entry]")
	fmt.Fprintf(w, "Type=%s\n", de.Type)
	fmt.Fprintf(w, "Name=%s\n", de.Name)
	fmt.Fprintf(w, "Exec=%s\n", de.Exec)

	if de.GenericName != "" {
		fmt.Fprintf(w, "GenericName=%s\n", de.GenericName)
	}
	if de.Icon != "" {
		fmt.Fprintf(w, "Icon=%s\n", de.Icon)
	}
	if de.Comment != "" {
		fmt.Fprintf(w, "Comment=%s\n", de.Comment)
	}
	if len(de.Categories) > 0 {
		fmt.Fprintf(w, "Categories=%s\n", strings.Join(de.Categories, ";")+";")
	}
	if len(de.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords=%s\n", strings.Join(de.Keywords, ";")+";")
	}
	if de.Terminal {
		fmt.Fprintln(w, "Terminal=true")
	}
	if de.StartupWMClass != "" {
		fmt.Fprintf(w, "StartupWMClass=%s\n", de.StartupWMClass)
	}
	if de.NoDisplay {
		fmt.Fprintln(w, "NoDisplay=true")
	}

	return nil
}

// Validate checks if the desktop entry has required fields
func Validate(de *core.DesktopEntry) error {
	if de.Type == "" {
		return fmt.Errorf("Type field is required")
	}
	if de.Name == "" {
		return fmt.Errorf("Name field is required")
	}
	if de.Exec == "" {
		return fmt.Errorf("Exec field is required")
	}
	return nil
}

// WriteFile validates and writes a desktop entry to a file
func WriteFile(filePath string, de *core.DesktopEntry) error {
	if err := Validate(de); err != nil {
		return fmt.Errorf("invalid desktop entry: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create desktop file: %w", err)
	}
	defer file.Close()

	return Write(file, de)
}

// ContainerAppEntry builds the launcher used when distrobox-export fails and
// the launcher has to be written by hand. The Exec line enters the container
// the same way distrobox-export would.
func ContainerAppEntry(app, container string) *core.DesktopEntry {
	return &core.DesktopEntry{
		Type:           "Application",
		Name:           fmt.Sprintf("%s (on %s)", displayName(app), container),
		GenericName:    "Package Manager",
		Comment:        fmt.Sprintf("Run %s inside the %s container", app, container),
		Exec:           fmt.Sprintf("distrobox enter %s -- %s", container, app),
		Icon:           app,
		Categories:     []string{"System", "PackageManager"},
		Keywords:       []string{"pacman", "aur", "package"},
		StartupWMClass: app,
	}
}

func displayName(app string) string {
	switch app {
	case "pamac-manager":
		return "Pamac"
	default:
		return app
	}
}

func parseSemicolonList(value string) []string {
	value = strings.TrimSuffix(value, ";")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
