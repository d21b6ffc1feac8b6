package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ValidContainerNameRegex matches what podman accepts as a container name
	ValidContainerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

	// ValidPackageNameRegex allows alphanumeric, dash, underscore, dot and plus
	ValidPackageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)
)

// MaxContainerNameLength mirrors the runtime's 63 character limit
const MaxContainerNameLength = 63

// ValidateContainerName validates a container name for safety
func ValidateContainerName(name string) error {
	if name == "" {
		return fmt.Errorf("container name cannot be empty")
	}

	if len(name) > MaxContainerNameLength {
		return fmt.Errorf("container name too long (max %d characters)", MaxContainerNameLength)
	}

	if !ValidContainerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid container name %q: must start with an alphanumeric character and contain only alphanumerics, dashes, or underscores", name)
	}

	return nil
}

// ValidatePackageName validates a package name before it is handed to pacman or yay
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}

	if !ValidPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must contain only alphanumeric, dash, underscore, dot, or plus characters", name)
	}

	return nil
}

// ValidateCommandArg validates a command-line argument for safety
func ValidateCommandArg(arg string) error {
	if strings.Contains(arg, "\x00") {
		return fmt.Errorf("argument contains null byte")
	}

	// Check for command injection patterns
	dangerousChars := []string{
		";", "&", "|", "`", "$", "(", ")", "<", ">", "\n", "\r",
	}

	for _, char := range dangerousChars {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains dangerous character: %s", char)
		}
	}

	return nil
}

// SanitizeName normalizes a string into a launcher-safe slug:
// lowercase alphanumerics, dots, underscores and single hyphens.
func SanitizeName(input string) string {
	result := strings.ReplaceAll(input, "\x00", "")

	result = strings.Map(func(r rune) rune {
		if r < 32 {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(strings.ToLower(result))

	var builder strings.Builder
	for _, r := range result {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result = builder.String()

	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}

	return strings.Trim(result, "-")
}

// IsPathWithinDirectory checks if a target path is within a given base directory.
// Both paths must be absolute.
func IsPathWithinDirectory(targetPath, basePath string) (bool, error) {
	if !filepath.IsAbs(targetPath) {
		return false, fmt.Errorf("target path must be absolute, got relative path: %s", targetPath)
	}
	if !filepath.IsAbs(basePath) {
		return false, fmt.Errorf("base path must be absolute, got relative path: %s", basePath)
	}

	cleanBase := filepath.Clean(basePath)
	cleanTarget := filepath.Clean(targetPath)

	rel, err := filepath.Rel(cleanBase, cleanTarget)
	if err != nil {
		return false, fmt.Errorf("failed to compute relative path: %w", err)
	}

	if strings.HasPrefix(rel, "..") {
		return false, nil
	}

	return true, nil
}
