package ui

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Spinner wraps progressbar/v3 for unknown-length external commands
// such as a full pacman -Syu inside the container.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner with a description
func NewSpinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)

	return &Spinner{bar: bar}
}

// Write implements io.Writer so command output can drive the spinner
func (s *Spinner) Write(b []byte) (int, error) {
	s.bar.Add(1)
	return len(b), nil
}

// Finish completes the spinner
func (s *Spinner) Finish() error {
	return s.bar.Finish()
}
