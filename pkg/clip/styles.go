// SPDX-License-Identifier: MPL-2.0

package clip

import "github.com/charmbracelet/lipgloss"

// Color palette for CLI output, tuned for dark terminal backgrounds.
const (
	// ColorError is red - used for failure diagnostics.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for non-fatal notices.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorSuccess is green - used for completion messages.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorMuted is gray - used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
)

var (
	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings and caution states.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// MutedStyle is for de-emphasized supplementary output.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
