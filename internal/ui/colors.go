package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14" // Neon green
	ColorError   lipgloss.Color = "#FF0055" // Hot red-pink
	ColorWarning lipgloss.Color = "#FFAA00" // Electric amber
	ColorInfo    lipgloss.Color = "#00FFFF" // Neon cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#FFFFFF" // White
	ColorSecondary lipgloss.Color = "#B4B4D0" // Lavender
	ColorMuted     lipgloss.Color = "#6B6B8D" // Purple-gray
)

// GradientColors drive the spinner's color cycle (pink -> purple -> cyan -> green).
var GradientColors = []lipgloss.Color{"#FF2E97", "#B026FF", "#00FFFF", "#39FF14"}

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func InfoStyle() lipgloss.Style    { return lipgloss.NewStyle().Foreground(ColorInfo) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// DisableColors switches lipgloss to plain ASCII output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureColors picks the color profile for w. Colors are off when
// noColor is set, NO_COLOR is set, or w isn't a terminal.
func ConfigureColors(w io.Writer, noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		DisableColors()
		return
	}
	out := termenv.NewOutput(w)
	lipgloss.SetColorProfile(out.EnvColorProfile())
}

// PrintWarning writes a yellow warning line to stderr.
func PrintWarning(message string) {
	FprintWarning(os.Stderr, message)
}

// FprintWarning writes a yellow warning line to w.
func FprintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle().Render(SymbolWarning), message)
}
