package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	// Report bucket colors
	UpToDate    = color.New(color.FgGreen)
	Unknown     = color.New(color.FgYellow)
	Upgradeable = color.New(color.FgCyan)
	NotFound    = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)
	Dim     = color.New(color.Faint)

	// Structural colors
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// StatusColor returns the color for a report bucket name
func StatusColor(status string) *color.Color {
	switch status {
	case "up-to-date":
		return UpToDate
	case "unknown":
		return Unknown
	case "upgradeable":
		return Upgradeable
	case "not-found":
		return NotFound
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess writes a success message
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	Success.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintError writes an error message
func PrintError(w io.Writer, format string, args ...interface{}) {
	Error.Fprintf(w, "✗ "+format+"\n", args...)
}

// FormatPackage formats a package name with color
func FormatPackage(name string) string {
	return Package.Sprint(name)
}

// FormatUpgrade formats "old -> new" with the new version highlighted
func FormatUpgrade(from, to string) string {
	return fmt.Sprintf("%s -> %s", from, Upgradeable.Sprint(to))
}

// Section writes a bucket heading in the bucket's color
func Section(w io.Writer, status, title string) {
	StatusColor(status).Fprintln(w, title)
}
