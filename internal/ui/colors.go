package ui

import (
	"fmt"
	"os"
	"strings"
)

// Color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"

	BrightBlack  = "\033[90m"
	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// Theme defines the color scheme for different UI elements
type Theme struct {
	// Status indicators
	Success string
	Warning string
	Error   string
	Info    string

	// UI elements
	Header      string
	SubHeader   string
	Label       string
	Value       string
	Description string
	Separator   string

	// Progress indicators
	Progress string
	Complete string
	Pending  string
}

// DefaultTheme returns the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,

		Header:      Bold + BrightCyan,
		SubHeader:   Bold + Cyan,
		Label:       Bold, // Bold + terminal default color for visibility on all backgrounds
		Value:       "",   // Use terminal default foreground color for best contrast
		Description: BrightBlack,
		Separator:   BrightBlack,

		Progress: BrightYellow,
		Complete: BrightGreen,
		Pending:  BrightBlack,
	}
}

// ColorConfig manages color output settings
type ColorConfig struct {
	Enabled      bool
	EmojiEnabled bool
	Theme        *Theme
}

// NewColorConfig creates a new color configuration with default settings
func NewColorConfig() *ColorConfig {
	// Disable colors if NO_COLOR is set or TERM is dumb
	noColor := os.Getenv("NO_COLOR") != ""
	term := os.Getenv("TERM")
	enabled := !noColor && term != "dumb" && term != ""

	return &ColorConfig{
		Enabled:      enabled,
		EmojiEnabled: true,
		Theme:        DefaultTheme(),
	}
}

// Apply applies a color to text if colors are enabled
func (c *ColorConfig) Apply(color, text string) string {
	if !c.Enabled {
		return text
	}
	return color + text + Reset
}

// Success formats success messages
func (c *ColorConfig) Success(text string) string {
	return c.Apply(c.Theme.Success, text)
}

// Warning formats warning messages
func (c *ColorConfig) Warning(text string) string {
	return c.Apply(c.Theme.Warning, text)
}

// Error formats error messages
func (c *ColorConfig) Error(text string) string {
	return c.Apply(c.Theme.Error, text)
}

// Info formats info messages
func (c *ColorConfig) Info(text string) string {
	return c.Apply(c.Theme.Info, text)
}

// Header formats header text
func (c *ColorConfig) Header(text string) string {
	return c.Apply(c.Theme.Header, text)
}

// SubHeader formats sub-header text
func (c *ColorConfig) SubHeader(text string) string {
	return c.Apply(c.Theme.SubHeader, text)
}

// Label formats label text
func (c *ColorConfig) Label(text string) string {
	return c.Apply(c.Theme.Label, text)
}

// Value formats value text
func (c *ColorConfig) Value(text string) string {
	return c.Apply(c.Theme.Value, text)
}

// Description formats description text
func (c *ColorConfig) Description(text string) string {
	return c.Apply(c.Theme.Description, text)
}

// FormatKeyValue formats a key-value pair with proper colors
func (c *ColorConfig) FormatKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", c.Label(key), c.Value(value))
}

// FormatCommand formats a command with its description
func (c *ColorConfig) FormatCommand(cmd, desc string) string {
	return fmt.Sprintf("  %s  %s", c.Apply(BrightGreen, cmd), c.Description(desc))
}

// Separator returns a colored separator line
func (c *ColorConfig) Separator(width int) string {
	sep := strings.Repeat("─", width)
	return c.Apply(c.Theme.Separator, sep)
}
