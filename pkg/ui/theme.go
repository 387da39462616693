package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	// Accents
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	// Host styles
	Base     lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Status   lipgloss.Style
	Column   lipgloss.Style

	// Overlay styles, created once instead of per frame
	Backdrop     lipgloss.Style
	Tooltip      lipgloss.Style
	TooltipTitle lipgloss.Style
	TooltipBody  lipgloss.Style
	Arrow        lipgloss.Style
	ProgressText lipgloss.Style
	ProgressFill lipgloss.Style
	ProgressRest lipgloss.Style
	Prompt       lipgloss.Style
	Toast        lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme. Whether the
// light or dark half of each color is used is decided by the renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,
		Muted:     ColorMuted,
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: ColorBgHighlight,

		Success: ColorSuccess,
		Warning: ColorWarning,
		Danger:  ColorDanger,
		Info:    ColorInfo,
	}

	// pick resolves an adaptive color for the renderer's background so it
	// can go through ThemeFg/ThemeBg.
	pick := func(c lipgloss.AdaptiveColor) string {
		if r.HasDarkBackground() {
			return c.Dark
		}
		return c.Light
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Selected = r.NewStyle().
		Background(ThemeBg(pick(t.Highlight))).
		Bold(true)

	t.Status = r.NewStyle().Foreground(t.Subtext)

	t.Column = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)

	t.Backdrop = r.NewStyle().Foreground(t.Muted).Faint(true)

	t.Tooltip = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	t.TooltipTitle = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.TooltipBody = r.NewStyle().Foreground(ColorText)
	t.Arrow = r.NewStyle().Foreground(ThemeFg(pick(t.Primary))).Bold(true)
	t.ProgressText = r.NewStyle().Foreground(t.Subtext)
	t.ProgressFill = r.NewStyle().Foreground(t.Success)
	t.ProgressRest = r.NewStyle().Foreground(t.Muted)

	t.Prompt = r.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Warning).
		Padding(0, 2)

	t.Toast = r.NewStyle().Foreground(t.Success).Bold(true)

	return t
}

// ThemeByName returns DefaultTheme with the renderer forced to the named
// background ("dark" or "light"). Anything else keeps the detected one.
func ThemeByName(r *lipgloss.Renderer, name string) Theme {
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return DefaultTheme(r)
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
