package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"Primary": theme.Primary,
		"Muted":   theme.Muted,
		"Success": theme.Success,
		"Border":  theme.Border,
	} {
		if isColorEmpty(c) {
			t.Errorf("DefaultTheme %s color is empty", name)
		}
	}
}

func isColorEmpty(c lipgloss.AdaptiveColor) bool {
	return c.Light == "" && c.Dark == ""
}

func TestThemeByName(t *testing.T) {
	r := lipgloss.NewRenderer(nil)
	ThemeByName(r, "light")
	if r.HasDarkBackground() {
		t.Error("expected light theme to clear the dark background flag")
	}
	ThemeByName(r, "dark")
	if !r.HasDarkBackground() {
		t.Error("expected dark theme to set the dark background flag")
	}
}

func TestThemeFgBg_FollowProfile(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.ANSI
	if _, ok := ThemeBg("#282A36").(lipgloss.NoColor); !ok {
		t.Error("expected NoColor background below TrueColor")
	}
	if c, ok := ThemeFg("#BD93F9").(lipgloss.ANSIColor); !ok || c != 7 {
		t.Errorf("expected ANSI white foreground on 16-color terminals, got %v", ThemeFg("#BD93F9"))
	}

	TermProfile = colorprofile.TrueColor
	if c, ok := ThemeBg("#282A36").(lipgloss.Color); !ok || c != "#282A36" {
		t.Errorf("expected hex background on TrueColor, got %v", ThemeBg("#282A36"))
	}
}

func TestRenderProgress(t *testing.T) {
	theme := TestTheme()
	tests := []struct {
		step, total  int
		text         string
		filled, rest int
	}{
		{1, 8, "[1/8]", 1, 9},
		{4, 8, "[4/8]", 5, 5},
		{8, 8, "[8/8]", 10, 0},
		{1, 20, "[1/20]", 1, 9},
	}
	for _, tt := range tests {
		got := RenderProgress(theme, tt.step, tt.total, 10)
		if !strings.Contains(got, tt.text) {
			t.Errorf("RenderProgress(%d, %d) missing %q: %q", tt.step, tt.total, tt.text, got)
		}
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("RenderProgress(%d, %d) filled %d cells, want %d", tt.step, tt.total, n, tt.filled)
		}
		if n := strings.Count(got, "░"); n != tt.rest {
			t.Errorf("RenderProgress(%d, %d) left %d cells empty, want %d", tt.step, tt.total, n, tt.rest)
		}
	}
}
