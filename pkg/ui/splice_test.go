package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestSplice_PlainText(t *testing.T) {
	view := "aaaaaaaaaa\nbbbbbbbbbb\ncccccccccc"
	got := ansi.Strip(Splice(view, []string{"XY", "ZW"}, 3, 1))
	want := "aaaaaaaaaa\nbbbXYbbbbb\ncccZWccccc"
	if got != want {
		t.Errorf("Splice =\n%s\nwant\n%s", got, want)
	}
}

func TestSplice_ClipsOutsideView(t *testing.T) {
	view := "0123456789\n0123456789"
	got := ansi.Strip(Splice(view, []string{"AB", "CD", "EF"}, -1, 1))
	want := "0123456789\nB123456789"
	if got != want {
		t.Errorf("Splice =\n%s\nwant\n%s", got, want)
	}
}

func TestSplice_PastLineEndPads(t *testing.T) {
	got := ansi.Strip(Splice("ab", []string{"X"}, 4, 0))
	if got != "ab  X" {
		t.Errorf("expected padding up to the anchor, got %q", got)
	}
}

func TestSplice_PreservesStyling(t *testing.T) {
	style := lipgloss.NewStyle().Bold(true)
	line := style.Render("left") + "middle" + style.Render("right")
	got := Splice(line, []string{"##"}, 4, 0)
	if ansi.Strip(got) != "left##ddleright" {
		t.Errorf("unexpected text %q", ansi.Strip(got))
	}
	if ansi.StringWidth(got) != ansi.StringWidth(line) {
		t.Errorf("width changed: %d vs %d", ansi.StringWidth(got), ansi.StringWidth(line))
	}
}

func TestCut(t *testing.T) {
	view := "0123456789\nabcdefghij\nKLMNOPQRST"
	got := Cut(view, 2, 1, 5, 4)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0] != "cde" || got[1] != "MNO" || got[2] != "" {
		t.Errorf("unexpected cut %q", got)
	}
	if Cut(view, 5, 0, 5, 1) != nil {
		t.Error("expected empty rect to cut nothing")
	}
}

func TestDim_StripsAndRestyles(t *testing.T) {
	style := lipgloss.NewStyle().Faint(true)
	view := lipgloss.NewStyle().Bold(true).Render("hello") + "\n\nworld"
	got := Dim(view, style)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 || lines[1] != "" {
		t.Fatalf("unexpected dimmed view %q", got)
	}
	if ansi.Strip(lines[0]) != "hello" || ansi.Strip(lines[2]) != "world" {
		t.Errorf("dim changed text: %q", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"fits", "short text", 20, []string{"short text"}},
		{"wraps", "the quick brown fox", 9, []string{"the quick", "brown fox"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"paragraphs", "one\n\ntwo", 10, []string{"one", "", "two"}},
		{"wide runes", "日本語テキスト", 6, []string{"日本語", "テキス", "ト"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.in, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncate_Width(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello w…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 8); got != "hi" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hello", 0); got != "" {
		t.Errorf("truncate = %q", got)
	}
}

func TestCompactLines(t *testing.T) {
	got := compactLines([]string{"", "  ", "a", "", "", "b", "", ""})
	if strings.Join(got, "|") != "a||b" {
		t.Errorf("compactLines = %q", got)
	}
}

func TestFormatTimeRel(t *testing.T) {
	now := time.Now()
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(time.Hour), "now"},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5*time.Minute - time.Second), "5m ago"},
		{now.Add(-3*time.Hour - time.Minute), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeRel(tt.in); got != tt.want {
			t.Errorf("FormatTimeRel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
