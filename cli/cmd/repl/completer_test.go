package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/lang/stdlib"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "path.jo", 7, "jo", 5, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "round(fo", 8, "fo", 6, 8},
		{"after_comma", "pad(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a >= fo", 7, "fo", 5, 7},
		{"after_brace", "hi {fo", 6, "fo", 4, 6},
		{"after_section", "#1 {os.pl", 9, "pl", 7, 9},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"empty_after_dot", "os.", 3, "", 3, 3},
		{"cursor_clamped", "foo", 10, "foo", 0, 3},
		{"cursor_negative", "foo", -1, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTemplateOf(t *testing.T) {
	tests := []struct {
		input      string
		wantSrc    string
		wantOffset int
	}{
		{"1 + 2", "{1 + 2}", 1},
		{"", "{}", 1},
		{"Hello {name}", "Hello {name}", 0},
		{"#1 text", "#1 text", 0},
		{"{a} and {b}", "{a} and {b}", 0},
		{"'}' + x", "'}' + x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			src, offset := templateOf(tt.input)
			if src != tt.wantSrc || offset != tt.wantOffset {
				t.Errorf("templateOf(%q) = (%q, %d), want (%q, %d)",
					tt.input, src, offset, tt.wantSrc, tt.wantOffset)
			}
		})
	}
}

func TestMemberAccess(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      bool
	}{
		{"os.", 3, true},
		{"os. ", 4, true},
		{"a + ", 4, false},
		{"fo", 0, false},
		{"path.join(", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := memberAccess(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("memberAccess(%q, %d) = %v, want %v",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	rt := lang.NewRuntime(stdlib.New())

	tests := []struct {
		name      string
		input     string
		wantNames []string
		wantFuncs []string
		absent    []string
	}{
		{
			name:      "members_of_namespace",
			input:     "path.jo",
			wantNames: []string{"join", "base", "dir"},
			wantFuncs: []string{"join"},
		},
		{
			name:      "top_level",
			input:     "to",
			wantNames: []string{"toUpper", "toLower", "time", "os", "PI"},
			wantFuncs: []string{"toUpper", "toLower"},
			absent:    []string{"join"},
		},
		{
			name:      "inside_template",
			input:     "Hi {os.us",
			wantNames: []string{"user", "home", "platform"},
			absent:    []string{"toUpper"},
		},
		{
			name:      "operand",
			input:     "1 + fl",
			wantNames: []string{"floor"},
			wantFuncs: []string{"floor"},
		},
		{
			name:  "unresolved",
			input: "nope.x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, start, end := wordBounds(tt.input, len(tt.input))

			names, funcs := candidates(t.Context(), rt, tt.input, start, end)

			for _, want := range tt.wantNames {
				if !slices.Contains(names, want) {
					t.Errorf("candidates(%q) = %v, missing %q", tt.input, names, want)
				}
			}

			for _, want := range tt.wantFuncs {
				if !funcs[want] {
					t.Errorf("candidates(%q): %q not marked as function", tt.input, want)
				}
			}

			for _, name := range tt.absent {
				if slices.Contains(names, name) {
					t.Errorf("candidates(%q) = %v, unexpected %q", tt.input, names, name)
				}
			}

			if tt.wantNames == nil && len(names) != 0 {
				t.Errorf("candidates(%q) = %v, want none", tt.input, names)
			}
		})
	}
}

func TestRenderCandidateBar(t *testing.T) {
	names := []string{"abs", "ceil", "floor", "round", "random", "replace", "string"}

	matches := make(fuzzy.Matches, len(names))
	for i, name := range names {
		matches[i] = fuzzy.Match{Str: name, Index: i}
	}

	funcs := map[string]bool{"abs": true}

	t.Run("empty", func(t *testing.T) {
		if got := renderCandidateBar(nil, funcs, 0, false, 80); got != "" {
			t.Errorf("renderCandidateBar(nil) = %q, want empty", got)
		}
	})

	t.Run("fits", func(t *testing.T) {
		got := renderCandidateBar(matches, funcs, -1, false, 200)
		if strings.Contains(got, "...") {
			t.Errorf("renderCandidateBar() = %q, want no ellipsis", got)
		}

		if !strings.Contains(got, "(") {
			t.Errorf("renderCandidateBar() = %q, want function marker", got)
		}
	})

	for _, width := range []int{10, 20, 30} {
		t.Run("ellipsized", func(t *testing.T) {
			got := renderCandidateBar(matches, funcs, 1, true, width)
			if w := lipgloss.Width(got); w > width {
				t.Errorf("renderCandidateBar(width=%d) has width %d", width, w)
			}

			if !strings.Contains(got, "...") {
				t.Errorf("renderCandidateBar(width=%d) = %q, want ellipsis", width, got)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	globals := stdlib.New().
		SetString("short", "hi").
		SetString("long", strings.Repeat("x", 100)).
		SetNumber("n", 42).
		SetMap("ns", lang.NewMap().SetNumber("a", 1).SetNumber("_b", 2))

	tests := []struct {
		path string
		want string
	}{
		{"short", `"hi"`},
		{"n", "42"},
		{"ns", "{ 1 members }"},
		{"pad", "pad(x, width)  Pad to width; negative widths pad on the right."},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			v, ok := globals.Lookup(tt.path)
			if !ok {
				t.Fatalf("Lookup(%q) failed", tt.path)
			}

			if got := preview(tt.path, v); got != tt.want {
				t.Errorf("preview(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()

		v, _ := globals.Lookup("long")

		got := preview("long", v)
		if len(got) != previewWidth || !strings.HasSuffix(got, "...") {
			t.Errorf("preview(long) = %q, want %d runes ending in ...", got, previewWidth)
		}
	})
}
