package repl

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/lang/stdlib"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "ast", "disasm", "edit", "clear", "quit"}

// templateOf returns the template evaluated for an input line and the offset
// of the line within it. A line holding a brace or a section marker is a
// template as written; any other line is a single expression.
func templateOf(input string) (src string, offset int) {
	if strings.ContainsAny(input, "{}#") {
		return input, 0
	}

	return "{" + input + "}", 1
}

// isWordBoundary reports whether r ends an identifier for completion
// purposes: whitespace, the member-access dot, quotes, and the operator and
// punctuation characters of the template language.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '\n',
		'(', ')', '{', '}', '#',
		'+', '-', '*', '/', '%', '^',
		'<', '>', '=', '!',
		',', '?', ':', '\'', '"':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// memberAccess reports whether the word starting at wordStart follows a dot.
func memberAccess(input string, wordStart int) bool {
	return strings.HasSuffix(strings.TrimRight(input[:wordStart], " \t"), ".")
}

// candidates returns the names that may stand in the word of input spanning
// wordStart to wordEnd, and which of them are functions. The template
// language's own completion supplies the names. It is first asked at the word
// start so the typed prefix does not filter what fuzzy matching ranks; where
// nothing completes there, such as the first argument of a call, it is asked
// at the word end instead.
func candidates(ctx context.Context, rt *lang.Runtime, input string, wordStart, wordEnd int) (names []string, funcs map[string]bool) {
	_, offset := templateOf(input)

	for _, n := range []int{wordStart, wordEnd} {
		src := input[:n]
		if offset > 0 {
			src = "{" + src
		}

		comps := rt.Complete(ctx, src, len(src))
		if len(comps) == 0 {
			continue
		}

		names = make([]string, len(comps))
		funcs = make(map[string]bool, len(comps))

		for i, c := range comps {
			names[i] = c.Name
			funcs[c.Name] = c.Function
		}

		return names, funcs
	}

	return nil, nil
}

// computeMatches ranks the candidates for the word at the cursor. An empty
// word completes nothing at the top level, leaving room for the hint line,
// but lists every member after a dot.
func (m model) computeMatches() (matches fuzzy.Matches, funcs map[string]bool, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var names []string

	switch {
	case m.mode == modeCtrl:
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		names = ctrlCommands

	case word == "" && !memberAccess(input, wordStart):
		return nil, nil, wordStart, wordEnd

	default:
		names, funcs = candidates(m.ctxFunc(), m.rt, input, wordStart, wordEnd)
	}

	if len(names) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		matches = make(fuzzy.Matches, len(names))
		for i, name := range names {
			matches[i] = fuzzy.Match{Str: name, Index: i}
		}

		return matches, funcs, wordStart, wordEnd
	}

	return fuzzy.Find(word, names), funcs, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate, while tab-cycling, uses the selected
// style.
func renderCandidateBar(matches fuzzy.Matches, funcs map[string]bool, suggIdx int, tabActive bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, funcs[match.Str], tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1
		if i > 0 && used+entryWidth+ellipsisWidth > width && !(last && used+entryWidth <= width) {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Functions are displayed, but not completed, with "()".
func renderCandidate(match fuzzy.Match, function, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if function {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// previewWidth bounds the value shown by the vars command.
const previewWidth = 40

// preview describes a namespace member in one short line.
func preview(path string, v lang.Value) string {
	switch {
	case v.IsFunction():
		if sig, ok := stdlib.Lookup(path); ok {
			return sig.String() + "  " + sig.Summary
		}

		return path + "(...)"

	case v.IsMap():
		return fmt.Sprintf("{ %d members }", countMembers(v.AsMap()))

	case v.IsString():
		return truncate(fmt.Sprintf("%q", v.AsString()))

	default:
		return truncate(v.String())
	}
}

func countMembers(m *lang.Map) int {
	n := 0

	for k := range m.Keys() {
		if !strings.HasPrefix(k, "_") {
			n++
		}
	}

	return n
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= previewWidth {
		return s
	}

	r := []rune(s)

	return string(r[:previewWidth-3]) + "..."
}
