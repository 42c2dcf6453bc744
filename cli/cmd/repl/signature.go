package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/lang/stdlib"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string // dotted callee, e.g. "path.join"
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool
}

// detectFunctionCall finds the innermost call whose argument list contains
// the cursor. Parentheses inside string literals are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	// Walk forward once, keeping a stack of open parentheses.
	var (
		open  []int
		quote rune
	)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			open = append(open, i)
		case r == ')':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	if len(open) == 0 {
		return functionCall{}
	}

	paren := open[len(open)-1]

	nameStart := paren
	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])
		if r != '.' && r != '_' && !isAlnum(r) {
			break
		}

		nameStart -= size
	}

	name := strings.Trim(input[nameStart:paren], ".")
	if name == "" {
		return functionCall{}
	}

	// Count the commas at depth zero of this argument list.
	argIndex, depth := 0, 0
	quote = 0

	for _, r := range input[paren+1 : cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			argIndex++
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// signatureOf describes the function bound at the dotted name in globals.
// Library functions carry parameter names; other functions are shown
// without. It reports false when the name is not bound to a function.
func signatureOf(globals *lang.Map, name string) (stdlib.Signature, bool) {
	v := lang.MapValue(globals)

	for part := range strings.SplitSeq(name, ".") {
		if !v.IsMap() {
			return stdlib.Signature{}, false
		}

		var ok bool
		if v, ok = v.AsMap().Lookup(part); !ok {
			return stdlib.Signature{}, false
		}
	}

	if !v.IsFunction() {
		return stdlib.Signature{}, false
	}

	if sig, ok := stdlib.Lookup(name); ok {
		return sig, true
	}

	return stdlib.Signature{Name: name, Params: []string{"..."}}, true
}

// variadic reports whether a parameter accepts every remaining argument.
func variadic(param string) bool { return strings.HasSuffix(param, "...") }

// renderSignatureHint renders sig with the parameter at argIndex
// highlighted, followed by its summary.
func renderSignatureHint(sig stdlib.Signature, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig.Name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range sig.Params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if argIndex == i || (variadic(param) && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	if sig.Summary != "" {
		b.WriteString("  " + summaryStyle.Render(sig.Summary))
	}

	return b.String()
}
