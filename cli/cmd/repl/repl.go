package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/log"
)

// editDoneMsg is sent when the edited template was accepted.
type editDoneMsg struct{ text string }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-parse error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode, or prefix a line with ':'):

  help            Print this cruft
  vars [path]     List the members of the globals, or of the map at path
  ast [input]     Print the syntax tree of input, or of the last input
  disasm [input]  Print the bytecode of input, or of the last input
  edit            Edit the last input in $EDITOR and render it
  clear           Clear screen
  quit            Exit REPL

Usage:
  Type an expression to render it, e.g. 1 + 2 or path.join('a', 'b')
  A line holding '{', '}' or '#' is rendered as a whole template
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true).
			Underline(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true).Underline(true)
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and input
// styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	rt               *lang.Runtime
	logger           log.Logger
	history          *History
	historyIdx       int
	last             string          // most recent evaluated input
	matches          fuzzy.Matches   // current fuzzy match results
	funcs            map[string]bool // candidates bound to functions
	wordStart        int             // byte offset of current word start
	wordEnd          int             // byte offset of current word end
	suggIdx          int             // selected candidate index
	tabActive        bool            // whether user is tab-cycling
	preTabText       string          // input text before tab-cycling began
	preTabCursor     int             // cursor position before tab-cycling began
	altNavActive     bool            // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode       // original mode before Alt navigation
	altNavOrigText   string          // original text before Alt navigation
	altNavOrigCursor int             // original cursor position before Alt navigation
	width            int             // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts an interactive session rendering input against rt. History is
// persisted at historyPath unless it is empty.
func Run(
	ctx context.Context,
	rt *lang.Runtime,
	historyPath string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", historyPath),
		slog.Int("globals", rt.Globals().Len()),
	)

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, rt, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	rt *lang.Runtime,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		rt:         rt,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m.last = msg.text
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("source_bytes", len(msg.text)),
		)

		out, err := render(m.ctxFunc(), m.rt, msg.text)
		if err != nil {
			return m, tea.Println(errorStyle.Render("error: " + err.Error()))
		}

		return m, tea.Println(out)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type an expression or template, or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case call.inCall && m.mode == modeEval && len(m.matches) == 0:
		if sig, ok := signatureOf(m.rt.Globals(), call.name); ok {
			b.WriteString(renderSignatureHint(sig, call.argIndex))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.funcs, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyAny(-1), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyAny(1), nil

	case tea.KeyShiftUp:
		return m.historyInMode(-1), nil

	case tea.KeyShiftDown:
		return m.historyInMode(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space accepts the candidate under tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Deletion and cursor movement recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end. A sole
// candidate is completed and confirmed immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	case step < 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.funcs, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if candidate := m.matches[0].Str; m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	mode := m.mode

	// A leading colon runs a command without leaving eval mode.
	if line, ok := strings.CutPrefix(input, ":"); ok && mode == modeEval {
		input, mode = strings.TrimSpace(line), modeCtrl
	}

	if err := m.history.Add(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	m.last = input
	echo := tea.Println(formatCommand(input))

	src, _ := templateOf(input)

	out, err := render(m.ctxFunc(), m.rt, src)
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	echo := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", name),
		slog.String("arg", arg),
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())
	}

	if arg == "" && (name == "ast" || name == "disasm") {
		arg = m.last
	}

	out, err := command(m.ctxFunc(), m.rt, name, arg, m.logger)
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

// edit opens the last input, as a template, in the user's editor.
func (m model) edit() tea.Cmd {
	text, _ := templateOf(m.last)
	if m.last == "" {
		text = ""
	}

	cmd := &editCommand{
		text:    text,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.edited == "":
			return editCancelledMsg{}
		}

		return editDoneMsg{text: cmd.edited}
	})
}

// render runs the template src and formats its sections for display. Text
// in any section but 0 is shown beneath a header naming its index.
func render(ctx context.Context, rt *lang.Runtime, src string) (string, error) {
	s, err := rt.Eval(ctx, src)
	if err != nil {
		return "", err
	}

	multi := false

	for n := range s.All() {
		if n.Index != 0 {
			multi = true

			break
		}
	}

	if !multi {
		return resultStyle.Render(s.String()), nil
	}

	var (
		b     strings.Builder
		index = -1
	)

	for n := range s.All() {
		if int(n.Index) != index {
			index = int(n.Index)

			if b.Len() > 0 {
				b.WriteString("\n")
			}

			b.WriteString(sectionStyle.Render("#"+strconv.Itoa(index)) + "\n")
		}

		b.WriteString(resultStyle.Render(n.Text))
	}

	return b.String(), nil
}

// command runs the control command name with its argument and returns the
// text to display.
func command(ctx context.Context, rt *lang.Runtime, name, arg string, logger log.Logger) (string, error) {
	switch name {
	case "h", "help":
		return helpMessage, nil

	case "v", "vars":
		return listVars(rt.Globals(), arg)

	case "a", "ast":
		src, _ := templateOf(arg)
		res := lang.Parse(ctx, src, lang.WithLogger(logger))

		var b strings.Builder
		if err := lang.WriteExprs(ctx, &b, res.Exprs, lang.FormatTree, 2); err != nil {
			return "", err
		}

		if res.HasErrors() {
			b.WriteString(errorStyle.Render(res.Err().Error()) + "\n")
		}

		return strings.TrimSuffix(b.String(), "\n"), nil

	case "d", "disasm":
		src, _ := templateOf(arg)

		prog, err := lang.CompileString(ctx, src, lang.WithLogger(logger))
		if err != nil {
			return "", err
		}

		var b strings.Builder
		if err := lang.WriteProgram(ctx, &b, prog, lang.FormatText, 2); err != nil {
			return "", err
		}

		return strings.TrimSuffix(b.String(), "\n"), nil
	}

	return "", fmt.Errorf("%w: %s (try 'help')", ErrUnknownCommand, name)
}

// listVars lists the public members of globals, or of the map bound at the
// dotted path, one per line with a preview of each value.
func listVars(globals *lang.Map, path string) (string, error) {
	ns := globals

	if path != "" {
		v := lang.MapValue(globals)

		for part := range strings.SplitSeq(path, ".") {
			var ok bool
			if !v.IsMap() {
				return "", fmt.Errorf("%w: %s", ErrNotNamespace, path)
			}

			if v, ok = v.AsMap().Lookup(part); !ok {
				return "", fmt.Errorf("%w: %s", ErrNotNamespace, path)
			}
		}

		if !v.IsMap() {
			return "", fmt.Errorf("%w: %s", ErrNotNamespace, path)
		}

		ns = v.AsMap()
	}

	var b strings.Builder

	for name := range ns.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}

		v, ok := ns.Lookup(name)
		if !ok {
			continue
		}

		full := name
		if path != "" {
			full = path + "." + name
		}

		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(preview(full, v)))
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

// historyStep moves from historyIdx by dir to the nearest entry accepted by
// keep, loading it into the input in its own mode. It reports whether an
// entry was found.
func (m model) historyStep(dir int, keep func(inputMode) bool) (model, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.Entry(i)
		if err != nil || !keep(entry.Mode) {
			continue
		}

		if m.mode != entry.Mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m, true
	}

	return m, false
}

// leaveHistory returns to the empty line past the newest entry.
func (m model) leaveHistory() model {
	if m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

func (m model) historyAny(dir int) model {
	m, ok := m.historyStep(dir, func(inputMode) bool { return true })
	if !ok && dir > 0 {
		return m.leaveHistory()
	}

	return m
}

func (m model) historyInMode(dir int) model {
	mode := m.mode

	m, ok := m.historyStep(dir, func(e inputMode) bool { return e == mode })
	if !ok && dir > 0 {
		return m.leaveHistory()
	}

	return m
}

// historyCtrl walks command history only. The mode and text in place before
// the walk are restored once either end is passed.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	m, ok := m.historyStep(dir, func(e inputMode) bool { return e == modeCtrl })
	if ok {
		return m
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// switchToMode switches to the specified mode, preserving each mode's input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
