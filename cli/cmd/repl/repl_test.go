package repl

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/lang/stdlib"
	"github.com/ardnew/scribe/log"
)

func newRuntime() *lang.Runtime {
	clock := func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

	globals := stdlib.New(stdlib.WithClock(clock)).
		SetMap("player", lang.NewMap().
			SetString("name", "steve").
			SetNumber("health", 20))

	return lang.NewRuntime(globals, lang.WithLogger(log.Discard()))
}

func TestRender(t *testing.T) {
	t.Parallel()

	rt := newRuntime()

	tests := []struct {
		name    string
		src     string
		want    []string
		wantErr bool
	}{
		{"expression", "{1 + 2}", []string{"3"}, false},
		{"template", "Hi {player.name}!", []string{"Hi steve!"}, false},
		{"sections", "a #1 b #2 c", []string{"#0", "a ", "#1", "b ", "#2", "c"}, false},
		{"runtime error", "{nope()}", nil, true},
		{"syntax error", "{1 +", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := render(t.Context(), rt, tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("render(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}

			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("render(%q) = %q, missing %q", tt.src, got, want)
				}
			}
		})
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	rt := newRuntime()

	tests := []struct {
		name    string
		cmd     string
		arg     string
		want    []string
		wantErr error
	}{
		{"help", "help", "", []string{"vars [path]", "disasm"}, nil},
		{"vars", "vars", "", []string{"player", "pad", "{ 2 members }"}, nil},
		{"vars path", "vars", "player", []string{"name", `"steve"`, "health"}, nil},
		{"vars nested", "v", "os", []string{"home"}, nil},
		{"vars scalar", "vars", "player.name", nil, ErrNotNamespace},
		{"vars missing", "vars", "nope.deeper", nil, ErrNotNamespace},
		{"ast", "ast", "1 + 2", []string{"Block", "Binary"}, nil},
		{"ast syntax error", "ast", "1 +", nil, nil},
		{"disasm", "disasm", "Hi {player.name}", []string{"get", "name"}, nil},
		{"unknown", "frob", "", nil, ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := command(t.Context(), rt, tt.cmd, tt.arg, log.Discard())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("command(%q, %q) error = %v, want %v", tt.cmd, tt.arg, err, tt.wantErr)
			}

			for _, want := range tt.want {
				if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
					t.Errorf("command(%q, %q) = %q, missing %q", tt.cmd, tt.arg, got, want)
				}
			}
		})
	}
}

func TestListVars_HidesPrivate(t *testing.T) {
	t.Parallel()

	globals := lang.NewMap().SetString("shown", "x").SetString("_hidden", "y")

	got, err := listVars(globals, "")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(got, "shown") || strings.Contains(got, "_hidden") {
		t.Errorf("listVars() = %q", got)
	}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func update(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()

	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}

	return m
}

func testModel(t *testing.T, entries ...HistoryEntry) model {
	t.Helper()

	h := NewHistory("")
	for _, e := range entries {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	return newModel(t.Context(), newRuntime(), h, log.Discard())
}

func TestModel_HistoryNavigation(t *testing.T) {
	t.Parallel()

	entries := []HistoryEntry{
		{"1 + 2", modeEval},
		{"vars", modeCtrl},
		{"player.name", modeEval},
	}

	t.Run("any mode", func(t *testing.T) {
		t.Parallel()

		m := update(t, testModel(t, entries...), key(tea.KeyUp))
		if m.input.Value() != "player.name" || m.mode != modeEval {
			t.Fatalf("after Up: %q mode %d", m.input.Value(), m.mode)
		}

		m = update(t, m, key(tea.KeyUp))
		if m.input.Value() != "vars" || m.mode != modeCtrl {
			t.Fatalf("after Up Up: %q mode %d", m.input.Value(), m.mode)
		}

		m = update(t, m, key(tea.KeyDown), key(tea.KeyDown))
		if m.input.Value() != "" || m.historyIdx != 3 {
			t.Errorf("past newest: %q idx %d", m.input.Value(), m.historyIdx)
		}
	})

	t.Run("within mode", func(t *testing.T) {
		t.Parallel()

		m := update(t, testModel(t, entries...), key(tea.KeyShiftUp), key(tea.KeyShiftUp))
		if m.input.Value() != "1 + 2" || m.historyIdx != 0 {
			t.Errorf("after ShiftUp x2: %q idx %d", m.input.Value(), m.historyIdx)
		}
	})

	t.Run("command history restores", func(t *testing.T) {
		t.Parallel()

		m := update(t, testModel(t, entries...), runes("draft"))

		m = update(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
		if m.input.Value() != "vars" || m.mode != modeCtrl {
			t.Fatalf("after Alt+Up: %q mode %d", m.input.Value(), m.mode)
		}

		m = update(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
		if m.input.Value() != "draft" || m.mode != modeEval {
			t.Errorf("after passing oldest command: %q mode %d", m.input.Value(), m.mode)
		}
	})
}

func TestModel_ModeToggle(t *testing.T) {
	t.Parallel()

	m := update(t, testModel(t), runes("1 +"), key(tea.KeyEsc))
	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("after Esc: mode %d input %q", m.mode, m.input.Value())
	}

	m = update(t, m, runes("he"), key(tea.KeyEsc))
	if m.mode != modeEval || m.input.Value() != "1 +" {
		t.Errorf("after Esc Esc: mode %d input %q", m.mode, m.input.Value())
	}

	m = update(t, m, key(tea.KeyEsc))
	if m.input.Value() != "he" {
		t.Errorf("command text not preserved: %q", m.input.Value())
	}
}

func TestModel_TabCycle(t *testing.T) {
	t.Parallel()

	m := update(t, testModel(t), runes("path."))
	if len(m.matches) == 0 {
		t.Fatal("no matches after member access")
	}

	first := m.matches[0].Str

	m = update(t, m, key(tea.KeyTab))
	if got := m.input.Value(); got != "path."+first {
		t.Errorf("after Tab: %q, want %q", got, "path."+first)
	}

	m = update(t, m, key(tea.KeyTab), key(tea.KeyShiftTab))
	if got := m.input.Value(); got != "path."+first {
		t.Errorf("after Tab Tab ShiftTab: %q, want %q", got, "path."+first)
	}

	m = update(t, m, key(tea.KeyEsc))
	if got := m.input.Value(); got != "path." || m.tabActive {
		t.Errorf("after Esc: %q, want original text", got)
	}
}

func TestModel_Execute(t *testing.T) {
	t.Parallel()

	m := update(t, testModel(t), runes("1 + 2"), key(tea.KeyEnter))
	if m.last != "1 + 2" || m.input.Value() != "" {
		t.Errorf("after Enter: last %q input %q", m.last, m.input.Value())
	}

	if e, err := m.history.Entry(0); err != nil || e != (HistoryEntry{"1 + 2", modeEval}) {
		t.Errorf("history = %v, %v", e, err)
	}

	m = update(t, m, runes(":vars"), key(tea.KeyEnter))
	if m.mode != modeEval {
		t.Errorf("colon command switched mode to %d", m.mode)
	}

	if e, err := m.history.Entry(1); err != nil || e != (HistoryEntry{"vars", modeCtrl}) {
		t.Errorf("history = %v, %v", e, err)
	}
}
