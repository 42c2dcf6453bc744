package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_AddAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"1 + 2", modeEval},
		{"vars os", modeCtrl},
		{"   ", modeEval},
		{"Hi {os.user}", modeEval},
		{"Hi {os.user}", modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q): %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"1 + 2", modeEval},
		{"vars os", modeCtrl},
		{"Hi {os.user}", modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, wantFile := string(data), "E:1 + 2\nC:vars os\nE:Hi {os.user}\n"; got != wantFile {
		t.Errorf("file = %q, want %q", got, wantFile)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded Entries() = %v, want %v", got, want)
	}
}

func TestHistory_ResubmitMovesToEnd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path)

	for _, line := range []string{"a", "b", "c", "a"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatal(err)
		}
	}

	// Same text in another mode is a distinct entry.
	if err := h.Add("b", modeCtrl); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{{"b", modeEval}, {"c", modeEval}, {"a", modeEval}, {"b", modeCtrl}}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "E:b\nE:c\nE:a\nC:b\n" {
		t.Errorf("file = %q", got)
	}
}

func TestHistory_Entry(t *testing.T) {
	t.Parallel()

	h := NewHistory("")
	_ = h.Add("x", modeEval)
	_ = h.Add("help", modeCtrl)

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}

	e, err := h.Entry(1)
	if err != nil || e != (HistoryEntry{"help", modeCtrl}) {
		t.Errorf("Entry(1) = %v, %v", e, err)
	}

	for _, i := range []int{-1, 2} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:1 + 2", HistoryEntry{"1 + 2", modeEval}},
		{"C:quit", HistoryEntry{"quit", modeCtrl}},
		{"untagged", HistoryEntry{"untagged", modeEval}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := parseEntry(tt.line); got != tt.want {
				t.Errorf("parseEntry(%q) = %v, want %v", tt.line, got, tt.want)
			}

			if tt.line != "untagged" && tt.want.String() != tt.line {
				t.Errorf("String() = %q, want %q", tt.want.String(), tt.line)
			}
		})
	}
}
