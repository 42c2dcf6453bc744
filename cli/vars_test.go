package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/scribe/cli/cmd"
	"github.com/ardnew/scribe/lang"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func lookupPath(t *testing.T, m *lang.Map, path ...string) lang.Value {
	t.Helper()

	v := lang.MapValue(m)

	for _, name := range path {
		if !v.IsMap() {
			t.Fatalf("%v: not a map at %q", path, name)
		}

		var ok bool
		if v, ok = v.AsMap().Lookup(name); !ok {
			t.Fatalf("%v: %q not bound", path, name)
		}
	}

	return v
}

func TestLoadVars(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "vars.yaml", `
name: steve
server:
  host: localhost
  port: 8000
flags: [a, b]
`)

	m, err := loadVars(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := lookupPath(t, m, "name").String(); got != "steve" {
		t.Errorf("name = %q", got)
	}

	if got := lookupPath(t, m, "server", "port").AsNumber(); got != 8000 {
		t.Errorf("server.port = %v", got)
	}

	if got := lookupPath(t, m, "server", "host").String(); got != "localhost" {
		t.Errorf("server.host = %q", got)
	}

	if !lookupPath(t, m, "flags").IsMap() {
		t.Error("flags is not a map")
	}
}

func TestLoadVars_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"sequence", "- a\n- b\n", cmd.ErrNotMapping},
		{"scalar", "hello\n", cmd.ErrNotMapping},
		{"invalid", "a: [b\n", cmd.ErrLoadVars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadVars(writeFile(t, "vars.yaml", tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("loadVars() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := loadVars(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, cmd.ErrLoadVars) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("loadVars() error = %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		m, err := loadVars(writeFile(t, "vars.yaml", ""))
		if err != nil || m.Len() != 0 {
			t.Errorf("loadVars(empty) = %v, %v", m, err)
		}
	})
}

func TestAssign(t *testing.T) {
	t.Parallel()

	newVars := func() *lang.Map {
		return lang.NewMap().
			SetNumber("base", 8000).
			SetString("name", "steve").
			SetMap("server", lang.NewMap().SetNumber("port", 80))
	}

	tests := []struct {
		set  string
		path []string
		want string
	}{
		{"port=base+1", []string{"port"}, "8001"},
		{"greeting='hi ' + name", []string{"greeting"}, "hi steve"},
		{"server.tls=server.port == 443", []string{"server", "tls"}, "false"},
		{"a.b.c=len(name)", []string{"a", "b", "c"}, "5"},
		{" spaced = 2 * 3", []string{"spaced"}, "6"},
		{"eq=1==1", []string{"eq"}, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.set, func(t *testing.T) {
			t.Parallel()

			vars := newVars()
			if err := assign(vars, tt.set); err != nil {
				t.Fatalf("assign(%q): %v", tt.set, err)
			}

			if got := lookupPath(t, vars, tt.path...).String(); got != tt.want {
				t.Errorf("assign(%q) bound %q, want %q", tt.set, got, tt.want)
			}
		})
	}
}

func TestAssign_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		set     string
		wantErr error
	}{
		{"noequals", cmd.ErrAssignment},
		{"=1", cmd.ErrAssignment},
		{"x=1 +", cmd.ErrSetVariable},
		{"x=undefined_name", cmd.ErrSetVariable},
	}

	for _, tt := range tests {
		t.Run(tt.set, func(t *testing.T) {
			t.Parallel()

			err := assign(lang.NewMap(), tt.set)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("assign(%q) error = %v, want %v", tt.set, err, tt.wantErr)
			}
		})
	}
}

func TestGlobals(t *testing.T) {
	t.Parallel()

	first := writeFile(t, "first.yaml", "name: steve\nport: 1\n")
	second := writeFile(t, "second.yaml", "port: 2\n")

	v := varsConfig{
		Vars: []string{first, second},
		Set:  []string{"next=port+1", "pad='user'"},
	}

	globals, err := v.globals(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"name", "steve"},
		{"port", "2"},
		{"next", "3"},
		{"pad", "user"},
	}

	for _, tt := range tests {
		if got := lookupPath(t, globals, tt.name).String(); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}

	if v := lookupPath(t, globals, "round"); !v.IsFunction() {
		t.Error("standard library not bound")
	}
}
