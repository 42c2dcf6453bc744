package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/scribe/lang/stdlib"
)

// testContext directs command output to a buffer, reads stdin from the given
// text, and evaluates against the standard library.
func testContext(t *testing.T, stdin string) (context.Context, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	ctx := WithOutput(t.Context(), &out)
	ctx = WithInput(ctx, strings.NewReader(stdin))
	ctx = WithGlobals(ctx, stdlib.New().SetString("name", "steve"))

	return ctx, &out
}

// writeTemplates creates one file per name/content pair in a temp dir and
// returns their paths in order.
func writeTemplates(t *testing.T, pairs ...string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, 0, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		path := filepath.Join(dir, pairs[i])
		if err := os.WriteFile(path, []byte(pairs[i+1]), 0o600); err != nil {
			t.Fatal(err)
		}

		paths = append(paths, path)
	}

	return paths
}

func sourceNames(srcs []source) []string {
	names := make([]string, len(srcs))
	for i, s := range srcs {
		names[i] = filepath.Base(s.name)
	}

	return names
}

func TestReadSources(t *testing.T) {
	t.Parallel()

	paths := writeTemplates(t, "a.tmpl", "first", "b.tmpl", "second")

	link := filepath.Join(filepath.Dir(paths[0]), "link.tmpl")
	if err := os.Symlink(paths[0], link); err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(".", paths[1])
	if err != nil {
		rel = paths[1]
	}

	tests := []struct {
		name      string
		paths     []string
		wantNames []string
		wantTexts []string
	}{
		{"no paths reads stdin", nil, []string{"-"}, []string{"from stdin"}},
		{"single file", paths[:1], []string{"a.tmpl"}, []string{"first"}},
		{"in order", []string{paths[1], paths[0]}, []string{"b.tmpl", "a.tmpl"}, []string{"second", "first"}},
		{"duplicate path", []string{paths[0], paths[0]}, []string{"a.tmpl"}, []string{"first"}},
		{"symlink duplicate", []string{paths[0], link}, []string{"a.tmpl"}, []string{"first"}},
		{"relative duplicate", []string{paths[1], rel}, []string{"b.tmpl"}, []string{"second"}},
		{"stdin last", []string{"-", paths[0]}, []string{"a.tmpl", "-"}, []string{"first", "from stdin"}},
		{"stdin once", []string{"-", paths[1], "-"}, []string{"b.tmpl", "-"}, []string{"second", "from stdin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := testContext(t, "from stdin")

			srcs, err := readSources(ctx, tt.paths)
			if err != nil {
				t.Fatal(err)
			}

			if got := sourceNames(srcs); strings.Join(got, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("names = %v, want %v", got, tt.wantNames)
			}

			for i, want := range tt.wantTexts {
				if i < len(srcs) && srcs[i].text != want {
					t.Errorf("srcs[%d].text = %q, want %q", i, srcs[i].text, want)
				}
			}
		})
	}
}

func TestReadSources_Missing(t *testing.T) {
	t.Parallel()

	ctx, _ := testContext(t, "")
	paths := writeTemplates(t, "a.tmpl", "first")

	_, err := readSources(ctx, []string{paths[0], filepath.Join(t.TempDir(), "nope.tmpl")})
	if !errors.Is(err, ErrReadSource) {
		t.Errorf("error = %v, want ErrReadSource", err)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestContextDefaults(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	if got := outputFrom(ctx); got != os.Stdout {
		t.Errorf("outputFrom() = %v, want os.Stdout", got)
	}

	if got := inputFrom(ctx); got != os.Stdin {
		t.Errorf("inputFrom() = %v, want os.Stdin", got)
	}

	if got := globalsFrom(ctx); got == nil || got.Len() != 0 {
		t.Errorf("globalsFrom() = %v, want empty map", got)
	}

	if got := kongContextFrom(ctx); got != nil {
		t.Errorf("kongContextFrom() = %v, want nil", got)
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := ErrTemplate.With().Wrap(cause)

	if !errors.Is(err, ErrTemplate) {
		t.Error("wrapped error does not match its sentinel")
	}

	if errors.Is(err, ErrFormat) {
		t.Error("wrapped error matches an unrelated sentinel")
	}

	if !errors.Is(err, cause) {
		t.Error("wrapped error does not match its cause")
	}

	if got, want := err.Error(), ErrTemplate.Error()+": boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
