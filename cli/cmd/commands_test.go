package cmd

import (
	"errors"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	t.Parallel()

	paths := writeTemplates(t,
		"hello.tmpl", "Hi {name}!",
		"sections.tmpl", "a#1b#2c",
		"broken.tmpl", "{nope()}",
	)

	tests := []struct {
		name    string
		render  Render
		stdin   string
		want    string
		parts   []string
		wantErr error
	}{
		{
			name:   "text",
			render: Render{Format: "text", Source: paths[:1]},
			want:   "Hi steve!",
		},
		{
			name:   "stdin",
			render: Render{Format: "text"},
			stdin:  "{1 + 2}",
			want:   "3",
		},
		{
			name:   "filtered json",
			render: Render{Format: "json", Section: []int{1}, Source: paths[1:2]},
			want:   `[{"index":1,"text":"b"}]` + "\n",
		},
		{
			name:   "two sections",
			render: Render{Format: "text", Section: []int{0, 2}, Source: paths[1:2]},
			want:   "ac",
		},
		{
			name:   "yaml documents",
			render: Render{Format: "yaml", Indent: 2, Source: paths[:2]},
			parts:  []string{"text: Hi steve!\n---\n", "index: 2", "text: c"},
		},
		{
			name:    "bad format",
			render:  Render{Format: "xml", Source: paths[:1]},
			wantErr: ErrFormat,
		},
		{
			name:    "bad section",
			render:  Render{Format: "text", Section: []int{256}, Source: paths[:1]},
			wantErr: ErrSection,
		},
		{
			name:    "runtime error",
			render:  Render{Format: "text", Source: paths[2:]},
			wantErr: ErrTemplate,
		},
		{
			name:    "syntax error",
			render:  Render{Format: "text"},
			stdin:   "{1 +",
			wantErr: ErrTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t, tt.stdin)

			r := tt.render
			r.Specialize = true

			err := r.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr != nil {
				return
			}

			if tt.parts == nil && out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}

			for _, part := range tt.parts {
				if !strings.Contains(out.String(), part) {
					t.Errorf("output = %q, missing %q", out.String(), part)
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	paths := writeTemplates(t,
		"good.tmpl", "Hi {name}",
		"bad.tmpl", "Hi {name",
	)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		ctx, out := testContext(t, "")

		if err := (&Check{Source: paths[:1]}).Run(ctx); err != nil {
			t.Fatal(err)
		}

		if out.Len() != 0 {
			t.Errorf("output = %q, want none", out.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		ctx, out := testContext(t, "")

		err := (&Check{Source: paths}).Run(ctx)
		if !errors.Is(err, ErrDiagnostics) {
			t.Fatalf("Run() error = %v, want ErrDiagnostics", err)
		}

		if got := out.String(); !strings.HasPrefix(got, paths[1]+": ") || strings.Contains(got, paths[0]) {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()

		ctx, out := testContext(t, "{")

		err := (&Check{Quiet: true}).Run(ctx)
		if !errors.Is(err, ErrDiagnostics) {
			t.Fatalf("Run() error = %v, want ErrDiagnostics", err)
		}

		if out.Len() != 0 {
			t.Errorf("output = %q, want none", out.String())
		}
	})
}

func TestDisasm(t *testing.T) {
	t.Parallel()

	paths := writeTemplates(t,
		"one.tmpl", "{1 + name}",
		"two.tmpl", "text",
	)

	t.Run("single", func(t *testing.T) {
		t.Parallel()

		ctx, out := testContext(t, "")

		d := &Disasm{Format: "text", Source: paths[:1]}
		if err := d.Run(ctx); err != nil {
			t.Fatal(err)
		}

		if got := out.String(); !strings.HasPrefix(got, "0000 ") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("headers", func(t *testing.T) {
		t.Parallel()

		ctx, out := testContext(t, "")

		d := &Disasm{Format: "text", Source: paths}
		if err := d.Run(ctx); err != nil {
			t.Fatal(err)
		}

		got := out.String()
		if !strings.HasPrefix(got, "== "+paths[0]+"\n") || !strings.Contains(got, "\n\n== "+paths[1]+"\n") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		ctx, _ := testContext(t, "{")

		if err := (&Disasm{Format: "text"}).Run(ctx); !errors.Is(err, ErrTemplate) {
			t.Errorf("Run() error = %v, want ErrTemplate", err)
		}
	})
}

func TestAst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		stdin  string
		want   string
	}{
		{
			name:   "tree",
			format: "tree",
			stdin:  "{a + 1}",
			want: "Block [0,7)\n" +
				"  Binary + [1,6)\n" +
				"    Variable a [1,2)\n" +
				"    Number 1 [5,6)\n",
		},
		{
			name:   "json",
			format: "json",
			stdin:  "{a.b}",
			want: `[{"kind":"Block","start":0,"end":5,"children":[` +
				`{"kind":"Get","start":1,"end":4,"name":"b","children":[` +
				`{"kind":"Variable","start":1,"end":2,"name":"a"}]}]}]` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t, tt.stdin)

			if err := (&Ast{Format: tt.format}).Run(ctx); err != nil {
				t.Fatal(err)
			}

			if out.String() != tt.want {
				t.Errorf("output:\n%s\nwant:\n%s", out.String(), tt.want)
			}
		})
	}

	t.Run("bad format", func(t *testing.T) {
		t.Parallel()

		ctx, _ := testContext(t, "{a}")

		if err := (&Ast{Format: "dot"}).Run(ctx); !errors.Is(err, ErrFormat) {
			t.Errorf("Run() error = %v, want ErrFormat", err)
		}
	})
}

func TestComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stdin   string
		pos     int
		want    []string
		wantErr error
	}{
		{"end of member", "{path.", -1, []string{"abs()", "join()"}, nil},
		{"final newline ignored", "{pa\n", -1, []string{"pad()", "path"}, nil},
		{"explicit position", "{name} {pa}", 10, []string{"pad()", "path"}, nil},
		{"no candidates", "plain text", -1, nil, nil},
		{"past end", "{a}", 10, nil, ErrPosition},
		{"before start", "{a}", -10, nil, ErrPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t, tt.stdin)

			err := (&Complete{Pos: tt.pos, Source: "-"}).Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			lines := strings.Fields(out.String())
			for _, want := range tt.want {
				found := false

				for _, line := range lines {
					if line == want {
						found = true

						break
					}
				}

				if !found {
					t.Errorf("output %q missing %q", lines, want)
				}
			}

			if tt.want == nil && len(lines) != 0 {
				t.Errorf("output = %q, want none", lines)
			}
		})
	}
}
