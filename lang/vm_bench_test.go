package lang

import (
	"strings"
	"testing"
)

var benchTemplates = []struct {
	name string
	src  string
}{
	{"text", "plain text without any blocks"},
	{"variables", "{s} {n} {x.y.z} {m.y}"},
	{"arithmetic", "{n * 2 + 1 - n / 3 % 2}"},
	{"concat", "{'a' + s + n + 'b'}"},
	{"conditional", "{a ? s : 'no'} {b or n > 2 ? 1 : 0}"},
	{"calls", "{f(1, 2, 3)} {x.f(n, n)}"},
	{"sections", "#1 {s} #2 {n} #3 {x.y.z}"},
	{"long", strings.Repeat("line {n} of {s}\n", 64)},
}

func BenchmarkRun(b *testing.B) {
	for _, specialize := range []bool{true, false} {
		name := "generic"
		if specialize {
			name = "specialized"
		}

		b.Run(name, func(b *testing.B) {
			for _, tt := range benchTemplates {
				b.Run(tt.name, func(b *testing.B) {
					prog, err := CompileString(b.Context(), tt.src, WithSpecialize(specialize))
					if err != nil {
						b.Fatal(err)
					}

					rt := NewRuntime(testGlobals())

					b.ReportAllocs()

					for b.Loop() {
						if _, err := rt.Run(b.Context(), prog); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

func BenchmarkCompileString(b *testing.B) {
	for _, tt := range benchTemplates {
		b.Run(tt.name, func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				if _, err := CompileString(b.Context(), tt.src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileCached(b *testing.B) {
	ClearCache()

	src := benchTemplates[len(benchTemplates)-1].src

	b.ReportAllocs()

	for b.Loop() {
		if _, err := CompileCached(b.Context(), src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelRun(b *testing.B) {
	prog, err := CompileString(b.Context(), "{s} {n} {x.y.z} {f(n, 1)}")
	if err != nil {
		b.Fatal(err)
	}

	rt := NewRuntime(testGlobals())

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := rt.Run(b.Context(), prog); err != nil {
				b.Error(err)

				return
			}
		}
	})
}
