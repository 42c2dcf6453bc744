package repl

import (
	"testing"

	"github.com/ardnew/scribe/lang/stdlib"
)

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := "Hi {pad(path.join(os.home, toUpper('a,(b'), "

	for b.Loop() {
		_ = detectFunctionCall(input, len(input))
	}
}

func BenchmarkSignatureOf(b *testing.B) {
	globals := stdlib.New()
	names := []string{"pad", "path.join", "mung.prefixDirs", "os.home", "nope"}

	i := 0
	for b.Loop() {
		_, _ = signatureOf(globals, names[i%len(names)])
		i++
	}
}

func BenchmarkCandidates(b *testing.B) {
	rt := newRuntime()
	input := "Hi {path.jo"

	_, start, end := wordBounds(input, len(input))

	for b.Loop() {
		_, _ = candidates(b.Context(), rt, input, start, end)
	}
}
