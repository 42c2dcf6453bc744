package lang

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
)

// The cache is package state; these tests do not run in parallel.

func TestCompileCached_Reuse(t *testing.T) {
	ClearCache()

	src := "cached {n + 1}"

	p1, err := CompileCached(t.Context(), src)
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}

	p2, err := CompileCached(t.Context(), src)
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}

	if p1 != p2 {
		t.Error("expected the same program for the same source")
	}

	if n := CacheLen(); n != 1 {
		t.Errorf("CacheLen = %d, want 1", n)
	}

	p3, err := CompileCached(t.Context(), src+" ")
	if err != nil {
		t.Fatal(err)
	}

	if p3 == p1 {
		t.Error("different sources should not share a program")
	}

	if n := CacheLen(); n != 2 {
		t.Errorf("CacheLen = %d, want 2", n)
	}
}

func TestCompileCached_OptionsChangeKey(t *testing.T) {
	ClearCache()

	src := "{x.y.z}"

	fused, err := CompileCached(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}

	generic, err := CompileCached(t.Context(), src, WithSpecialize(false))
	if err != nil {
		t.Fatal(err)
	}

	if fused == generic {
		t.Fatal("specialization should select a separate cache entry")
	}

	if len(fused.Code) >= len(generic.Code) {
		t.Errorf("fused code (%d bytes) should be shorter than generic (%d bytes)",
			len(fused.Code), len(generic.Code))
	}

	// Options that do not affect code generation share the entry.
	again, err := CompileCached(t.Context(), src, WithCheckInterval(7))
	if err != nil {
		t.Fatal(err)
	}

	if again != fused {
		t.Error("check interval should not change the cache key")
	}
}

func TestCompileCached_Failure(t *testing.T) {
	ClearCache()

	_, err1 := CompileCached(t.Context(), "{1 +}")
	if !errors.Is(err1, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err1)
	}

	_, err2 := CompileCached(t.Context(), "{1 +}")
	if err1 != err2 {
		t.Error("failures should be cached")
	}

	if n := CacheLen(); n != 1 {
		t.Errorf("CacheLen = %d, want 1", n)
	}
}

func TestCompileCached_Concurrent(t *testing.T) {
	ClearCache()

	const workers = 16

	progs := make([]*Program, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Go(func() {
			p, err := CompileCached(t.Context(), "{s} and {n}")
			if err != nil {
				t.Error(err)
			}

			progs[i] = p
		})
	}

	wg.Wait()

	for i, p := range progs {
		if p != progs[0] {
			t.Errorf("worker %d got a different program", i)
		}
	}
}

func TestClearCache(t *testing.T) {
	ClearCache()

	for _, src := range []string{"a", "b", "c"} {
		if _, err := CompileCached(t.Context(), src); err != nil {
			t.Fatal(err)
		}
	}

	if n := CacheLen(); n != 3 {
		t.Fatalf("CacheLen = %d, want 3", n)
	}

	ClearCache()

	if n := CacheLen(); n != 0 {
		t.Errorf("CacheLen after clear = %d, want 0", n)
	}
}

func TestCompileReader(t *testing.T) {
	ClearCache()

	src := strings.Repeat("line {n}\n", 512)

	p1, err := CompileReader(t.Context(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("CompileReader: %v", err)
	}

	p2, err := CompileCached(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}

	if p1 != p2 {
		t.Error("reader and string sources should share a cache entry")
	}

	out, err := NewRuntime(testGlobals()).Run(t.Context(), p1)
	if err != nil {
		t.Fatal(err)
	}

	if got := out.String(); got != strings.Repeat("line 3\n", 512) {
		t.Errorf("output has %d bytes, want %d", len(got), 512*len("line 3\n"))
	}
}

func TestReadSource_Error(t *testing.T) {
	boom := errors.New("boom")

	_, err := ReadSource(t.Context(), iotest.ErrReader(boom))
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("err = %v, want ErrReadInput", err)
	}

	if !errors.Is(err, boom) {
		t.Errorf("err = %v, should wrap the reader error", err)
	}

	if _, err := CompileReader(t.Context(), iotest.ErrReader(boom)); !errors.Is(err, ErrReadInput) {
		t.Errorf("CompileReader err = %v, want ErrReadInput", err)
	}
}
