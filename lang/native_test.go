package lang

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
)

func TestFromNative_Scalars(t *testing.T) {
	t.Parallel()

	n := 4

	tests := []struct {
		in   any
		want Value
	}{
		{nil, Null},
		{true, True},
		{3, Number(3)},
		{int8(-2), Number(-2)},
		{uint16(9), Number(9)},
		{float32(1.5), Number(1.5)},
		{2.25, Number(2.25)},
		{"hi", String("hi")},
		{[]byte("raw"), String("raw")},
		{1500 * time.Millisecond, String("1.5s")},
		{&n, Number(4)},
		{(*int)(nil), Null},
		{String("v"), String("v")},
	}

	for _, tt := range tests {
		got, err := FromNative(tt.in)
		if err != nil {
			t.Errorf("FromNative(%#v): %v", tt.in, err)

			continue
		}

		if !got.Equal(tt.want) {
			t.Errorf("FromNative(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromNative_Maps(t *testing.T) {
	t.Parallel()

	v, err := FromNative(map[string]any{
		"a": 1,
		"b": map[string]any{"c": "d"},
		"e": map[string]int{"f": 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := render(t, v.AsMap(), "{a} {b.c} {e.f}")
	if err != nil {
		t.Fatal(err)
	}

	if got != "1 d 2" {
		t.Errorf("got %q", got)
	}

	ordered, err := FromNative(yaml.MapSlice{
		{Key: "z", Value: 1},
		{Key: "y", Value: 2},
		{Key: "x", Value: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	var keys []string
	for k := range ordered.AsMap().Keys() {
		keys = append(keys, k)
	}

	if !reflect.DeepEqual(keys, []string{"z", "y", "x"}) {
		t.Errorf("keys = %v, want insertion order", keys)
	}

	for _, native := range []any{
		map[string]any{"b": 1, "c": 2, "a": 3, "e": 4, "d": 5},
		map[string]int{"b": 1, "c": 2, "a": 3, "e": 4, "d": 5},
	} {
		sorted, err := FromNative(native)
		if err != nil {
			t.Fatal(err)
		}

		keys = keys[:0]
		for k := range sorted.AsMap().Keys() {
			keys = append(keys, k)
		}

		if !reflect.DeepEqual(keys, []string{"a", "b", "c", "d", "e"}) {
			t.Errorf("%T keys = %v, want sorted", native, keys)
		}
	}
}

func TestFromNative_Lists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		src  string
		want string
	}{
		{"members", []any{1, "two", true}, "{l.length} {l.first} {l.last}", "3 1 true"},
		{"at", []any{1, "two", true}, "{l.at(1)} {l.at(-1)} {l.at(5)}", "two true null"},
		{"string form", []any{1, "two", true}, "{l}", "1, two, true"},
		{"typed slice", []int{4, 5}, "{l.length}: {l}", "2: 4, 5"},
		{"array", [2]string{"p", "q"}, "{l.last}", "q"},
		{"empty", []string{}, "{l.length} {l.first}", "0 null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := FromNative(tt.in)
			if err != nil {
				t.Fatal(err)
			}

			got, err := render(t, NewMap().SetValue("l", l), tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromNative_ListAtErrors(t *testing.T) {
	t.Parallel()

	l, err := FromNative([]any{1})
	if err != nil {
		t.Fatal(err)
	}

	globals := NewMap().SetValue("l", l)

	for _, src := range []string{"{l.at()}", "{l.at('x')}", "{l.at(1, 2)}"} {
		if _, err := render(t, globals, src); !errors.Is(err, ErrRuntime) {
			t.Errorf("%s: err = %v, want ErrRuntime", src, err)
		}
	}
}

func TestFromNative_Functions(t *testing.T) {
	t.Parallel()

	supplier, err := FromNative(func() any { return "made" })
	if err != nil {
		t.Fatal(err)
	}

	count, err := FromNative(func(args ...any) any { return len(args) })
	if err != nil {
		t.Fatal(err)
	}

	kinds, err := FromNative(func(args ...any) any {
		out := make([]any, len(args))
		for i, a := range args {
			out[i] = reflect.TypeOf(a).String()
		}

		return out
	})
	if err != nil {
		t.Fatal(err)
	}

	bad, err := FromNative(func(...any) any { return struct{}{} })
	if err != nil {
		t.Fatal(err)
	}

	globals := NewMap().
		SetValue("make", supplier).
		SetValue("count", count).
		SetValue("kinds", kinds).
		SetValue("bad", bad)

	got, err := render(t, globals, "{make()} {count(1, 2, 3)} {kinds(1, 1.5, 's', true)}")
	if err != nil {
		t.Fatal(err)
	}

	if want := "made 3 int64, float64, string, bool"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := render(t, globals, "{bad()}"); !errors.Is(err, ErrRuntime) {
		t.Errorf("err = %v, want ErrRuntime", err)
	}
}

func TestFromNative_Unsupported(t *testing.T) {
	t.Parallel()

	for _, in := range []any{
		struct{}{},
		make(chan int),
		map[int]string{1: "a"},
		[]any{struct{}{}},
		map[string]any{"x": complex(1, 2)},
	} {
		if _, err := FromNative(in); !errors.Is(err, ErrConversion) {
			t.Errorf("FromNative(%T): err = %v, want ErrConversion", in, err)
		}
	}
}

func TestToNative(t *testing.T) {
	t.Parallel()

	fn := NewFunction(sum)

	inner := NewMap().SetNumber("n", 2.5)
	m := NewMap().
		SetBool("b", true).
		SetNumber("i", 7).
		SetString("s", "x").
		SetMap("inner", inner).
		Set("lazy", func() Value { return Number(11) }).
		SetValue("fn", fn).
		SetValue("none", Null)

	got, ok := ToNative(MapValue(m)).(map[string]any)
	if !ok {
		t.Fatalf("ToNative returned %T", ToNative(MapValue(m)))
	}

	want := map[string]any{
		"b":     true,
		"i":     int64(7),
		"s":     "x",
		"inner": map[string]any{"n": 2.5},
		"lazy":  int64(11),
		"fn":    fn.AsFunction(),
		"none":  nil,
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestToNative_Cycle(t *testing.T) {
	t.Parallel()

	m := NewMap().SetNumber("n", 1)
	m.SetMap("self", m)

	got, ok := ToNative(MapValue(m)).(map[string]any)
	if !ok {
		t.Fatal("expected a map")
	}

	if got["self"] != "<map>" {
		t.Errorf("self = %#v, want string form", got["self"])
	}
}
