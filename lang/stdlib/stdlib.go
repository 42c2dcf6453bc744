// Package stdlib provides the standard library of template globals: math and
// string functions, clock values, and lazily resolved host information.
package stdlib

import (
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ardnew/scribe/lang"
)

const (
	// TimeLayout formats the time global.
	TimeLayout = "15:04"
	// DateLayout formats the date global.
	DateLayout = "02. 01. 2006"
)

// Option configures the library.
type Option func(*config)

type config struct {
	clock   func() time.Time
	environ func() []string

	mu   sync.Mutex
	rand *rand.Rand
}

// WithClock sets the source of the time and date globals.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRand sets the generator used by random(). The generator is guarded by
// a mutex, so templates sharing it may run concurrently.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rand = r }
}

// WithEnviron sets the source of the env namespace and of the host lookups
// that consult the environment.
func WithEnviron(environ func() []string) Option {
	return func(c *config) {
		if environ != nil {
			c.environ = environ
		}
	}
}

func makeConfig(opts ...Option) *config {
	c := &config{clock: time.Now, environ: os.Environ}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (c *config) float64() float64 {
	if c.rand == nil {
		return rand.Float64()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rand.Float64()
}

// Register binds the library into m and returns m. Existing entries with the
// same names are replaced.
func Register(m *lang.Map, opts ...Option) *lang.Map {
	c := makeConfig(opts...)

	m.SetNumber("PI", math.Pi).
		Set("time", func() lang.Value { return lang.String(c.clock().Format(TimeLayout)) }).
		Set("date", func() lang.Value { return lang.String(c.clock().Format(DateLayout)) }).
		SetFunc("round", round).
		SetFunc("roundToString", roundToString).
		SetFunc("floor", unary("floor", math.Floor)).
		SetFunc("ceil", unary("ceil", math.Ceil)).
		SetFunc("abs", unary("abs", math.Abs)).
		SetFunc("random", c.random).
		SetFunc("string", toString).
		SetFunc("toUpper", mapString("toUpper", strings.ToUpper)).
		SetFunc("toLower", mapString("toLower", strings.ToLower)).
		SetFunc("contains", contains).
		SetFunc("replace", replace).
		SetFunc("pad", pad)

	registerHost(m, c)

	return m
}

// New returns a namespace holding only the library.
func New(opts ...Option) *lang.Map { return Register(lang.NewMap(), opts...) }

// arity fails unless argc is one of want.
func arity(vm *lang.VM, name string, argc int, want ...int) error {
	for _, n := range want {
		if argc == n {
			return nil
		}
	}

	counts := make([]string, len(want))
	for i, n := range want {
		counts[i] = strconv.Itoa(n)
	}

	noun := "arguments"
	if len(want) == 1 && want[0] == 1 {
		noun = "argument"
	}

	return vm.Errorf("%s() requires %s %s, got %d.",
		name, strings.Join(counts, " or "), noun, argc)
}

// ordinal names argument i of n in error messages.
func ordinal(i, n int) string {
	if n == 1 {
		return "Argument"
	}

	return [...]string{"First", "Second", "Third"}[i] + " argument"
}

func numberArg(name string, i, n int) string {
	return ordinal(i, n) + " to " + name + "() needs to be a number."
}

func stringArg(name string, i, n int) string {
	return ordinal(i, n) + " to " + name + "() needs to be a string."
}

// roundHalfUp rounds half-way values toward positive infinity.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }

// rounded pops round's arguments and returns the rounded value.
func rounded(vm *lang.VM, name string, argc int) (float64, error) {
	if err := arity(vm, name, argc, 1, 2); err != nil {
		return 0, err
	}

	if argc == 1 {
		x, err := vm.PopNumber(numberArg(name, 0, 1))
		if err != nil {
			return 0, err
		}

		return roundHalfUp(x), nil
	}

	places, err := vm.PopNumber(numberArg(name, 1, 2))
	if err != nil {
		return 0, err
	}

	x, err := vm.PopNumber(numberArg(name, 0, 2))
	if err != nil {
		return 0, err
	}

	scale := math.Pow(10, float64(int(places)))

	return roundHalfUp(x*scale) / scale, nil
}

func round(vm *lang.VM, argc int) (lang.Value, error) {
	x, err := rounded(vm, "round", argc)
	if err != nil {
		return lang.Null, err
	}

	return lang.Number(x), nil
}

// roundToString renders the rounded value with at least one decimal place.
func roundToString(vm *lang.VM, argc int) (lang.Value, error) {
	x, err := rounded(vm, "roundToString", argc)
	if err != nil {
		return lang.Null, err
	}

	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}

	return lang.String(s), nil
}

func unary(name string, fn func(float64) float64) lang.Func {
	return func(vm *lang.VM, argc int) (lang.Value, error) {
		if err := arity(vm, name, argc, 1); err != nil {
			return lang.Null, err
		}

		x, err := vm.PopNumber(numberArg(name, 0, 1))
		if err != nil {
			return lang.Null, err
		}

		return lang.Number(fn(x)), nil
	}
}

// random returns a number in [0, 1), or in [min, max) with two arguments.
func (c *config) random(vm *lang.VM, argc int) (lang.Value, error) {
	if err := arity(vm, "random", argc, 0, 2); err != nil {
		return lang.Null, err
	}

	if argc == 0 {
		return lang.Number(c.float64()), nil
	}

	hi, err := vm.PopNumber(numberArg("random", 1, 2))
	if err != nil {
		return lang.Null, err
	}

	lo, err := vm.PopNumber(numberArg("random", 0, 2))
	if err != nil {
		return lang.Null, err
	}

	return lang.Number(lo + (hi-lo)*c.float64()), nil
}

func toString(vm *lang.VM, argc int) (lang.Value, error) {
	if err := arity(vm, "string", argc, 1); err != nil {
		return lang.Null, err
	}

	return lang.String(vm.Pop().String()), nil
}

func mapString(name string, fn func(string) string) lang.Func {
	return func(vm *lang.VM, argc int) (lang.Value, error) {
		if err := arity(vm, name, argc, 1); err != nil {
			return lang.Null, err
		}

		s, err := vm.PopString(stringArg(name, 0, 1))
		if err != nil {
			return lang.Null, err
		}

		return lang.String(fn(s)), nil
	}
}

// popStrings pops n string arguments and returns them in call order.
func popStrings(vm *lang.VM, name string, n int) ([]string, error) {
	out := make([]string, n)

	for i := n - 1; i >= 0; i-- {
		s, err := vm.PopString(stringArg(name, i, n))
		if err != nil {
			return nil, err
		}

		out[i] = s
	}

	return out, nil
}

func contains(vm *lang.VM, argc int) (lang.Value, error) {
	if err := arity(vm, "contains", argc, 2); err != nil {
		return lang.Null, err
	}

	args, err := popStrings(vm, "contains", 2)
	if err != nil {
		return lang.Null, err
	}

	return lang.Bool(strings.Contains(args[0], args[1])), nil
}

func replace(vm *lang.VM, argc int) (lang.Value, error) {
	if err := arity(vm, "replace", argc, 3); err != nil {
		return lang.Null, err
	}

	args, err := popStrings(vm, "replace", 3)
	if err != nil {
		return lang.Null, err
	}

	return lang.String(strings.ReplaceAll(args[0], args[1], args[2])), nil
}

// pad right-justifies its first argument in width characters, or
// left-justifies it when width is negative.
func pad(vm *lang.VM, argc int) (lang.Value, error) {
	if err := arity(vm, "pad", argc, 2); err != nil {
		return lang.Null, err
	}

	w, err := vm.PopNumber(numberArg("pad", 1, 2))
	if err != nil {
		return lang.Null, err
	}

	text := vm.Pop().String()
	width := int(w)

	fill := abs(width) - utf8.RuneCountInString(text)
	if fill <= 0 {
		return lang.String(text), nil
	}

	if width < 0 {
		return lang.String(text + strings.Repeat(" ", fill)), nil
	}

	return lang.String(strings.Repeat(" ", fill) + text), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
