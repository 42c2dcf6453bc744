package stdlib

// Host namespaces resolve lazily: nothing touches the file system, the user
// database or the environment until a template reads the member.

import (
	"bufio"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/scribe/lang"
)

func registerHost(m *lang.Map, c *config) {
	m.Set("os", func() lang.Value { return lang.MapValue(c.osMap()) }).
		Set("env", func() lang.Value { return lang.MapValue(c.envMap()) }).
		SetMap("file", lang.NewMap().
			SetFunc("exists", predicate("file.exists", fileExists)).
			SetFunc("isDir", predicate("file.isDir", fileIsDir)).
			SetFunc("isRegular", predicate("file.isRegular", fileIsRegular)).
			SetFunc("isSymlink", predicate("file.isSymlink", fileIsSymlink))).
		SetMap("path", lang.NewMap().
			SetFunc("abs", pathFunc("path.abs", 1, func(a []string) string { return pathAbs(a[0]) })).
			SetFunc("base", pathFunc("path.base", 1, func(a []string) string { return filepath.Base(a[0]) })).
			SetFunc("dir", pathFunc("path.dir", 1, func(a []string) string { return filepath.Dir(a[0]) })).
			SetFunc("ext", pathFunc("path.ext", 1, func(a []string) string { return filepath.Ext(a[0]) })).
			SetFunc("rel", pathFunc("path.rel", 2, func(a []string) string { return pathRel(a[0], a[1]) })).
			SetFunc("join", variadic("path.join", 0, filepath.Join))).
		SetMap("mung", lang.NewMap().
			SetFunc("prefix", variadic("mung.prefix", 1, func(a ...string) string {
				return mungPrefix(a[0], nil, a[1:]...)
			})).
			SetFunc("prefixDirs", variadic("mung.prefixDirs", 1, func(a ...string) string {
				return mungPrefix(a[0], fileIsDir, a[1:]...)
			})))
}

// lookupEnv searches the configured environment.
func (c *config) lookupEnv(key string) (string, bool) {
	for _, kv := range c.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}

	return "", false
}

// envMap holds one string per variable in environment order; its string form
// is the number of variables.
func (c *config) envMap() *lang.Map {
	m := lang.NewMap()

	for _, kv := range c.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			m.SetString(k, v)
		}
	}

	n := m.Len()

	return m.Set(lang.ToStringKey, lang.Const(lang.String(strconv.Itoa(n))))
}

func (c *config) osMap() *lang.Map {
	return lang.NewMap().
		Set("platform", func() lang.Value { return lang.String(c.platform().OS) }).
		Set("arch", func() lang.Value { return lang.String(c.platform().Arch) }).
		Set("target", func() lang.Value { return lang.String(c.target().String()) }).
		Set("hostname", func() lang.Value { return lang.String(hostname()) }).
		Set("user", func() lang.Value { return userName() }).
		Set("home", func() lang.Value { return homeDir() }).
		Set("shell", func() lang.Value { return lang.String(c.shell()) }).
		Set("cwd", func() lang.Value { return lang.String(cwd()) })
}

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// String returns the GNU-style "arch-os" pair.
func (t target) String() string { return t.Arch + "-" + t.OS }

// platform returns the host using Go naming conventions, honoring the
// GOHOSTOS/GOOS and GOHOSTARCH/GOARCH overrides.
func (c *config) platform() target {
	t := target{OS: runtime.GOOS, Arch: runtime.GOARCH}

	for _, key := range []string{"GOOS", "GOHOSTOS"} {
		if v, ok := c.lookupEnv(key); ok && v != "" {
			t.OS = v
		}
	}

	for _, key := range []string{"GOARCH", "GOHOSTARCH"} {
		if v, ok := c.lookupEnv(key); ok && v != "" {
			t.Arch = v
		}
	}

	return t
}

// target returns the host using GNU GCC/LLVM naming conventions.
func (c *config) target() target {
	t := c.platform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := c.lookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}

	return h
}

func userName() lang.Value {
	u, err := user.Current()
	if err != nil {
		return lang.Null
	}

	return lang.String(u.Username)
}

func homeDir() lang.Value {
	h, err := os.UserHomeDir()
	if err != nil {
		return lang.Null
	}

	return lang.String(h)
}

// shell returns $SHELL, falling back to the login shell in /etc/passwd.
func (c *config) shell() string {
	if sh, ok := c.lookupEnv("SHELL"); ok {
		return sh
	}

	u, err := user.Current()
	if err != nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if e := strings.Split(s.Text(), ":"); len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func cwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return wd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// mungPrefix prepends items to the path list, removing duplicates. A non-nil
// keep drops the items it rejects.
func mungPrefix(list string, keep func(string) bool, items ...string) string {
	if keep == nil {
		return mung.Make(
			mung.WithSubjectItems(list),
			mung.WithDelim(string(os.PathListSeparator)),
			mung.WithPrefixItems(items...),
		).String()
	}

	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(keep),
	).String()
}

func predicate(name string, fn func(string) bool) lang.Func {
	return func(vm *lang.VM, argc int) (lang.Value, error) {
		if err := arity(vm, name, argc, 1); err != nil {
			return lang.Null, err
		}

		path, err := vm.PopString(stringArg(name, 0, 1))
		if err != nil {
			return lang.Null, err
		}

		return lang.Bool(fn(path)), nil
	}
}

func pathFunc(name string, n int, fn func([]string) string) lang.Func {
	return func(vm *lang.VM, argc int) (lang.Value, error) {
		if err := arity(vm, name, argc, n); err != nil {
			return lang.Null, err
		}

		args, err := popStrings(vm, name, n)
		if err != nil {
			return lang.Null, err
		}

		return lang.String(fn(args)), nil
	}
}

// variadic accepts at least minArgs string arguments.
func variadic(name string, minArgs int, fn func(...string) string) lang.Func {
	return func(vm *lang.VM, argc int) (lang.Value, error) {
		if argc < minArgs {
			noun := "arguments"
			if minArgs == 1 {
				noun = "argument"
			}

			return lang.Null, vm.Errorf("%s() requires at least %d %s, got %d.",
				name, minArgs, noun, argc)
		}

		args := make([]string, argc)

		for i := argc - 1; i >= 0; i-- {
			s, err := vm.PopString("Arguments to " + name + "() need to be strings.")
			if err != nil {
				return lang.Null, err
			}

			args[i] = s
		}

		return lang.String(fn(args...)), nil
	}
}
