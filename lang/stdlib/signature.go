package stdlib

import (
	"slices"
	"strings"
)

// Signature describes one library function.
type Signature struct {
	// Name is the dotted path of the function, e.g. "path.join".
	Name    string
	Params  []string
	Summary string
}

// String returns the call form, e.g. "pad(x, width)".
func (s Signature) String() string {
	return s.Name + "(" + strings.Join(s.Params, ", ") + ")"
}

var signatures = []Signature{
	{"round", []string{"x", "places?"}, "Round half up, optionally to a number of decimal places."},
	{"roundToString", []string{"x", "places?"}, "Round like round() and render with at least one decimal."},
	{"floor", []string{"x"}, "Largest integer not greater than x."},
	{"ceil", []string{"x"}, "Smallest integer not less than x."},
	{"abs", []string{"x"}, "Absolute value of x."},
	{"random", []string{"min?", "max?"}, "Random number in [0, 1), or in [min, max)."},
	{"string", []string{"x"}, "String form of any value."},
	{"toUpper", []string{"s"}, "Upper case copy of s."},
	{"toLower", []string{"s"}, "Lower case copy of s."},
	{"contains", []string{"s", "sub"}, "Whether s contains sub."},
	{"replace", []string{"s", "from", "to"}, "Replace every occurrence of from in s."},
	{"pad", []string{"x", "width"}, "Pad to width; negative widths pad on the right."},
	{"file.exists", []string{"path"}, "Whether path exists."},
	{"file.isDir", []string{"path"}, "Whether path is a directory."},
	{"file.isRegular", []string{"path"}, "Whether path is a regular file."},
	{"file.isSymlink", []string{"path"}, "Whether path is a symbolic link."},
	{"path.abs", []string{"path"}, "Absolute form of path."},
	{"path.base", []string{"path"}, "Last element of path."},
	{"path.dir", []string{"path"}, "All but the last element of path."},
	{"path.ext", []string{"path"}, "File name extension of path."},
	{"path.join", []string{"elem..."}, "Join path elements."},
	{"path.rel", []string{"from", "to"}, "Path of to relative to from."},
	{"mung.prefix", []string{"list", "item..."}, "Prepend items to a path list, removing duplicates."},
	{"mung.prefixDirs", []string{"list", "dir..."}, "Like mung.prefix, keeping only existing directories."},
}

// Signatures returns the library functions ordered by name.
func Signatures() []Signature {
	out := slices.Clone(signatures)

	slices.SortFunc(out, func(a, b Signature) int { return strings.Compare(a.Name, b.Name) })

	return out
}

// Lookup returns the signature of the function with the given dotted name.
func Lookup(name string) (Signature, bool) {
	i := slices.IndexFunc(signatures, func(s Signature) bool { return s.Name == name })
	if i < 0 {
		return Signature{}, false
	}

	return signatures[i], true
}
