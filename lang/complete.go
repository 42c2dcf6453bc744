package lang

import "strings"

// Completion is one candidate name at a cursor.
type Completion struct {
	Name     string `json:"name"`
	Function bool   `json:"function"`
}

// Complete returns the names in globals that can extend the expression at
// byte offset pos. Expressions of failed statements are searched as well, so
// an incomplete source such as "{foo." still completes. The result never
// contains names with a leading underscore or duplicates.
func Complete(res *Result, pos int, globals *Map) []Completion {
	if res == nil || globals == nil {
		return nil
	}

	c := &completer{src: res.Source, pos: pos, globals: globals, seen: map[string]bool{}}

	for _, e := range res.Exprs {
		c.expr(e)
	}

	for _, d := range res.Errors {
		if d.Expr != nil {
			c.expr(d.Expr)
		}
	}

	return c.out
}

type completer struct {
	src     string
	pos     int
	globals *Map
	seen    map[string]bool
	out     []Completion
}

func (c *completer) covers(e Expr) bool {
	s := e.Bounds()

	return c.pos >= s.Start && (c.pos <= s.End || c.pos == len(c.src))
}

func (c *completer) expr(e Expr) {
	if e == nil || !c.covers(e) {
		return
	}

	switch e := e.(type) {
	case *VariableExpr:
		c.suggest(c.globals, c.text(e.Start, c.pos))

	case *GetExpr:
		nameStart := e.End - len(e.Name)
		if c.pos < nameStart {
			c.children(e)

			return
		}

		if v, ok := resolve(e.Object, c.globals); ok && v.IsMap() {
			c.suggest(v.AsMap(), c.text(nameStart, c.pos))
		}

	case *BlockExpr:
		if e.Inner == nil {
			c.suggest(c.globals, "")

			return
		}

		c.children(e)

	default:
		c.children(e)
	}
}

func (c *completer) children(e Expr) {
	for child := range e.Children() {
		c.expr(child)
	}
}

// text returns the trimmed source between from and to, clamped to the source.
func (c *completer) text(from, to int) string {
	from = max(0, min(from, len(c.src)))
	to = max(from, min(to, len(c.src)))

	return strings.TrimSpace(c.src[from:to])
}

func (c *completer) suggest(m *Map, prefix string) {
	for name := range m.Keys() {
		if strings.HasPrefix(name, "_") || !strings.HasPrefix(name, prefix) || c.seen[name] {
			continue
		}

		v, _ := m.Lookup(name)

		c.seen[name] = true
		c.out = append(c.out, Completion{Name: name, Function: v.IsFunction()})
	}
}

// resolve statically evaluates a chain of variable and member reads. Calls
// and every other expression are not resolvable.
func resolve(e Expr, globals *Map) (Value, bool) {
	switch e := e.(type) {
	case *VariableExpr:
		return globals.Lookup(e.Name)

	case *GetExpr:
		obj, ok := resolve(e.Object, globals)
		if !ok || !obj.IsMap() {
			return Null, false
		}

		return obj.AsMap().Lookup(e.Name)

	case *GroupExpr:
		return resolve(e.Inner, globals)

	default:
		return Null, false
	}
}
