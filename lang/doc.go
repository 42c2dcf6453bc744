// Package lang implements a small template language: a two-mode lexer, an
// error-recovering parser, a bytecode compiler, and a stack VM that renders
// a template against a host namespace into ordered, indexed sections.
//
// # Templates
//
// Text outside braces is copied to the output. Braces embed an expression
// whose value is rendered in place. A marker #N switches the output channel
// to N (0 to 255) for everything that follows:
//
//	Hello, {name}!#1{items > 1 ? items + " items" : "one item"}
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	Template    → Statement* EOF
//	Statement   → Section | Conditional
//	Section     → '#' Digits Conditional?
//	Conditional → Or ('?' Statement ':' Statement)?
//	Or          → And ('or' And)*
//	And         → Equality ('and' Equality)*
//	Equality    → Comparison (('==' | '!=') Comparison)*
//	Comparison  → Term (('>' | '>=' | '<' | '<=') Term)*
//	Term        → Factor (('+' | '-') Factor)*
//	Factor      → Unary (('*' | '/' | '%' | '^') Unary)*
//	Unary       → ('!' | '-') Unary | Call
//	Call        → Primary ('.' Identifier | '(' Arguments? ')')*
//	Primary     → Number | String | Text | 'true' | 'false' | 'null'
//	            | Identifier | '(' Statement ')' | '{' Statement '}'
//
// Text is a run of literal characters outside braces; braces do not nest.
//
// # Values
//
// A [Value] is null, a boolean, a float64 number, a string, a function, or a
// [Map]. Namespaces map names to [Supplier] thunks, evaluated at every
// lookup, so values such as the current time stay current. A missing name,
// or a member read on anything but a map, yields null.
//
// # Running
//
// [Parse] collects every syntax error of a source in one pass. [Compile]
// emits a [Program], immutable and safe to share. [Runtime.Run] executes it
// with a fresh [VM] per call:
//
//	rt := lang.NewRuntime(globals)
//	out, err := rt.Eval(ctx, "Hello, {name}!")
//	fmt.Print(out)
package lang
