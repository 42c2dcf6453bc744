package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects how sections, syntax trees and programs are written.
type Format uint8

const (
	// FormatText writes section text verbatim and programs as a listing.
	FormatText Format = iota
	// FormatTree writes syntax trees as an indented outline.
	FormatTree
	FormatJSON
	FormatYAML
)

var formatName = [...]string{
	FormatText: "text",
	FormatTree: "tree",
	FormatJSON: "json",
	FormatYAML: "yaml",
}

func (f Format) String() string {
	if int(f) < len(formatName) {
		return formatName[f]
	}

	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatName {
		if strings.EqualFold(s, name) {
			return Format(f), nil
		}
	}

	return 0, fmt.Errorf("unknown format %q", s)
}

// WriteSections writes the output of a run. Text writes the concatenated
// text; JSON and YAML write a list of index and text records.
func WriteSections(ctx context.Context, w io.Writer, s *Section, f Format, indent int) error {
	if f == FormatText || f == FormatTree {
		_, err := io.WriteString(w, s.String())

		return err
	}

	records := make([]yaml.MapSlice, 0, s.Len())
	for n := range s.All() {
		records = append(records, yaml.MapSlice{
			{Key: "index", Value: int(n.Index)},
			{Key: "text", Value: n.Text},
		})
	}

	return encode(ctx, w, records, f, indent)
}

// WriteExprs writes parsed statements.
func WriteExprs(ctx context.Context, w io.Writer, exprs []Expr, f Format, indent int) error {
	if f == FormatTree || f == FormatText {
		for _, e := range exprs {
			if err := WriteExpr(ctx, w, e, FormatTree, indent); err != nil {
				return err
			}
		}

		return nil
	}

	nodes := make([]yaml.MapSlice, len(exprs))
	for i, e := range exprs {
		nodes[i] = exprNode(e)
	}

	return encode(ctx, w, nodes, f, indent)
}

// WriteExpr writes one syntax tree.
func WriteExpr(ctx context.Context, w io.Writer, e Expr, f Format, indent int) error {
	if f == FormatJSON || f == FormatYAML {
		return encode(ctx, w, exprNode(e), f, indent)
	}

	if indent < 1 {
		indent = 2
	}

	var b strings.Builder

	writeTree(&b, e, indent, 0)

	_, err := io.WriteString(w, b.String())

	return err
}

// WriteProgram writes a program listing, or its code and constant pool as
// JSON or YAML.
func WriteProgram(ctx context.Context, w io.Writer, p *Program, f Format, indent int) error {
	if f == FormatText || f == FormatTree {
		return p.Disassemble(w)
	}

	code := make([]yaml.MapSlice, 0, len(p.Code))
	for in := range p.Instructions() {
		ops := make([]int, len(in.Operands))
		for i, b := range in.Operands {
			ops[i] = int(b)
		}

		item := yaml.MapSlice{
			{Key: "offset", Value: in.Offset},
			{Key: "op", Value: in.Op.String()},
			{Key: "operands", Value: ops},
		}

		if in.Op.IsJump() {
			item = append(item, yaml.MapItem{Key: "target", Value: in.Target()})
		}

		code = append(code, item)
	}

	consts := make([]any, len(p.Constants))
	for i, c := range p.Constants {
		consts[i] = ToNative(c)
	}

	return encode(ctx, w, yaml.MapSlice{
		{Key: "code", Value: code},
		{Key: "constants", Value: consts},
	}, f, indent)
}

// encode writes v as JSON or YAML, followed by a newline.
func encode(ctx context.Context, w io.Writer, v any, f Format, indent int) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case FormatJSON:
		if indent > 0 {
			data, err = json.MarshalIndent(plain(v), "", strings.Repeat(" ", indent))
		} else {
			data, err = json.Marshal(plain(v))
		}

		if err == nil {
			data = append(data, '\n')
		}

	case FormatYAML:
		var opts []yaml.EncodeOption
		if indent > 0 {
			opts = append(opts, yaml.Indent(indent))
		} else {
			opts = append(opts, yaml.Flow(true))
		}

		data, err = yaml.MarshalContext(ctx, v, opts...)

	default:
		return fmt.Errorf("cannot encode as %s", f)
	}

	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// orderedJSON keeps the key order of a MapSlice in JSON output.
type orderedJSON yaml.MapSlice

func (o orderedJSON) MarshalJSON() ([]byte, error) {
	var b strings.Builder

	b.WriteByte('{')

	for i, item := range o {
		if i > 0 {
			b.WriteByte(',')
		}

		key, err := json.Marshal(fmt.Sprint(item.Key))
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(plain(item.Value))
		if err != nil {
			return nil, err
		}

		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}

	b.WriteByte('}')

	return []byte(b.String()), nil
}

// plain rewrites ordered maps for encoding/json.
func plain(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		return orderedJSON(v)
	case []yaml.MapSlice:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = orderedJSON(m)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}

		return out
	default:
		return v
	}
}

// exprNode describes e and its subtree as an ordered map.
func exprNode(e Expr) yaml.MapSlice {
	if e == nil {
		return nil
	}

	s := e.Bounds()
	node := yaml.MapSlice{
		{Key: "kind", Value: kindName(e)},
		{Key: "start", Value: s.Start},
		{Key: "end", Value: s.End},
	}

	switch e := e.(type) {
	case *BoolExpr:
		node = append(node, yaml.MapItem{Key: "value", Value: e.Value})
	case *NumberExpr:
		node = append(node, yaml.MapItem{Key: "value", Value: e.Value})
	case *StringExpr:
		node = append(node, yaml.MapItem{Key: "value", Value: e.Value})
	case *VariableExpr:
		node = append(node, yaml.MapItem{Key: "name", Value: e.Name})
	case *GetExpr:
		node = append(node, yaml.MapItem{Key: "name", Value: e.Name})
	case *UnaryExpr:
		node = append(node, yaml.MapItem{Key: "op", Value: e.Op.String()})
	case *BinaryExpr:
		node = append(node, yaml.MapItem{Key: "op", Value: e.Op.String()})
	case *LogicalExpr:
		node = append(node, yaml.MapItem{Key: "op", Value: e.Op.String()})
	case *SectionExpr:
		node = append(node, yaml.MapItem{Key: "index", Value: e.Index})
	}

	children := childList(e)
	if len(children) == 0 {
		return node
	}

	list := make([]any, len(children))
	for i, c := range children {
		list[i] = exprNode(c)
	}

	return append(node, yaml.MapItem{Key: "children", Value: list})
}

// writeTree writes one line per node, children indented below their parent.
func writeTree(b *strings.Builder, e Expr, indent, depth int) {
	if e == nil {
		return
	}

	s := e.Bounds()

	b.WriteString(strings.Repeat(" ", depth*indent))
	b.WriteString(kindName(e))

	if label := exprLabel(e); label != "" {
		b.WriteString(" " + label)
	}

	fmt.Fprintf(b, " [%d,%d)\n", s.Start, s.End)

	for c := range e.Children() {
		writeTree(b, c, indent, depth+1)
	}
}

func exprLabel(e Expr) string {
	switch e := e.(type) {
	case *BoolExpr:
		return strconv.FormatBool(e.Value)
	case *NumberExpr:
		return formatNumber(e.Value)
	case *StringExpr:
		return strconv.Quote(e.Value)
	case *VariableExpr:
		return e.Name
	case *GetExpr:
		return "." + e.Name
	case *UnaryExpr:
		return e.Op.String()
	case *BinaryExpr:
		return e.Op.String()
	case *LogicalExpr:
		return e.Op.String()
	case *SectionExpr:
		return "#" + strconv.Itoa(e.Index)
	default:
		return ""
	}
}
