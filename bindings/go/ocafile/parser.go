package ocafile

import (
	"fmt"
	"strings"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/bundle/attribute"
)

// File is a parsed OCAfile.
type File struct {
	Headers    []*Header
	Statements []Statement
}

// Header is a --key=value line preceding all statements.
type Header struct {
	Line  int
	Key   string
	Value string
}

// Statement is one ADD statement.
type Statement interface {
	Pos() int
}

// AddAttribute declares one or more capture base attributes.
type AddAttribute struct {
	Line       int
	Attributes []AttributeClause
}

// AttributeClause is a single name=type assignment.
type AttributeClause struct {
	Name string
	Type attribute.Type
}

// AddFlagged flags attributes of the capture base.
type AddFlagged struct {
	Line  int
	Names []string
}

// AddClassification sets the capture base classification.
type AddClassification struct {
	Line int
	Code string
}

// AddOverlay opens an overlay block.
type AddOverlay struct {
	Line int
	Kind bundle.Kind
	Body []*Node
}

func (s *AddAttribute) Pos() int      { return s.Line }
func (s *AddFlagged) Pos() int        { return s.Line }
func (s *AddClassification) Pos() int { return s.Line }
func (s *AddOverlay) Pos() int        { return s.Line }

// Node is a line inside an overlay block: key=value, a bare key or a key
// opening a nested block.
type Node struct {
	Line     int
	Key      string
	Value    *Value
	Children []*Node
}

type ValueKind int

const (
	ValueString ValueKind = iota
	ValueList
)

// Value is the right hand side of key=value.
type Value struct {
	Kind   ValueKind
	Str    string
	Quoted bool
	List   []string
}

// Parse parses OCAfile source text.
func Parse(src string) (*File, error) {
	lines, err := splitLines(src)
	if err != nil {
		return nil, err
	}
	p := &parser{lines: lines}
	return p.file()
}

type parser struct {
	lines []line
	pos   int
}

func (p *parser) file() (*File, error) {
	f := &File{}
	if len(p.lines) == 0 {
		return f, nil
	}
	base := p.lines[0].indent

	for p.pos < len(p.lines) {
		l := p.lines[p.pos]
		if l.indent != base {
			return nil, errorf(l.num, ErrIndentationMismatch, "expected indentation %d, got %d", base, l.indent)
		}
		p.pos++

		if strings.HasPrefix(l.text, "--") {
			if len(f.Statements) > 0 {
				return nil, errorf(l.num, ErrSyntax, "header %q after statements", l.text)
			}
			h, err := parseHeader(l)
			if err != nil {
				return nil, err
			}
			f.Headers = append(f.Headers, h)
			continue
		}

		stmt, err := p.statement(l, base)
		if err != nil {
			return nil, err
		}
		f.Statements = append(f.Statements, stmt)
	}
	return f, nil
}

func parseHeader(l line) (*Header, error) {
	sc := &scanner{line: l.num, s: l.text, pos: 2}
	key := sc.bare("=")
	sc.skipSpace()
	if key == "" || sc.peek() != '=' {
		return nil, errorf(l.num, ErrSyntax, "invalid header %q", l.text)
	}
	sc.pos++
	v, err := sc.value()
	if err != nil {
		return nil, err
	}
	if v.Kind != ValueString || !sc.done() {
		return nil, errorf(l.num, ErrSyntax, "invalid header %q", l.text)
	}
	return &Header{Line: l.num, Key: key, Value: v.Str}, nil
}

func (p *parser) statement(l line, base int) (Statement, error) {
	sc := &scanner{line: l.num, s: l.text}
	if cmd := sc.bare(""); !strings.EqualFold(cmd, "ADD") {
		return nil, errorf(l.num, ErrSyntax, "unknown command %q", cmd)
	}
	sc.skipSpace()
	object := sc.bare("")
	sc.skipSpace()
	rest := sc.s[sc.pos:]

	var stmt Statement
	switch strings.ToUpper(object) {
	case "ATTRIBUTE":
		clauses, err := parseAttributeClauses(l.num, rest)
		if err != nil {
			return nil, err
		}
		stmt = &AddAttribute{Line: l.num, Attributes: clauses}
	case "FLAGGED_ATTRIBUTES", "FLAGGED_ATTRIBUTE":
		names := strings.Fields(stripComment(rest))
		if len(names) == 0 {
			return nil, errorf(l.num, ErrSyntax, "no attributes to flag")
		}
		stmt = &AddFlagged{Line: l.num, Names: names}
	case "CLASSIFICATION":
		v, err := sc.value()
		if err != nil {
			return nil, err
		}
		if v.Kind != ValueString || !sc.done() {
			return nil, errorf(l.num, ErrSyntax, "invalid classification %q", rest)
		}
		stmt = &AddClassification{Line: l.num, Code: v.Str}
	case "OVERLAY":
		name := sc.bare("")
		kind, ok := bundle.LookupKind(name)
		if !ok {
			return nil, errorf(l.num, ErrUnknownOverlayKind, "%q", name)
		}
		if !sc.done() {
			return nil, errorf(l.num, ErrSyntax, "unexpected input after overlay kind in %q", l.text)
		}
		body, err := p.block(base)
		if err != nil {
			return nil, err
		}
		return &AddOverlay{Line: l.num, Kind: kind, Body: body}, nil
	default:
		return nil, errorf(l.num, ErrSyntax, "unknown ADD target %q", object)
	}

	if p.pos < len(p.lines) && p.lines[p.pos].indent > base {
		next := p.lines[p.pos]
		return nil, errorf(next.num, ErrIndentationMismatch, "unexpected indented line")
	}
	return stmt, nil
}

// parseAttributeClauses splits name=type pairs separated by whitespace.
func parseAttributeClauses(num int, rest string) ([]AttributeClause, error) {
	fields := strings.Fields(stripComment(rest))
	if len(fields) == 0 {
		return nil, errorf(num, ErrMalformedAttributeClause, "no attributes")
	}
	clauses := make([]AttributeClause, 0, len(fields))
	for _, field := range fields {
		name, raw, ok := strings.Cut(field, "=")
		if !ok || name == "" || raw == "" {
			return nil, errorf(num, ErrMalformedAttributeClause, "%q", field)
		}
		typ, err := attribute.ParseString(raw)
		if err != nil {
			return nil, &Error{Line: num, Err: fmt.Errorf("%w: %q: %w", ErrMalformedAttributeClause, field, err)}
		}
		clauses = append(clauses, AttributeClause{Name: name, Type: typ})
	}
	return clauses, nil
}

// block reads the lines indented deeper than parent. The first of them sets the
// indentation of the block.
func (p *parser) block(parent int) ([]*Node, error) {
	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= parent {
		return nil, nil
	}
	indent := p.lines[p.pos].indent

	var nodes []*Node
	for p.pos < len(p.lines) {
		l := p.lines[p.pos]
		switch {
		case l.indent <= parent:
			return nodes, nil
		case l.indent < indent:
			return nil, errorf(l.num, ErrIndentationMismatch, "expected indentation %d, got %d", indent, l.indent)
		case l.indent > indent:
			return nil, errorf(l.num, ErrIndentationMismatch, "unexpected nested line")
		}
		p.pos++

		n, err := parseNode(l)
		if err != nil {
			return nil, err
		}
		if p.pos < len(p.lines) && p.lines[p.pos].indent > indent {
			if n.Value != nil {
				next := p.lines[p.pos]
				return nil, errorf(next.num, ErrIndentationMismatch, "%q has a value and cannot open a block", n.Key)
			}
			if n.Children, err = p.block(indent); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseNode(l line) (*Node, error) {
	sc := &scanner{line: l.num, s: l.text}
	key, quoted, err := sc.word("=")
	if err != nil {
		return nil, err
	}
	if key == "" && !quoted {
		return nil, errorf(l.num, ErrSyntax, "missing key in %q", l.text)
	}
	n := &Node{Line: l.num, Key: key}

	sc.skipSpace()
	if sc.peek() == '=' {
		sc.pos++
		if n.Value, err = sc.value(); err != nil {
			return nil, err
		}
	}
	if !sc.done() {
		return nil, errorf(l.num, ErrSyntax, "unexpected input in %q", l.text)
	}
	return n, nil
}
