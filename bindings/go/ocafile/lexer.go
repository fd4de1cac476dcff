package ocafile

import (
	"strconv"
	"strings"
)

// line is a logical source line: comments and blank lines are dropped and
// continuation lines are joined to the line they continue.
type line struct {
	num    int
	indent int
	text   string
}

// splitLines turns source text into logical lines.
// Indentation counts leading blanks, a tab counts as one column.
func splitLines(src string) ([]line, error) {
	physical := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var (
		lines   []line
		pending *line
	)
	for i, raw := range physical {
		num := i + 1
		text := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimLeft(text, " \t")
		indent := len(text) - len(trimmed)

		if pending == nil && (trimmed == "" || strings.HasPrefix(trimmed, "#")) {
			continue
		}

		if err := checkQuotes(trimmed, num); err != nil {
			return nil, err
		}
		continued := strings.HasSuffix(trimmed, `\`)
		if continued {
			trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, `\`), " \t")
		}

		switch {
		case pending == nil:
			pending = &line{num: num, indent: indent, text: trimmed}
		case trimmed != "":
			pending.text += " " + trimmed
		}

		if !continued {
			lines = append(lines, *pending)
			pending = nil
		}
	}
	if pending != nil {
		return nil, errorf(pending.num, ErrSyntax, "line continuation at end of input")
	}
	return lines, nil
}

// checkQuotes fails for a line that ends inside a quoted string.
func checkQuotes(text string, num int) error {
	inQuote, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case !inQuote && commentAt(text, i):
			return nil
		}
	}
	if inQuote {
		return errorf(num, ErrUnterminatedString, "%s", text)
	}
	return nil
}

// commentAt reports whether a trailing comment starts at i: a # at the start
// of the line or after a blank.
func commentAt(s string, i int) bool {
	return s[i] == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t')
}

// stripComment removes a trailing comment from text outside of quotes.
func stripComment(s string) string {
	for i := range len(s) {
		if commentAt(s, i) {
			return s[:i]
		}
	}
	return s
}

// scanner reads tokens from one logical line.
type scanner struct {
	line int
	s    string
	pos  int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *scanner) done() bool {
	sc.skipSpace()
	return sc.pos >= len(sc.s) || sc.s[sc.pos] == '#'
}

func (sc *scanner) peek() byte {
	if sc.pos >= len(sc.s) {
		return 0
	}
	return sc.s[sc.pos]
}

// quoted reads a double quoted string starting at the current position.
func (sc *scanner) quoted() (string, error) {
	start := sc.pos
	sc.pos++
	for escaped := false; sc.pos < len(sc.s); sc.pos++ {
		switch {
		case escaped:
			escaped = false
		case sc.s[sc.pos] == '\\':
			escaped = true
		case sc.s[sc.pos] == '"':
			sc.pos++
			v, err := strconv.Unquote(sc.s[start:sc.pos])
			if err != nil {
				return "", errorf(sc.line, ErrSyntax, "invalid string %s: %v", sc.s[start:sc.pos], err)
			}
			return v, nil
		}
	}
	return "", errorf(sc.line, ErrUnterminatedString, "%s", sc.s[start:])
}

// bare reads characters up to whitespace or any of the stop characters.
func (sc *scanner) bare(stop string) string {
	start := sc.pos
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if c == ' ' || c == '\t' || strings.IndexByte(stop, c) >= 0 {
			break
		}
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// word reads a quoted string or a bare token.
func (sc *scanner) word(stop string) (string, bool, error) {
	sc.skipSpace()
	if sc.peek() == '"' {
		v, err := sc.quoted()
		return v, true, err
	}
	return sc.bare(stop), false, nil
}

// list reads a bracket list of quoted or bare items separated by commas.
func (sc *scanner) list() ([]string, error) {
	sc.pos++ // [
	items := []string{}
	for {
		sc.skipSpace()
		if sc.peek() == ']' && len(items) == 0 {
			sc.pos++
			return items, nil
		}
		item, quoted, err := sc.word(",]")
		if err != nil {
			return nil, err
		}
		if item == "" && !quoted {
			return nil, errorf(sc.line, ErrSyntax, "empty list item in %s", sc.s)
		}
		items = append(items, item)

		sc.skipSpace()
		switch sc.peek() {
		case ',':
			sc.pos++
		case ']':
			sc.pos++
			return items, nil
		default:
			return nil, errorf(sc.line, ErrSyntax, "unterminated list in %s", sc.s)
		}
	}
}

// value reads a quoted string, a bracket list or a bare token up to the end of the line.
func (sc *scanner) value() (*Value, error) {
	sc.skipSpace()
	switch sc.peek() {
	case '"':
		s, err := sc.quoted()
		if err != nil {
			return nil, err
		}
		return &Value{Kind: ValueString, Str: s, Quoted: true}, nil
	case '[':
		items, err := sc.list()
		if err != nil {
			return nil, err
		}
		return &Value{Kind: ValueList, List: items}, nil
	}
	s := sc.bare("")
	if s == "" {
		return nil, errorf(sc.line, ErrSyntax, "missing value in %s", sc.s)
	}
	return &Value{Kind: ValueString, Str: s}, nil
}
