package macro

import (
	"strings"

	"github.com/mbullington/wgpu-pp/internal/pperr"
)

// Expander substitutes macro invocations in text. Expansion is pure
// textual rewriting: a substituted body is re-scanned for further
// references, guarded against re-entering a macro already mid-expansion
// on the active substitution path.
type Expander struct {
	table    *Table
	maxDepth int
	inFlight map[string]bool
}

func NewExpander(table *Table, maxDepth int) *Expander {
	return &Expander{
		table:    table,
		maxDepth: maxDepth,
		inFlight: map[string]bool{},
	}
}

// ExpandLine fully expands one logical line. Returned errors carry no
// location; the caller attaches the line's file and number.
func (e *Expander) ExpandLine(line string) (string, error) {
	return e.expand(line, 0)
}

func (e *Expander) expand(s string, depth int) (string, error) {
	if depth > e.maxDepth {
		return "", pperr.New(pperr.KindRecursionLimit, "macro expansion exceeded depth limit of %d", e.maxDepth)
	}
	var b strings.Builder
	i := 0
	for i < len(s) {
		ch := s[i]
		if !isIdentStart(ch) {
			b.WriteByte(ch)
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isIdentPart(s[j]) {
			j++
		}
		name := s[i:j]
		// An identifier preceded by an identifier character (a digit,
		// since a letter would have been consumed into the previous
		// token) is part of a longer token, not a candidate.
		if i > 0 && isIdentPart(s[i-1]) {
			b.WriteString(name)
			i = j
			continue
		}
		def, ok := e.table.Lookup(name)
		if !ok || e.inFlight[name] {
			b.WriteString(name)
			i = j
			continue
		}
		if def.Kind == Object {
			out, err := e.expandGuarded(name, def.Body, depth)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i = j
			continue
		}
		// Function-like macro name without an immediate argument list
		// is an ordinary identifier.
		if j >= len(s) || s[j] != '(' {
			b.WriteString(name)
			i = j
			continue
		}
		args, n, err := scanArgs(s[j:])
		if err != nil {
			return "", err
		}
		if len(args) != len(def.Params) {
			return "", pperr.New(pperr.KindArgumentCountMismatch,
				"macro %s expects %d argument(s), got %d", name, len(def.Params), len(args))
		}
		out, err := e.expandGuarded(name, substitute(def.Body, def.Params, args), depth)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
		i = j + n
	}
	return b.String(), nil
}

func (e *Expander) expandGuarded(name, body string, depth int) (string, error) {
	e.inFlight[name] = true
	defer delete(e.inFlight, name)
	return e.expand(body, depth+1)
}

// scanArgs parses a macro argument list. s starts at the opening
// parenthesis; the list runs to the matching close, splitting on
// top-level commas only. Commas inside nested balanced (...) within an
// argument do not split. Returns the arguments (trimmed) and the number
// of bytes consumed including both parentheses.
func scanArgs(s string) ([]string, int, error) {
	depth := 0
	var args []string
	start := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				last := strings.TrimSpace(s[start:i])
				if args == nil && last == "" {
					return nil, i + 1, nil
				}
				return append(args, last), i + 1, nil
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return nil, 0, pperr.New(pperr.KindSyntax, "unterminated macro argument list")
}

// substitute replaces parameter occurrences in body with the raw
// argument text. Arguments are not expanded here; the caller re-scans
// the result.
func substitute(body string, params, args []string) string {
	if len(params) == 0 {
		return body
	}
	repl := make(map[string]string, len(params))
	for i, p := range params {
		repl[p] = args[i]
	}
	var b strings.Builder
	i := 0
	for i < len(body) {
		ch := body[i]
		if !isIdentStart(ch) {
			b.WriteByte(ch)
			i++
			continue
		}
		j := i + 1
		for j < len(body) && isIdentPart(body[j]) {
			j++
		}
		name := body[i:j]
		if val, ok := repl[name]; ok && !(i > 0 && isIdentPart(body[i-1])) {
			b.WriteString(val)
		} else {
			b.WriteString(name)
		}
		i = j
	}
	return b.String()
}
