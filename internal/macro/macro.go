// Package macro holds the mutable macro table and the expander that
// rewrites non-directive text by recursive substitution.
package macro

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Kind int

const (
	Object Kind = iota
	Function
)

func (k Kind) String() string {
	if k == Function {
		return "function"
	}
	return "object"
}

// Origin is where a macro was defined, for diagnostics.
type Origin struct {
	File string
	Line int
}

// Definition is one macro. Params is empty for Object kind. Body is
// replacement text with continuations already joined and comments
// already stripped.
type Definition struct {
	Name   string
	Kind   Kind
	Params []string
	Body   string
	Origin Origin
}

// Table maps macro names to definitions. It is created fresh per
// top-level preprocessing invocation and shared by pointer through
// nested include processing, so an include's defines stay visible to
// the including file's subsequent text.
type Table struct {
	defs map[string]Definition
}

func NewTable() *Table {
	return &Table{defs: map[string]Definition{}}
}

// Define registers def, silently overwriting any previous definition of
// the same name.
func (t *Table) Define(def Definition) {
	t.defs[def.Name] = def
}

// Undef removes name. Removing an undefined name is a no-op.
func (t *Table) Undef(name string) {
	delete(t.defs, name)
}

func (t *Table) Lookup(name string) (Definition, bool) {
	def, ok := t.defs[name]
	return def, ok
}

func (t *Table) Len() int { return len(t.defs) }

// Names returns the currently defined macro names, sorted.
func (t *Table) Names() []string {
	names := maps.Keys(t.defs)
	slices.Sort(names)
	return names
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// IsIdentifier reports whether s is a valid macro name.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
