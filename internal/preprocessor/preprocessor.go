// Package preprocessor runs the pipeline: normalized logical lines are
// classified as directives or ordinary text; directives mutate the
// macro table or splice processed include content, ordinary text goes
// through macro expansion.
package preprocessor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mbullington/wgpu-pp/internal/macro"
	"github.com/mbullington/wgpu-pp/internal/normalize"
	"github.com/mbullington/wgpu-pp/internal/pperr"
)

const (
	DefaultMaxIncludeDepth   = 64
	DefaultMaxExpansionDepth = 128
)

type Config struct {
	// IncludeDirs are searched after the including file's directory for
	// quoted includes, and are the only search path for <...> includes.
	IncludeDirs []string

	MaxIncludeDepth   int
	MaxExpansionDepth int

	Log logr.Logger
}

// Preprocessor carries the state of one top-level invocation: the
// shared macro table and the stack of currently open files. Neither
// survives the invocation.
type Preprocessor struct {
	cfg          Config
	table        *macro.Table
	expander     *macro.Expander
	includeStack []string
}

func New(cfg Config, table *macro.Table) *Preprocessor {
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	if cfg.MaxExpansionDepth <= 0 {
		cfg.MaxExpansionDepth = DefaultMaxExpansionDepth
	}
	if cfg.Log.GetSink() == nil {
		cfg.Log = logr.Discard()
	}
	return &Preprocessor{
		cfg:      cfg,
		table:    table,
		expander: macro.NewExpander(table, cfg.MaxExpansionDepth),
	}
}

// Table exposes the shared macro table, e.g. for seeding predefined
// macros before processing.
func (p *Preprocessor) Table() *macro.Table { return p.table }

// ProcessFile reads path and processes its content, appending the
// expanded text to out.
func (p *Preprocessor) ProcessFile(path string, out *strings.Builder) error {
	resolved := filepath.Clean(path)
	if err := p.push(resolved); err != nil {
		return err
	}
	defer p.pop()

	data, err := os.ReadFile(resolved)
	if err != nil {
		return pperr.New(pperr.KindIncludeNotFound, "cannot read %q: %v", path, err)
	}
	return p.processLines(resolved, string(data), out)
}

// ProcessSource processes in-memory source. name identifies the source
// for diagnostics and cycle detection; includes resolve relative to its
// directory.
func (p *Preprocessor) ProcessSource(name, source string, out *strings.Builder) error {
	if err := p.push(name); err != nil {
		return err
	}
	defer p.pop()
	return p.processLines(name, source, out)
}

func (p *Preprocessor) push(id string) error {
	for _, open := range p.includeStack {
		if open == id {
			chain := append(append([]string{}, p.includeStack...), id)
			return pperr.New(pperr.KindIncludeCycle, "include cycle: %s", strings.Join(chain, " -> "))
		}
	}
	if len(p.includeStack) >= p.cfg.MaxIncludeDepth {
		return pperr.New(pperr.KindRecursionLimit, "include nesting exceeded depth limit of %d", p.cfg.MaxIncludeDepth)
	}
	p.includeStack = append(p.includeStack, id)
	return nil
}

func (p *Preprocessor) pop() {
	p.includeStack = p.includeStack[:len(p.includeStack)-1]
}

func (p *Preprocessor) processLines(file, source string, out *strings.Builder) error {
	for _, ln := range normalize.Lines(source) {
		if d, ok := parseDirective(ln.Text); ok {
			if err := p.handleDirective(file, ln.Num, d, out); err != nil {
				return pperr.Locate(err, file, ln.Num)
			}
			continue
		}
		expanded, err := p.expander.ExpandLine(ln.Text)
		if err != nil {
			return pperr.Locate(err, file, ln.Num)
		}
		out.WriteString(expanded)
		out.WriteByte('\n')
	}
	p.cfg.Log.V(1).Info("processed", "file", file, "defines", p.table.Names())
	return nil
}

type directive struct {
	cmd string
	arg string
}

// parseDirective classifies a logical line. A directive starts, after
// leading whitespace, with '#' immediately followed by one of the three
// keywords at an identifier boundary. Anything else, including unknown
// '#' lines, is ordinary text.
func parseDirective(line string) (directive, bool) {
	trim := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trim, "#") {
		return directive{}, false
	}
	rest := trim[1:]
	for _, cmd := range [...]string{"include", "define", "undef"} {
		if !strings.HasPrefix(rest, cmd) {
			continue
		}
		tail := rest[len(cmd):]
		if tail != "" && !isSpaceOrTab(tail[0]) {
			continue
		}
		return directive{cmd: cmd, arg: strings.TrimSpace(tail)}, true
	}
	return directive{}, false
}

func isSpaceOrTab(b byte) bool { return b == ' ' || b == '\t' }

func (p *Preprocessor) handleDirective(file string, line int, d directive, out *strings.Builder) error {
	switch d.cmd {
	case "define":
		def, err := parseDefine(d.arg)
		if err != nil {
			return err
		}
		def.Origin = macro.Origin{File: file, Line: line}
		p.table.Define(def)
		p.cfg.Log.V(1).Info("define", "name", def.Name, "kind", def.Kind.String(), "file", file, "line", line)
		return nil

	case "undef":
		if !macro.IsIdentifier(d.arg) {
			return pperr.New(pperr.KindSyntax, "bad #undef: %q", d.arg)
		}
		p.table.Undef(d.arg)
		p.cfg.Log.V(1).Info("undef", "name", d.arg, "file", file, "line", line)
		return nil

	default: // include
		path, angled, err := parseIncludeArg(d.arg)
		if err != nil {
			return err
		}
		resolved, err := p.resolveInclude(path, file, angled)
		if err != nil {
			return err
		}
		p.cfg.Log.V(1).Info("include", "path", path, "resolved", resolved, "file", file, "line", line)
		return p.ProcessFile(resolved, out)
	}
}

// parseDefine parses the text after "#define". A '(' immediately after
// the name (no whitespace) begins a parameter list; otherwise the rest
// of the line, trimmed, is an object-like body.
func parseDefine(arg string) (macro.Definition, error) {
	if arg == "" {
		return macro.Definition{}, pperr.New(pperr.KindSyntax, "#define is missing a macro name")
	}
	name, rest := splitIdentPrefix(arg)
	if name == "" {
		return macro.Definition{}, pperr.New(pperr.KindSyntax, "bad macro name in #define: %q", arg)
	}
	if !strings.HasPrefix(rest, "(") {
		return macro.Definition{
			Name: name,
			Kind: macro.Object,
			Body: strings.TrimSpace(rest),
		}, nil
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return macro.Definition{}, pperr.New(pperr.KindSyntax, "unmatched ( in macro %s parameter list", name)
	}
	params, err := parseParams(name, rest[1:end])
	if err != nil {
		return macro.Definition{}, err
	}
	return macro.Definition{
		Name:   name,
		Kind:   macro.Function,
		Params: params,
		Body:   strings.TrimSpace(rest[end+1:]),
	}, nil
}

func parseParams(name, list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return []string{}, nil
	}
	raw := strings.Split(list, ",")
	params := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		param := strings.TrimSpace(r)
		if !macro.IsIdentifier(param) {
			return nil, pperr.New(pperr.KindSyntax, "macro %s parameter %q is not an identifier", name, param)
		}
		if seen[param] {
			return nil, pperr.New(pperr.KindSyntax, "macro %s has duplicate parameter %q", name, param)
		}
		seen[param] = true
		params = append(params, param)
	}
	return params, nil
}

func splitIdentPrefix(s string) (name, rest string) {
	if s == "" || !isIdentStartByte(s[0]) {
		return "", s
	}
	i := 1
	for i < len(s) && isIdentPartByte(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPartByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}

func parseIncludeArg(arg string) (path string, angled bool, err error) {
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		path = arg[1 : len(arg)-1]
	} else if len(arg) >= 2 && arg[0] == '<' && arg[len(arg)-1] == '>' {
		path, angled = arg[1:len(arg)-1], true
	} else {
		return "", false, pperr.New(pperr.KindSyntax, "bad #include syntax: %q", arg)
	}
	if path == "" {
		return "", false, pperr.New(pperr.KindSyntax, "empty #include path")
	}
	return path, angled, nil
}

// resolveInclude maps an include path to a readable file: absolute
// paths as-is, quoted paths relative to the including file first, then
// the configured include directories.
func (p *Preprocessor) resolveInclude(path, includer string, angled bool) (string, error) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return filepath.Clean(path), nil
		}
		return "", pperr.New(pperr.KindIncludeNotFound, "include %q not found", path)
	}
	if !angled {
		cand := filepath.Join(filepath.Dir(includer), path)
		if fileExists(cand) {
			return cand, nil
		}
	}
	for _, dir := range p.cfg.IncludeDirs {
		cand := filepath.Join(dir, path)
		if fileExists(cand) {
			return cand, nil
		}
	}
	return "", pperr.New(pperr.KindIncludeNotFound, "include %q not found", path)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
