// Package normalize turns raw shader source into a stream of logical
// lines: backslash continuations are joined and comments are stripped
// before any directive or macro processing sees the text.
package normalize

import "strings"

// Line is one logical line. Num is the 1-based physical line number the
// logical line started on, kept for diagnostics.
type Line struct {
	Text string
	Num  int
}

// Lines normalizes source. Continuations are joined first, then
// comments are removed, so a block comment spanning continued lines is
// still a comment and a continuation inside a macro body folds the body
// onto its defining line.
func Lines(source string) []Line {
	phys := splitPhysical(source)
	logical := joinContinuations(phys)
	inBlock := false
	for i := range logical {
		logical[i].Text, inBlock = stripComments(logical[i].Text, inBlock)
	}
	return logical
}

func splitPhysical(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, s := range lines {
		lines[i] = strings.TrimSuffix(s, "\r")
	}
	return lines
}

func joinContinuations(phys []string) []Line {
	var out []Line
	for i := 0; i < len(phys); i++ {
		num := i + 1
		line := phys[i]
		for lineContinues(line) && i+1 < len(phys) {
			line = stripContinuation(line) + phys[i+1]
			i++
		}
		if lineContinues(line) {
			// Continuation on the last physical line has nothing to
			// join; the marker is dropped.
			line = stripContinuation(line)
		}
		out = append(out, Line{Text: line, Num: num})
	}
	return out
}

// lineContinues reports whether the last non-whitespace character is
// the continuation marker.
func lineContinues(s string) bool {
	i := strings.LastIndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	return i >= 0 && s[i] == '\\'
}

func stripContinuation(s string) string {
	i := strings.LastIndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	if i >= 0 && s[i] == '\\' {
		return s[:i]
	}
	return s
}

// stripComments deletes // and /* */ comments from one logical line,
// replacing them with nothing. inBlock carries open block-comment state
// across lines.
func stripComments(s string, inBlock bool) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if inBlock {
			end := strings.Index(s[i:], "*/")
			if end < 0 {
				return b.String(), true
			}
			i += end + 2
			inBlock = false
			continue
		}
		if strings.HasPrefix(s[i:], "//") {
			return b.String(), false
		}
		if strings.HasPrefix(s[i:], "/*") {
			i += 2
			inBlock = true
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), inBlock
}
