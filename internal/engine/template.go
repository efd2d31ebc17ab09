package engine

import (
	"strconv"
	"strings"
)

// The template mini-language: `{name}` substitutes a context variable,
// `{section.accessor}` reads collected sections, and `{expr | pipe | pipe:
// "arg"}` runs the seed value through a chain of transformations. Values
// flowing through a chain are either a string or a list of strings; a pipe
// applied to the wrong shape is a no-op pass-through.

// templateValue is the string-or-list sum type pipes operate on.
type templateValue struct {
	list   []string
	str    string
	sep    string // list join separator used by flatten, "\n" when empty
	isList bool
}

func stringValue(s string) templateValue { return templateValue{str: s} }
func listValue(l []string) templateValue { return templateValue{list: l, isList: true} }

// blockValue is a list that flattens with blank-line separation, preserving
// the shape split_on produced.
func blockValue(l []string) templateValue {
	return templateValue{list: l, isList: true, sep: "\n\n"}
}

// flatten renders the value for final substitution.
func (v templateValue) flatten() string {
	if v.isList {
		sep := v.sep
		if sep == "" {
			sep = "\n"
		}
		return strings.Join(v.list, sep)
	}
	return v.str
}

// pipeOp is the closed set of pipe operators.
type pipeOp int

const (
	pipeLines pipeOp = iota // split a string into lines
	pipeKeep                // filter a list by regex ("where" is a synonym)
	pipeJoin                // join a list with a separator
	pipeNop                 // unrecognized operator, pass-through
)

type pipe struct {
	op  pipeOp
	arg string
}

func (p pipe) apply(cache *RegexCache, v templateValue) templateValue {
	switch p.op {
	case pipeLines:
		if v.isList {
			return v
		}
		return listValue(splitLines(v.str))
	case pipeKeep:
		if !v.isList {
			return v
		}
		re := cache.Get(p.arg)
		if re == nil {
			return v
		}
		kept := make([]string, 0, len(v.list))
		for _, item := range v.list {
			if re.MatchString(item) {
				kept = append(kept, item)
			}
		}
		return templateValue{list: kept, isList: true, sep: v.sep}
	case pipeJoin:
		if !v.isList {
			return v
		}
		return stringValue(strings.Join(v.list, p.arg))
	default:
		return v
	}
}

// placeholder is one compiled `{...}` occurrence.
type placeholder struct {
	expr  string
	pipes []pipe
}

// segment is either literal text or a placeholder.
type segment struct {
	literal string
	ph      *placeholder
}

// compiledTemplate is a template parsed once; rendering only evaluates.
type compiledTemplate struct {
	segments []segment
}

// renderTemplate resolves a template against a variable context and the
// collected sections. Unbound variables become empty strings; nothing here
// fails.
func renderTemplate(cache *RegexCache, template string, vars map[string]string, sections SectionMap) string {
	return compileTemplate(template).render(cache, vars, sections)
}

func compileTemplate(template string) *compiledTemplate {
	ct := &compiledTemplate{}
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end, ok := findClose(rest, open+1)
		if !ok {
			break
		}
		if open > 0 {
			ct.segments = append(ct.segments, segment{literal: rest[:open]})
		}
		ct.segments = append(ct.segments, segment{ph: parsePlaceholder(rest[open+1 : end])})
		rest = rest[end+1:]
	}
	if rest != "" {
		ct.segments = append(ct.segments, segment{literal: rest})
	}
	return ct
}

// findClose scans for the closing '}' starting at from, skipping over
// double-quoted pipe arguments (which may themselves contain braces).
func findClose(s string, from int) (int, bool) {
	inQuote := false
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuote {
				i++ // skip the escaped byte
			}
		case '"':
			inQuote = !inQuote
		case '}':
			if !inQuote {
				return i, true
			}
		}
	}
	return 0, false
}

func parsePlaceholder(content string) *placeholder {
	parts := splitPipes(content)
	ph := &placeholder{expr: strings.TrimSpace(parts[0])}
	for _, raw := range parts[1:] {
		ph.pipes = append(ph.pipes, parsePipe(raw))
	}
	return ph
}

// splitPipes splits on '|' outside of quoted arguments.
func splitPipes(s string) []string {
	var parts []string
	start := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case '|':
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func parsePipe(raw string) pipe {
	name := strings.TrimSpace(raw)
	arg := ""
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		arg = unquoteArg(strings.TrimSpace(name[colon+1:]))
		name = strings.TrimSpace(name[:colon])
	}
	switch name {
	case "lines":
		return pipe{op: pipeLines}
	case "keep", "where":
		return pipe{op: pipeKeep, arg: arg}
	case "join":
		return pipe{op: pipeJoin, arg: arg}
	default:
		return pipe{op: pipeNop}
	}
}

// unquoteArg strips surrounding double quotes and resolves the \n, \t, \",
// and \\ escapes. Unquoted arguments are taken verbatim.
func unquoteArg(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

func (ct *compiledTemplate) render(cache *RegexCache, vars map[string]string, sections SectionMap) string {
	var b strings.Builder
	for _, seg := range ct.segments {
		if seg.ph == nil {
			b.WriteString(seg.literal)
			continue
		}
		v := resolveExpr(seg.ph.expr, vars, sections)
		for _, p := range seg.ph.pipes {
			v = p.apply(cache, v)
		}
		b.WriteString(v.flatten())
	}
	return b.String()
}

// resolveExpr produces the seed value for a placeholder: a plain variable,
// or a `section.accessor` read.
func resolveExpr(expr string, vars map[string]string, sections SectionMap) templateValue {
	name, accessor, dotted := strings.Cut(expr, ".")
	if !dotted {
		return stringValue(vars[expr])
	}

	section, ok := sections[name]
	if !ok {
		if accessor == "count" {
			return stringValue("0")
		}
		return stringValue("")
	}
	switch accessor {
	case "count":
		if len(section.Blocks) > 0 {
			return stringValue(strconv.Itoa(len(section.Blocks)))
		}
		return stringValue(strconv.Itoa(len(section.Lines)))
	case "lines":
		return listValue(section.Lines)
	case "blocks":
		return blockValue(section.Blocks)
	case "numbered":
		return stringValue(numbered(section))
	default:
		return stringValue("")
	}
}

// numbered renders the section's blocks (or lines, when no split produced
// blocks) as a numbered list.
func numbered(section *CollectedSection) string {
	items := section.Blocks
	if len(items) == 0 {
		items = section.Lines
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(item)
	}
	return b.String()
}
