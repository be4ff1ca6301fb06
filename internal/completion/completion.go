// Package completion suggests field paths and CEL functions while a filter
// expression is being typed.
package completion

import (
	"regexp"
	"slices"
	"strings"
)

// Kind tells what a completion inserts.
type Kind int

const (
	KindField    Kind = iota // record field, e.g. "_.name"
	KindFunction             // global function or macro, e.g. "size("
	KindMethod               // receiver-style call, e.g. "_.name.startsWith("
)

// Completion replaces the token under the cursor with Text.
type Completion struct {
	Text string
	Kind Kind
}

var identifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Completer completes the trailing token of a filter expression.
type Completer struct {
	fields    []string
	functions []string
}

// New creates a Completer over record field names and callable function
// names. Both lists are copied and sorted.
func New(fields, functions []string) *Completer {
	c := &Completer{
		fields:    slices.Clone(fields),
		functions: slices.Clone(functions),
	}
	slices.Sort(c.fields)
	slices.Sort(c.functions)
	return c
}

// Candidates returns the completions for the token ending input, and the
// byte offset where that token starts.
func (c *Completer) Candidates(input string) ([]Completion, int) {
	start := tokenStart(input)
	token := input[start:]
	if token == "" {
		return nil, start
	}

	if token == "_" || strings.HasPrefix(token, "_.") && !strings.Contains(token[2:], ".") {
		prefix := strings.TrimPrefix(strings.TrimPrefix(token, "_"), ".")
		var out []Completion
		for _, f := range c.fields {
			if !strings.HasPrefix(f, prefix) {
				continue
			}
			if identifier.MatchString(f) {
				out = append(out, Completion{Text: "_." + f, Kind: KindField})
			} else if prefix == "" {
				out = append(out, Completion{Text: `_["` + f + `"]`, Kind: KindField})
			}
		}
		return out, start
	}

	if dot := strings.LastIndexByte(token, '.'); dot >= 0 {
		base, prefix := token[:dot], token[dot+1:]
		var out []Completion
		for _, fn := range c.functions {
			if strings.Contains(fn, ".") || !strings.HasPrefix(fn, prefix) {
				continue
			}
			out = append(out, Completion{Text: base + "." + fn + "(", Kind: KindMethod})
		}
		return out, start
	}

	var out []Completion
	for _, fn := range c.functions {
		if strings.HasPrefix(fn, token) {
			out = append(out, Completion{Text: fn + "(", Kind: KindFunction})
		}
	}
	return out, start
}

// Complete extends input as far as its candidates agree. A single candidate
// is inserted whole. The candidate texts are returned for display.
func (c *Completer) Complete(input string) (string, []string) {
	cands, start := c.Candidates(input)
	if len(cands) == 0 {
		return input, nil
	}
	texts := make([]string, len(cands))
	for i, cand := range cands {
		texts[i] = cand.Text
	}
	common := texts[0]
	for _, t := range texts[1:] {
		common = commonPrefix(common, t)
	}
	if len(common) < len(input)-start {
		return input, texts
	}
	return input[:start] + common, texts
}

// tokenStart scans back over identifier characters, dots and underscores.
func tokenStart(input string) int {
	i := len(input)
	for i > 0 {
		ch := input[i-1]
		if ch == '.' || ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			i--
			continue
		}
		break
	}
	return i
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
